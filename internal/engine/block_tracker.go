package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
)

// blockTracker polls eth_blockNumber and notifies listeners whenever the head changes.
type blockTracker struct {
	call     Handler
	interval time.Duration

	mu        sync.RWMutex
	latest    uint64
	hasLatest bool
	listeners map[int]func(uint64)
	nextID    int

	cancel context.CancelFunc
	done   chan struct{}
}

func newBlockTracker(call Handler, interval time.Duration) *blockTracker {
	return &blockTracker{
		call:      call,
		interval:  interval,
		listeners: make(map[int]func(uint64)),
	}
}

func (t *blockTracker) start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.loop(ctx)
}

// stop cancels polling and blocks until the loop has returned.
func (t *blockTracker) stop() {
	if t.cancel == nil {
		return
	}

	t.cancel()
	<-t.done
}

func (t *blockTracker) loop(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *blockTracker) poll(ctx context.Context) {
	var number hexutil.Uint64
	if err := Call(ctx, t.call, &number, "eth_blockNumber"); err != nil {
		if ctx.Err() == nil {
			log.Warn().Str("component", "block_tracker").Err(err).Msg("Failed to poll latest block")
		}
		return
	}

	t.mu.Lock()
	changed := !t.hasLatest || uint64(number) != t.latest
	t.latest = uint64(number)
	t.hasLatest = true
	listeners := make([]func(uint64), 0, len(t.listeners))
	for _, fn := range t.listeners {
		listeners = append(listeners, fn)
	}
	t.mu.Unlock()

	if !changed {
		return
	}

	log.Debug().Str("component", "block_tracker").Uint64("block", uint64(number)).Msg("New block")
	for _, fn := range listeners {
		fn(uint64(number))
	}
}

func (t *blockTracker) latestBlock() (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.latest, t.hasLatest
}

func (t *blockTracker) subscribe(fn func(uint64)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.listeners[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}
