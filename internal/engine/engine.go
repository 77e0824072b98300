// Package engine runs JSON-RPC requests through an ordered middleware pipeline
// that ends in a pass-through transport, and tracks the upstream chain head.
package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrStopped is returned for requests sent after Stop.
	ErrStopped = errors.New("provider engine stopped")
	// ErrNotStarted is returned for requests sent before Start.
	ErrNotStarted = errors.New("provider engine not started")
)

const DefaultPollingInterval = 4 * time.Second

type Options struct {
	// PollingInterval between eth_blockNumber polls, DefaultPollingInterval if zero.
	PollingInterval time.Duration
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Engine owns the pipeline and the background block tracker. It must be stopped
// to release the tracker goroutine and the transport.
type Engine struct {
	transport   Transport
	middlewares []Middleware
	handler     Handler
	tracker     *blockTracker

	mu       sync.RWMutex
	state    state
	inflight sync.WaitGroup
}

// New builds an engine calling middlewares in order before transport.
func New(transport Transport, opts Options, middlewares ...Middleware) *Engine {
	interval := opts.PollingInterval
	if interval <= 0 {
		interval = DefaultPollingInterval
	}

	e := &Engine{
		transport:   transport,
		middlewares: middlewares,
		handler:     chain(transport.Call, middlewares...),
	}
	e.tracker = newBlockTracker(transport.Call, interval)

	return e
}

// Start launches the block tracker. Starting twice is a no-op, a stopped engine cannot be restarted.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	}

	e.state = stateRunning
	e.tracker.start()

	log.Debug().Str("component", "engine").Int("middlewares", len(e.middlewares)).Msg("Engine started")
	return nil
}

// Stop halts block tracking, waits for in-flight requests and closes the transport.
// Safe to call multiple times.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == stateStopped {
		e.mu.Unlock()
		return
	}
	wasRunning := e.state == stateRunning
	e.state = stateStopped
	e.mu.Unlock()

	if wasRunning {
		e.tracker.stop()
	}
	e.inflight.Wait()
	e.transport.Close()

	log.Debug().Str("component", "engine").Msg("Engine stopped")
}

// Running reports whether the engine accepts requests and its tracker is polling.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state == stateRunning
}

// Send runs req through the pipeline and returns upstream's result or error unchanged.
func (e *Engine) Send(ctx context.Context, req *Request) (json.RawMessage, error) {
	e.mu.RLock()
	switch e.state {
	case stateIdle:
		e.mu.RUnlock()
		return nil, ErrNotStarted
	case stateStopped:
		e.mu.RUnlock()
		return nil, ErrStopped
	}
	e.inflight.Add(1)
	e.mu.RUnlock()
	defer e.inflight.Done()

	if req.JSONRPC == "" {
		cp := *req
		cp.JSONRPC = jsonrpcVersion
		req = &cp
	}

	return e.handler(ctx, req)
}

// SendAsync runs req on its own goroutine and reports the outcome to callback.
func (e *Engine) SendAsync(ctx context.Context, req *Request, callback func(err error, result json.RawMessage)) {
	go func() {
		result, err := e.Send(ctx, req)
		callback(err, result)
	}()
}

// Subscribe registers fn for new block numbers. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(blockNumber uint64)) func() {
	return e.tracker.subscribe(fn)
}

// LatestBlock returns the last polled head, false before the first successful poll.
func (e *Engine) LatestBlock() (uint64, bool) {
	return e.tracker.latestBlock()
}
