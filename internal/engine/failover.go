package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoEndpoint is returned when none of the upstream URLs could be dialed.
var ErrNoEndpoint = errors.New("failed to connect to any RPC endpoint")

// FailoverTransport forwards to the first upstream that answers. An endpoint is
// skipped only on transport failures, JSON-RPC errors are upstream answers and
// returned as they are. The last endpoint that answered is tried first.
type FailoverTransport struct {
	transports []*RPCTransport

	mu      sync.RWMutex
	current int
}

// DialFailoverTransport dials every URL. URLs that fail to dial are left out.
func DialFailoverTransport(ctx context.Context, urls []string, options ...rpc.ClientOption) (*FailoverTransport, error) {
	transports := make([]*RPCTransport, 0, len(urls))
	for _, url := range urls {
		t, err := DialTransport(ctx, url, options...)
		if err != nil {
			log.Warn().
				Str("component", "failover_transport").
				Str("url", url).
				Err(err).
				Msg("Failed to dial RPC endpoint, skipping")
			continue
		}
		transports = append(transports, t)
	}

	if len(transports) == 0 {
		return nil, ErrNoEndpoint
	}

	return &FailoverTransport{transports: transports}, nil
}

func (f *FailoverTransport) Call(ctx context.Context, req *Request) (json.RawMessage, error) {
	f.mu.RLock()
	start := f.current
	f.mu.RUnlock()

	var lastErr error
	for i := 0; i < len(f.transports); i++ {
		idx := (start + i) % len(f.transports)
		t := f.transports[idx]

		result, err := t.Call(ctx, req)
		if err == nil || isUpstreamAnswer(err) {
			if idx != start {
				f.mu.Lock()
				f.current = idx
				f.mu.Unlock()
			}
			return result, err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		log.Warn().
			Str("component", "failover_transport").
			Str("url", t.URL()).
			Str("method", req.Method).
			Err(err).
			Msg("RPC endpoint unavailable, trying next")
		lastErr = err
	}

	return nil, errors.Wrap(lastErr, "all RPC endpoints are unavailable")
}

// URL returns the endpoint currently preferred.
func (f *FailoverTransport) URL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.transports[f.current].URL()
}

func (f *FailoverTransport) Close() {
	for _, t := range f.transports {
		t.Close()
	}
}

func isUpstreamAnswer(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr)
}
