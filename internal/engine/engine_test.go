package engine_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/internal/engine"
)

type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	results map[string]json.RawMessage
	closed  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{results: map[string]json.RawMessage{
		"eth_blockNumber": json.RawMessage(`"0x0"`),
	}}
}

func (f *fakeTransport) Call(_ context.Context, req *engine.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req.Method)
	if res, ok := f.results[req.Method]; ok {
		return res, nil
	}

	return nil, &engine.Error{Code: -32601, Message: "the method " + req.Method + " does not exist/is not available"}
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
}

func (f *fakeTransport) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeTransport) setResult(method string, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.results[method] = json.RawMessage(result)
}

func tagging(name string, order *[]string, mu *sync.Mutex) engine.Middleware {
	return engine.MiddlewareFunc{
		ID: name,
		Fn: func(ctx context.Context, req *engine.Request, next engine.Handler) (json.RawMessage, error) {
			mu.Lock()
			*order = append(*order, name)
			mu.Unlock()
			return next(ctx, req)
		},
	}
}

func TestMiddlewareOrder(t *testing.T) {
	ft := newFakeTransport()
	ft.setResult("eth_chainId", `"0xed"`)

	var (
		order []string
		mu    sync.Mutex
	)
	e := engine.New(ft, engine.Options{PollingInterval: time.Hour},
		tagging("first", &order, &mu),
		tagging("second", &order, &mu),
	)
	require.NoError(t, e.Start())
	defer e.Stop()

	req, err := engine.NewRequest("eth_chainId")
	require.NoError(t, err)

	result, err := e.Send(t.Context(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `"0xed"`, string(result))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "2.0", req.JSONRPC)
}

func TestMiddlewareShortCircuit(t *testing.T) {
	ft := newFakeTransport()
	e := engine.New(ft, engine.Options{PollingInterval: time.Hour}, engine.MiddlewareFunc{
		ID: "static",
		Fn: func(ctx context.Context, req *engine.Request, next engine.Handler) (json.RawMessage, error) {
			if req.Method == "web3_clientVersion" {
				return json.RawMessage(`"static/1.0"`), nil
			}
			return next(ctx, req)
		},
	})
	require.NoError(t, e.Start())
	defer e.Stop()

	req, err := engine.NewRequest("web3_clientVersion")
	require.NoError(t, err)

	result, err := e.Send(t.Context(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `"static/1.0"`, string(result))
	assert.Zero(t, ft.count("web3_clientVersion"))
}

func TestSendPassesThroughErrors(t *testing.T) {
	ft := newFakeTransport()
	e := engine.New(ft, engine.Options{PollingInterval: time.Hour})
	require.NoError(t, e.Start())
	defer e.Stop()

	req, err := engine.NewRequest("eth_foo")
	require.NoError(t, err)

	_, err = e.Send(t.Context(), req)
	var rpcErr *engine.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestLifecycle(t *testing.T) {
	ft := newFakeTransport()
	e := engine.New(ft, engine.Options{PollingInterval: 5 * time.Millisecond})

	req, err := engine.NewRequest("eth_blockNumber")
	require.NoError(t, err)

	_, err = e.Send(t.Context(), req)
	require.ErrorIs(t, err, engine.ErrNotStarted)

	require.NoError(t, e.Start())
	require.NoError(t, e.Start())
	assert.True(t, e.Running())

	assert.Eventually(t, func() bool { return ft.count("eth_blockNumber") >= 3 }, time.Second, 5*time.Millisecond)

	e.Stop()
	e.Stop()
	assert.False(t, e.Running())
	assert.True(t, ft.closed)

	polls := ft.count("eth_blockNumber")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, polls, ft.count("eth_blockNumber"), "block tracker kept polling after stop")

	_, err = e.Send(t.Context(), req)
	require.ErrorIs(t, err, engine.ErrStopped)
	require.ErrorIs(t, e.Start(), engine.ErrStopped)
}

func TestBlockTrackerNotifiesOnNewBlocks(t *testing.T) {
	ft := newFakeTransport()
	e := engine.New(ft, engine.Options{PollingInterval: 5 * time.Millisecond})

	blocks := make(chan uint64, 10)
	unsubscribe := e.Subscribe(func(n uint64) { blocks <- n })

	require.NoError(t, e.Start())
	defer e.Stop()

	select {
	case n := <-blocks:
		assert.Equal(t, uint64(0), n)
	case <-time.After(time.Second):
		t.Fatal("no block notification")
	}

	ft.setResult("eth_blockNumber", `"0x2a"`)
	select {
	case n := <-blocks:
		assert.Equal(t, uint64(42), n)
	case <-time.After(time.Second):
		t.Fatal("no block notification")
	}

	latest, ok := e.LatestBlock()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), latest)

	unsubscribe()
	ft.setResult("eth_blockNumber", `"0x2b"`)
	assert.Eventually(t, func() bool {
		n, _ := e.LatestBlock()
		return n == 43
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, blocks)
}

func TestSendAsync(t *testing.T) {
	ft := newFakeTransport()
	e := engine.New(ft, engine.Options{PollingInterval: time.Hour})
	require.NoError(t, e.Start())
	defer e.Stop()

	req, err := engine.NewRequest("eth_blockNumber")
	require.NoError(t, err)

	done := make(chan struct{})
	e.SendAsync(t.Context(), req, func(err error, result json.RawMessage) {
		defer close(done)
		assert.NoError(t, err)
		assert.JSONEq(t, `"0x0"`, string(result))
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestSendDoesNotModifyRequest(t *testing.T) {
	ft := newFakeTransport()

	var seen []string
	var mu sync.Mutex
	e := engine.New(ft, engine.Options{PollingInterval: time.Hour}, engine.MiddlewareFunc{
		ID: "record_version",
		Fn: func(ctx context.Context, req *engine.Request, next engine.Handler) (json.RawMessage, error) {
			mu.Lock()
			seen = append(seen, req.JSONRPC)
			mu.Unlock()
			return next(ctx, req)
		},
	})
	require.NoError(t, e.Start())
	defer e.Stop()

	req := &engine.Request{Method: "eth_blockNumber"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		e.SendAsync(t.Context(), req, func(err error, _ json.RawMessage) {
			defer wg.Done()
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Empty(t, req.JSONRPC)
	assert.Equal(t, []string{"2.0", "2.0", "2.0", "2.0"}, seen)
}
