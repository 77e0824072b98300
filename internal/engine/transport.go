package engine

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Transport is the last link of the pipeline.
type Transport interface {
	Call(ctx context.Context, req *Request) (json.RawMessage, error)
	Close()
}

// RPCTransport forwards requests unmodified to an upstream node.
type RPCTransport struct {
	url    string
	client *rpc.Client
}

// DialTransport connects to rpcURL. HTTP endpoints are not contacted until the first call.
func DialTransport(ctx context.Context, rpcURL string, options ...rpc.ClientOption) (*RPCTransport, error) {
	client, err := rpc.DialOptions(ctx, rpcURL, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", rpcURL)
	}

	return NewRPCTransport(rpcURL, client), nil
}

func NewRPCTransport(rpcURL string, client *rpc.Client) *RPCTransport {
	return &RPCTransport{url: rpcURL, client: client}
}

// Call forwards req. Upstream JSON-RPC errors are returned as *Error with their
// code, message and data unchanged.
func (t *RPCTransport) Call(ctx context.Context, req *Request) (json.RawMessage, error) {
	params, err := req.PositionalParams()
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}

	var result json.RawMessage
	if err := t.client.CallContext(ctx, &result, req.Method, args...); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, ErrorFrom(err)
		}
		return nil, err
	}

	return result, nil
}

func (t *RPCTransport) URL() string {
	return t.url
}

func (t *RPCTransport) Close() {
	t.client.Close()
}
