package engine

import (
	"context"
	"encoding/json"
)

// Handler serves a request and returns the raw JSON result.
type Handler func(ctx context.Context, req *Request) (json.RawMessage, error)

// Middleware is one link of the request pipeline. It either answers the request
// itself or calls next, possibly with a rewritten request.
type Middleware interface {
	Name() string
	Handle(ctx context.Context, req *Request, next Handler) (json.RawMessage, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc struct {
	ID string
	Fn func(ctx context.Context, req *Request, next Handler) (json.RawMessage, error)
}

func (m MiddlewareFunc) Name() string {
	return m.ID
}

func (m MiddlewareFunc) Handle(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
	return m.Fn(ctx, req, next)
}

// chain builds a single handler calling middlewares in order, ending in last.
func chain(last Handler, middlewares ...Middleware) Handler {
	handler := last
	for i := len(middlewares) - 1; i >= 0; i-- {
		m := middlewares[i]
		next := handler
		handler = func(ctx context.Context, req *Request) (json.RawMessage, error) {
			return m.Handle(ctx, req, next)
		}
	}

	return handler
}

// Call sends method through h and decodes the result into result when non-nil.
func Call(ctx context.Context, h Handler, result interface{}, method string, params ...interface{}) error {
	req, err := NewRequest(method, params...)
	if err != nil {
		return err
	}

	raw, err := h(ctx, req)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	return json.Unmarshal(raw, result)
}
