package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const jsonrpcVersion = "2.0"

// JSON-RPC 2.0 error codes used when an error did not come from upstream.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServerError    = -32000
)

// Request is a single JSON-RPC call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest marshals params positionally.
func NewRequest(method string, params ...interface{}) (*Request, error) {
	if params == nil {
		params = []interface{}{}
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal params for %s", method)
	}

	return &Request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  raw,
	}, nil
}

// PositionalParams splits the params array. An absent or null params value is empty.
func (r *Request) PositionalParams() ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(r.Params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var params []json.RawMessage
	if err := json.Unmarshal(trimmed, &params); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params for %s: expected array", r.Method)}
	}

	return params, nil
}

// UnmarshalParams decodes positional params into targets. Missing trailing params
// leave their targets untouched.
func (r *Request) UnmarshalParams(targets ...interface{}) error {
	params, err := r.PositionalParams()
	if err != nil {
		return err
	}

	for i, target := range targets {
		if i >= len(params) {
			break
		}
		if err := json.Unmarshal(params[i], target); err != nil {
			return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid argument %d: %v", i, err)}
		}
	}

	return nil
}

// Response is a single JSON-RPC reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse builds the reply for req from a handler outcome.
func NewResponse(id json.RawMessage, result json.RawMessage, err error) *Response {
	resp := &Response{JSONRPC: jsonrpcVersion, ID: id}
	if err != nil {
		resp.Error = ErrorFrom(err)
		return resp
	}

	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	resp.Result = result

	return resp
}

// Error is a JSON-RPC error object. It satisfies rpc.Error and rpc.DataError so
// go-ethereum clients see upstream errors unchanged.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) ErrorCode() int {
	return e.Code
}

func (e *Error) ErrorData() interface{} {
	return e.Data
}

var (
	_ rpc.Error     = (*Error)(nil)
	_ rpc.DataError = (*Error)(nil)
)

// ErrorFrom converts err into a JSON-RPC error object. Errors carrying a JSON-RPC
// code anywhere in their chain keep code, message and data. Everything else is a
// server error with the full message.
func ErrorFrom(err error) *Error {
	if err == nil {
		return nil
	}

	var own *Error
	if errors.As(err, &own) {
		return own
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		e := &Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			e.Data = dataErr.ErrorData()
		}
		return e
	}

	return &Error{Code: CodeServerError, Message: err.Error()}
}
