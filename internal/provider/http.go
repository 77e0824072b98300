package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github/chapool/hdwallet-provider/internal/engine"
)

// clientEndpoint is never dialed, requests are served by the provider's RoundTrip.
const clientEndpoint = "http://hdwallet-provider.local"

var _ http.RoundTripper = (*Provider)(nil)

// HandleJSON serves a raw JSON-RPC payload, single request or batch.
// Notifications (requests without id) are served but not answered, so the
// result is empty when a payload holds notifications only.
func (p *Provider) HandleJSON(ctx context.Context, body []byte) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			return json.Marshal(parseError(err))
		}
		if len(batch) == 0 {
			return json.Marshal(engine.NewResponse(nil, nil, &engine.Error{Code: engine.CodeInvalidRequest, Message: "empty batch"}))
		}

		responses := make([]*engine.Response, 0, len(batch))
		for _, msg := range batch {
			if resp := p.handleOne(ctx, msg); resp != nil {
				responses = append(responses, resp)
			}
		}
		if len(responses) == 0 {
			return nil, nil
		}
		return json.Marshal(responses)
	}

	resp := p.handleOne(ctx, body)
	if resp == nil {
		return nil, nil
	}
	return json.Marshal(resp)
}

func (p *Provider) handleOne(ctx context.Context, msg json.RawMessage) *engine.Response {
	var req engine.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return parseError(err)
	}
	if req.Method == "" {
		return engine.NewResponse(req.ID, nil, &engine.Error{Code: engine.CodeInvalidRequest, Message: "method not set"})
	}

	result, err := p.Send(ctx, &req)
	if len(req.ID) == 0 {
		return nil
	}
	return engine.NewResponse(req.ID, result, err)
}

func parseError(err error) *engine.Response {
	return engine.NewResponse(nil, nil, &engine.Error{Code: engine.CodeParseError, Message: err.Error()})
}

// RoundTrip answers HTTP JSON-RPC requests in process, so any HTTP based client
// can use the provider as its transport.
func (p *Provider) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil {
		return nil, errors.New("request body not set")
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}

	out, err := p.HandleJSON(req.Context(), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode response")
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Content-Length", strconv.Itoa(len(out)))

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(out)),
		ContentLength: int64(len(out)),
		Request:       req,
	}, nil
}

// Client returns an ethclient whose requests run through the provider.
func (p *Provider) Client(ctx context.Context) (*ethclient.Client, error) {
	c, err := rpc.DialOptions(ctx, clientEndpoint, rpc.WithHTTPClient(&http.Client{Transport: p}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rpc client")
	}

	return ethclient.NewClient(c), nil
}
