package test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/api/router"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/provider"
)

// TestPrivateKey signs for TestAddress.
const (
	TestPrivateKey = "3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580"
	TestAddress    = "0xc515db5834d8f110eee96c3036854dbf1d87de2b"
)

// WithTestServer runs closure against a fully wired server whose provider signs
// with TestPrivateKey and forwards to a fresh Backend.
func WithTestServer(t *testing.T, closure func(s *api.Server, b *Backend)) {
	t.Helper()

	backend := NewBackend(t)

	p, err := provider.NewFromString(t.Context(), TestPrivateKey, backend.URL)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	s := api.NewServer(config.Server{ListenAddress: "127.0.0.1:0"}, p)
	router.Init(s)

	defer func() {
		if errs := s.Shutdown(t.Context()); len(errs) > 0 {
			t.Fatalf("failed to shutdown server: %v", errs)
		}
	}()

	closure(s, backend)
}

// PerformRequest serves a request against s without a network listener.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body []byte, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}
