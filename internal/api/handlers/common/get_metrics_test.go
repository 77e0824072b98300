package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/test"
)

func TestGetMetrics(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Backend) {
		res := test.PerformRequest(t, s, "POST", "/", []byte(`{"jsonrpc":"2.0","id":1,"method":"eth_accounts","params":[]}`), nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), `hdwallet_provider_rpc_requests_total{method="eth_accounts"} 1`)
		assert.Contains(t, res.Body.String(), "go_goroutines")
	})
}
