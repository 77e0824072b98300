package probe_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/cmd/probe"
)

func TestProbes(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(521)
			return
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")

	for _, name := range []string{"liveness", "readiness"} {
		cmd := probe.New()
		cmd.SetArgs([]string{name, "--addr", addr})
		require.NoError(t, cmd.Execute(), name)
	}

	ready.Store(false)
	cmd := probe.New()
	cmd.SetArgs([]string{"readiness", "--addr", addr})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 521")
}
