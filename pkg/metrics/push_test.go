package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPush(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, b
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.RecordCheckpoint(42)

	require.NoError(t, Push(testContext(t), gateway.URL, reg))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/metrics/job/"+JobName, path)
	require.NotEmpty(t, body)
}

func TestPush_GatewayError(t *testing.T) {
	t.Parallel()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gateway.Close()

	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	err = Push(testContext(t), gateway.URL, reg)
	require.ErrorContains(t, err, "push metrics to "+gateway.URL)
}
