package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/menued/pkg/metric"
)

type readiness struct{ err error }

func (r readiness) Ready(context.Context) error { return r.err }

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func start(t *testing.T, opts ...Option) (Server, string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(append([]Option{WithListener(l)}, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)
	return srv, "http://" + srv.Addr()
}

func TestServeProbesAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metric.NewOperationsCounter(reg).Increment("add", "ok")

	_, base := start(t,
		WithRegistry(reg),
		WithPrometheusMetrics(),
		WithSimpleHealth(),
		WithReadinessCheck(readiness{}),
		WithHandler("GET /hello", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("hi"))
		})),
	)

	code, body := get(t, base+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, _ = get(t, base+"/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "menued_operations_total")

	code, body = get(t, base+"/hello")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hi", body)
}

func TestReadinessFailure(t *testing.T) {
	_, base := start(t, WithReadinessCheck(readiness{err: errors.New("storage unreachable")}))

	code, body := get(t, base+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "storage unreachable", body)
}

func TestNotRunningBeforeServe(t *testing.T) {
	srv := New(WithPort(4321))
	assert.False(t, srv.IsRunning())
	assert.Equal(t, ":4321", srv.Addr())
}

func TestOptions(t *testing.T) {
	srv := New(
		WithPort(8080),
		WithReadTimeout(time.Second),
		WithWriteTimeout(2*time.Second),
		WithIdleTimeout(3*time.Second),
		WithShutdownTimeout(4*time.Second),
		WithMaxHeaderBytes(512),
		WithTLS(TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}),
	).(*server)

	assert.Equal(t, 8080, srv.port)
	assert.Equal(t, time.Second, srv.readTimeout)
	assert.Equal(t, 2*time.Second, srv.writeTimeout)
	assert.Equal(t, 3*time.Second, srv.idleTimeout)
	assert.Equal(t, 4*time.Second, srv.shutdownTimeout)
	assert.Equal(t, 512, srv.maxHeaderBytes)
	assert.Equal(t, &TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}, srv.tlsConfig)
}

func TestServeMissingCertificate(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(WithListener(l), WithTLS(TLSConfig{CertFile: "missing.pem", KeyFile: "missing.key"}))
	err = srv.Serve(context.Background())
	assert.ErrorContains(t, err, "failed to load TLS certificate")
	assert.False(t, srv.IsRunning())
}
