package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mchmarny/menued/pkg/logger"
	"github.com/mchmarny/menued/pkg/server"
	"github.com/mchmarny/menued/pkg/storage"
)

// StorageProbe reports readiness by reading the forest key.
type StorageProbe struct {
	KV  storage.KV
	Key string
}

// Ready implements server.ReadinessChecker. A missing key is ready: the
// forest is still the seed.
func (p StorageProbe) Ready(ctx context.Context) error {
	if _, err := p.KV.Get(ctx, p.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("storage not ready: %w", err)
	}
	return nil
}

// Run serves the API with health, readiness and metrics endpoints and blocks
// until ctx is canceled. Watchers are disconnected on return.
func (a *API) Run(ctx context.Context, probe StorageProbe, reg *prometheus.Registry, opt ...server.Option) error {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	opts := []server.Option{server.WithErrorLog(logger.NewLogLogger(slog.LevelWarn, false))}
	opts = append(opts, opt...)
	opts = append(opts,
		server.WithRegistry(reg),
		server.WithPrometheusMetrics(),
		server.WithSimpleHealth(),
		server.WithReadinessCheck(probe),
	)
	opts = append(opts, a.Options()...)

	srv := server.New(opts...)

	// hijacked websocket connections outlive http.Server.Shutdown
	go func() {
		<-ctx.Done()
		a.hub.stop()
	}()
	defer a.Close()

	return srv.Serve(ctx)
}
