package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mchmarny/menued/pkg/api"
	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/mcp"
	"github.com/mchmarny/menued/pkg/metric"
	"github.com/mchmarny/menued/pkg/server"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) serveCommand() *cobra.Command {
	var (
		port     int
		certFile string
		keyFile  string
		withMCP  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor HTTP API, websocket watch stream and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Port
			}
			if (certFile == "") != (keyFile == "") {
				return errors.New("--tls-cert and --tls-key must be set together")
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			reg := prometheus.NewRegistry()
			w, err := a.open(ctx, metric.NewOperationsCounter(reg))
			if err != nil {
				return err
			}
			defer w.Close()

			session := editor.NewSession(w.editor)
			defer session.Close()

			opts := []server.Option{server.WithPort(port)}
			if certFile != "" {
				opts = append(opts, server.WithTLS(server.TLSConfig{CertFile: certFile, KeyFile: keyFile}))
			}
			if withMCP {
				opts = append(opts, server.WithHandler(mcp.Endpoint, mcp.NewHTTPHandler(mcp.NewServer(w.editor, a.info.Version))))
			}

			slog.Info("starting menued",
				"version", a.info.Version,
				"commit", a.info.Commit,
				"store", a.cfg.Store,
				"key", a.cfg.Key)

			probe := api.StorageProbe{KV: w.kv, Key: a.cfg.Key}
			return api.New(w.editor, session).Run(ctx, probe, reg, opts...)
		},
	}
	cmd.Flags().IntVar(&port, "port", server.DefaultPort, "HTTP port (default from MENUED_PORT or 9876)")
	cmd.Flags().StringVar(&certFile, "tls-cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&keyFile, "tls-key", "", "TLS key file")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "Also serve the MCP tools at /mcp")
	return cmd
}

func (a *app) mcpCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the menu tools over MCP (stdio by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			w, err := a.open(ctx, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			s := mcp.NewServer(w.editor, a.info.Version)
			if port == 0 {
				slog.Info("serving mcp over stdio")
				return mcp.ServeStdio(s)
			}

			return server.New(
				server.WithPort(port),
				server.WithSimpleHealth(),
				server.WithHandler(mcp.Endpoint, mcp.NewHTTPHandler(s)),
			).Serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "http-port", 0, "Serve streamable HTTP at /mcp on this port instead of stdio")
	return cmd
}
