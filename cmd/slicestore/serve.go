package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/slicestore/pkg/server"
)

func serveCmd(opts *cliOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a todo store over HTTP and WebSocket",
		Long: `Serve a todo store over HTTP and WebSocket.

Routes:
  POST /dispatch   dispatch one JSON action
  GET  /state      current state
  GET  /ws         live state feed; send actions as text frames
  GET  /metrics    Prometheus metrics (if enabled)

Examples:
  slicestore serve
  slicestore serve --addr=:8080
  curl -d '{"type":"ADD","target":"toDoList","payload":{"id":"item-1","value":"milk"}}' localhost:7070/dispatch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Server.Address = addr
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from slicestore.json)")

	return cmd
}

func runServe(ctx context.Context, opts *cliOptions) error {
	cfg := opts.cfg
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	srvConfig := &server.ServerConfig{
		Address:        cfg.Server.Address,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxMessageSize: cfg.Server.MaxMessageSize,
		MetricsPath:    cfg.Metrics.Path,
		Metrics:        a.metrics,
	}
	if a.registry != nil {
		srvConfig.MetricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}
	srv := server.New(a.store, srvConfig)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	success("Serving on http://%s", cfg.Server.Address)
	if a.registry != nil {
		info("metrics at %s", cfg.Metrics.Path)
	}
	return srv.Run(ctx)
}
