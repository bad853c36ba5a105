package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-plugin/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plugin as an MCP server over stdio",
		Long: `Run the plugin as an MCP (Model Context Protocol) server. Requests are read
from stdin and responses written to stdout, one JSON-RPC message per line.

The OCR engine is loaded before the first request is read; if it cannot be
loaded the command exits with an error.

Examples:
  ocr-plugin serve
  ocr-plugin serve --languages en,de --metrics-addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, cmd)
		},
	}

	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	_ = a.v.BindPFlag("server.metrics_addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func (a *app) runServe(ctx context.Context, cmd *cobra.Command) error {
	a.logger.Info("starting OCR plugin server",
		"version", a.build.Version, "commit", a.build.GitCommit, "built", a.build.BuildTime)

	p, err := a.newPlugin()
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			a.logger.Warn("failed to close OCR engine", "error", err)
		}
	}()

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		metrics := startMetricsServer(addr, a)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metrics.Shutdown(shutdownCtx)
		}()
	}

	srv := server.New(p, server.Options{
		Version:        a.build.Version,
		Overlay:        a.cfg.ToOverlayOptions(),
		TessdataPrefix: a.cfg.OCR.TessdataPrefix,
		Logger:         a.logger,
	})

	err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		a.logger.Info("server stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startMetricsServer serves /metrics in the background.
func startMetricsServer(addr string, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
