package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/imready-go/imready/internal/config"
	"github.com/imready-go/imready/pkg/metrics"
	"github.com/imready-go/imready/pkg/server"
	"github.com/imready-go/imready/pkg/tracing"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		dir     string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve readiness checks over HTTP and WebSocket",
		Long: `Serve starts the readiness server.

Endpoints:
  POST /check    check a document, respond when the batch settled
  GET  /ws       check a document, stream every milestone event
  GET  /healthz  liveness probe
  GET  /metrics  Prometheus metrics

Examples:
  imready serve
  imready serve --addr=:9000 --config=/etc/imready`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dir, verbose)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from imready.json)")
	cmd.Flags().StringVar(&dir, "config", ".", "Directory containing imready.json")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(addr, dir string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Addr()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	serverCfg := &server.Config{
		Address:      addr,
		Prefix:       cfg.Prefix,
		Tags:         cfg.Tags,
		CheckTimeout: cfg.BatchTimeout(),
		HTTPClient:   &http.Client{Timeout: cfg.BatchTimeout()},
		Metrics:      metrics.New(metrics.WithRegistry(registry)),
		Tracer:       tracing.New(),
		Gatherer:     registry,
	}

	if cfg.S3.Region != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		serverCfg.S3 = s3.NewFromConfig(awsCfg)
	}

	return server.New(serverCfg).Run()
}
