package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookmydarshan/ragserver/internal/config"
	"github.com/bookmydarshan/ragserver/internal/server"
)

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ragserver HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			health := map[string]server.HealthChecker{
				"database": func(ctx context.Context) bool {
					return a.store.Ping(ctx) == nil
				},
				"embeddings": func(ctx context.Context) bool {
					return a.embedder.Healthy(ctx)
				},
			}
			if a.reranker != nil {
				health["reranker"] = func(ctx context.Context) bool {
					return a.reranker.Healthy(ctx)
				}
			}

			srv := server.New(server.Options{
				Config: server.Config{
					Addr:            cfg.Server.Addr(),
					ShutdownTimeout: cfg.Server.ShutdownTimeout,
				},
				Chatter:   a.chatter,
				Documents: a.documents,
				Processor: a.indexer,
				History:   a.history,
				Health:    health,
				Logger:    a.logger,
				Metrics:   a.metrics,
				Registry:  a.registry,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
