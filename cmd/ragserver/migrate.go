package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookmydarshan/ragserver/internal/config"
	"github.com/bookmydarshan/ragserver/internal/store/pgvector"
)

func buildMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, err := pgvector.New(pgvector.Config{
				DSN:           cfg.Database.DSN,
				Dimension:     cfg.Database.Dimension,
				RunMigrations: true,
			})
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer store.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
