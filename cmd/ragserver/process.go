package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookmydarshan/ragserver/internal/config"
)

func buildProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <document-id>",
		Short: "Chunk and embed a stored document",
		Args:  cobra.ExactArgs(1),
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

			count, err := a.indexer.ProcessDocument(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("process %s (wrote %d chunks): %w", args[0], count, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed %s: %d chunks\n", args[0], count)
			return nil
		},
	}
}
