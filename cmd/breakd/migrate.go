package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/break-social/internal/app"
	"github.com/d60-Lab/break-social/pkg/logger"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			if err := a.Migrate(); err != nil {
				return err
			}
			logger.Info("migration complete")
			return nil
		},
	}
}
