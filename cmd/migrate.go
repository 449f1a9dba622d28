package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abdabkim/webdevacademy/internal/infrastructure/schema"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := a.context(context.Background())
		if err := schema.Migrate(ctx, a.conn); err != nil {
			return err
		}
		a.logger.Info("Schema is up to date")
		return nil
	},
}
