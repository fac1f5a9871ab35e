package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/arrbot/core/bootstrap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Host == "" {
				return fmt.Errorf("database.host is not configured")
			}
			res, err := bootstrap.Run(bootstrap.Options{
				Config:      cfg.CoreConfig(),
				Database:    cfg.Database,
				UseDatabase: true,
			})
			if err != nil {
				return err
			}
			_ = res.Close()
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
