package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/arrbot/bot/app"
	"github.com/m3rciful/arrbot/bot/config"
	corecmd "github.com/m3rciful/arrbot/core/cmd"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := runnerOptions(cmd)
			opts.LoadConfig = func(path string) (corecmd.ConfigCarrier, error) {
				cfg, err := config.Load(path)
				if err != nil {
					return nil, err
				}
				return cfg, nil
			}
			opts.Bootstrap = func(c corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
				cfg, ok := c.(*config.Config)
				if !ok {
					return nil, fmt.Errorf("unexpected config type %T", c)
				}
				return app.Bootstrap(context.Background(), cfg)
			}
			return corecmd.Run(opts)
		},
	}
}
