package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/arrbot/bot/config"
	corecmd "github.com/m3rciful/arrbot/core/cmd"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	cmd := &cobra.Command{
		Use:          "arrbot",
		Short:        "Telegram front-end for Radarr, Sonarr, Readarr and Bazarr",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (default $"+configEnvVar+" or "+defaultConfigPath+").")

	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newUsersCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runnerOptions(cmd *cobra.Command) corecmd.Options {
	path, _ := cmd.Flags().GetString("config")
	return corecmd.Options{
		ConfigPath:        path,
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
	}
}

// loadConfig resolves the config path the same way serve does.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := corecmd.ResolveConfigPath(runnerOptions(cmd))
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}
