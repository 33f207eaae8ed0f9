package main

import (
	"github.com/spf13/cobra"

	"blueprints/internal/platform/config"
)

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "blueprints",
		Short:         "Blueprint request service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "optional .env files loaded before the environment")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.envFiles...)
}
