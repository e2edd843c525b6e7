// Package cmd is the beans command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-beans/framework/app"
	"github.com/km-arc/go-beans/framework/config"
)

type rootFlags struct {
	configFile string
	envFiles   []string
}

func (f *rootFlags) options() config.Options {
	return config.Options{ConfigFile: f.configFile, EnvFiles: f.envFiles}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "beans",
		Short: "A named-bean container and its lifecycle scenarios",
		Long: `beans runs bean lifecycle scenarios against the container and serves a
read-only HTTP view of a booted application's beans.

Configuration is read from .env files, an optional config file and BEANS_*
environment variables, in that order of increasing precedence.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "",
		"config file (yaml, json or toml)")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil,
		"env files to load (default: .env)")

	root.AddCommand(
		newRunCmd(flags),
		newListCmd(),
		newServeCmd(flags),
		newBeansCmd(flags),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
