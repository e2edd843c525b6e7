package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-beans/framework/app"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Boot the application and serve the bean inspector",
		Long: `Boot the application and serve a read-only JSON view of its beans:

  GET /health
  GET /beans?scope=singleton|prototype&lazy=&instantiated=&type=
  GET /beans/{name}
  GET /singletons

The server stops on SIGINT or SIGTERM and destroys all singletons.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, app.Options{Config: flags.options()})
			if err != nil {
				return err
			}
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return fmt.Errorf("--addr: %w", err)
				}
				a.Config().HTTP.Host, a.Config().HTTP.Port = host, port
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.host and http.port")
	return cmd
}
