package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtxspy/internal/server"
)

// serveCommand creates the serve command, which runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cf        cacheFlags
		addr      string
		maxBodyMB int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render pipeline over HTTP",
		Long: `Serve the render pipeline over HTTP.

POST a Matrix Market file to /v1/render, /v1/bin or /v1/info. Options are
passed as query parameters, e.g. /v1/render?format=svg&legend=true.
The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") && c.config.Server.Addr != "" {
				addr = c.config.Server.Addr
			}
			if !cmd.Flags().Changed("max-body-mb") && c.config.Server.MaxBodyMB != 0 {
				maxBodyMB = c.config.Server.MaxBodyMB
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cf)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(runner, c.Logger, server.WithMaxBodyBytes(maxBodyMB<<20))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().Int64Var(&maxBodyMB, "max-body-mb", server.DefaultMaxBodyBytes>>20, "maximum upload size in MiB")
	cf.register(cmd)

	return cmd
}
