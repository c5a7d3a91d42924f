package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/observability"
	"github.com/matzehuels/pivotframe/pkg/server"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		shareBase string
		timeout   time.Duration
		noLibrary bool
		noCache   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API for encoding, simulating and rendering frames.

The server uses the configured cache for simulations and renders, and the
configured library for /api/v1/library unless --no-library is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") && c.Config.Server.Addr != "" {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("share-base") {
				shareBase = c.Config.Server.ShareBase
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var library storage.Store
			if !noLibrary {
				if library, err = c.openLibrary(ctx); err != nil {
					return err
				}
				defer library.Close(context.WithoutCancel(ctx))
			}

			stats := observability.NewCounters()
			observability.Register(stats)
			defer observability.Reset()

			srv := server.New(server.Config{
				Addr:      addr,
				ShareBase: shareBase,
				Timeout:   timeout,
				Stats:     stats,
			}, runner, library, c.Logger)

			c.Logger.Info("listening", "addr", addr, "library", !noLibrary, "cache", c.cacheLocation())
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&shareBase, "share-base", "", "editor URL share links are built on")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVar(&noLibrary, "no-library", false, "disable the library routes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
