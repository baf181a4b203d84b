// Package serve provides the command running the HTTP API.
package serve

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/internal/api"
	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/logger"
)

const connectionStatsInterval = 30 * time.Second

// Command creates the serve command.
func Command(ctx *config.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inventory HTTP API",
		Long:  "Serve the JSON API under /api/v2 together with /health and, when enabled, /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				ctx.Settings.WebServer.Listen = listen
			}
			return run(cmd.Context(), ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, overrides webserver.listen")

	return cmd
}

func run(parent context.Context, ctx *config.Context) error {
	svc, err := ctx.Service(parent)
	if err != nil {
		return err
	}

	server, err := api.New(ctx.Settings, svc,
		api.WithLogger(logger.Global().Module("api")),
		api.WithMetrics(ctx.Metrics))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(parent)
	defer cancel()
	go reportConnectionStats(runCtx, ctx)

	return server.StartWithGracefulShutdown(runCtx)
}

// reportConnectionStats refreshes the connection pool gauges until ctx ends.
func reportConnectionStats(ctx context.Context, appCtx *config.Context) {
	ticker := time.NewTicker(connectionStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if store := appCtx.Store(); store != nil {
				store.UpdateConnectionStats()
			}
		}
	}
}
