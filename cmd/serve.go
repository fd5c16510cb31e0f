package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fanpulse/fanpulse/internal/httpapi"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve growth results as a JSON API.",
	Long: `Start an HTTP server that keeps every dataset computed and serves it as JSON.

Routes:
  GET  /health
  GET  /api/datasets              refresh status of every dataset
  GET  /api/growth/:dataset       ?view=table|top|total|single|day&top=&entity=&day=&limit=
  POST /api/refresh/:dataset      recompute a dataset now
  GET  /api/events                ?category=&from=&to=
  GET  /api/survey                ?field=&year=&venue=&live=&limit=
  GET  /api/survey/lives          ?year=&venue=

A failed refresh keeps the previous result and reports status "error".

Examples:
  # Serve on :8080 and refresh every 10 minutes
  fanpulse serve --refresh-interval 10m

  # Serve on another port
  fanpulse serve --addr 127.0.0.1:9000`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return httpapi.Serve(ctx, cfg, snapshotSource, cacheManager)
	},
}
