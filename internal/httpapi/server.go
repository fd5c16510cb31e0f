package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/internal/contract"
)

// shutdownTimeout bounds how long in-flight requests may finish after ctx is done.
const shutdownTimeout = 5 * time.Second

// Serve runs the API on cfg.ServeAddr and refreshes the dashboard every cfg.RefreshInterval.
// It returns when ctx is done or the listener fails.
func Serve(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) error {
	dash := core.NewDashboard(cfg, src, mgr)
	srv := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           NewRouter(dash, cfg, src, mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go dash.Run(ctx, cfg.RefreshInterval)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "Serving %s on %s\n", cfg.DatasetNames(), cfg.ServeAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
