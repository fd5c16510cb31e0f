package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// Dashboard keeps one refresher per configured dataset for the long-running surfaces.
type Dashboard struct {
	cfg        *contract.Config
	src        contract.SnapshotSource
	mgr        contract.CacheManager
	names      []string
	refreshers map[string]*Refresher
}

// NewDashboard creates a dashboard over every configured dataset.
// Nothing is fetched until Refresh or Run is called.
func NewDashboard(cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) *Dashboard {
	d := &Dashboard{
		cfg:        cfg,
		src:        src,
		mgr:        mgr,
		names:      cfg.DatasetNames(),
		refreshers: make(map[string]*Refresher),
	}
	for _, name := range d.names {
		d.refreshers[name] = NewRefresher(name, func(ctx context.Context) (schema.GrowthResult, error) {
			return GetGrowthResult(WithSuppressHeader(ctx), cfg, src, mgr, name)
		})
	}
	return d
}

// Datasets returns the dataset names in sorted order.
func (d *Dashboard) Datasets() []string {
	return d.names
}

// Refresher returns the refresher of a dataset.
func (d *Dashboard) Refresher(dataset string) (*Refresher, error) {
	r, ok := d.refreshers[dataset]
	if !ok {
		return nil, fmt.Errorf("unknown dataset '%s'", dataset)
	}
	return r, nil
}

// Refresh recomputes one dataset.
func (d *Dashboard) Refresh(ctx context.Context, dataset string) (schema.DashboardState, error) {
	r, err := d.Refresher(dataset)
	if err != nil {
		return schema.DashboardState{}, err
	}
	return r.Refresh(ctx), nil
}

// RefreshAll recomputes every dataset concurrently and waits for all of them.
func (d *Dashboard) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range d.names {
		r := d.refreshers[name]
		wg.Go(func() {
			r.Refresh(ctx)
		})
	}
	wg.Wait()
}

// States returns the displayed state of every dataset.
func (d *Dashboard) States() []schema.DashboardState {
	out := make([]schema.DashboardState, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.refreshers[name].State())
	}
	return out
}

// Events returns the calendar events used to annotate series.
// A failed read is warned about and yields no events.
func (d *Dashboard) Events(ctx context.Context) []schema.CalendarEvent {
	events, err := cachedEvents(ctx, d.cfg, d.src, d.mgr)
	if err != nil {
		contract.LogWarn("Cannot read calendar events", err)
		return nil
	}
	return events
}

// Run performs the initial load and then refreshes every interval until ctx is done.
// A zero interval only performs the initial load.
func (d *Dashboard) Run(ctx context.Context, interval time.Duration) {
	d.RefreshAll(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RefreshAll(ctx)
		}
	}
}
