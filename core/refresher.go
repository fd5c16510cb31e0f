package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// LoadFunc computes a fresh growth result for a dataset.
type LoadFunc func(ctx context.Context) (schema.GrowthResult, error)

// Refresher holds the displayed growth result of one dataset.
// Every refresh takes a token at start; a commit carrying a token older than
// the displayed one is discarded, so the latest request always wins.
type Refresher struct {
	dataset string
	load    LoadFunc

	mu     sync.RWMutex
	next   int64 // last issued token
	shown  int64 // token of the displayed state
	state  schema.DashboardState
	result schema.GrowthResult
}

// NewRefresher creates a refresher in the loading state.
func NewRefresher(dataset string, load LoadFunc) *Refresher {
	return &Refresher{
		dataset: dataset,
		load:    load,
		state:   schema.DashboardState{Dataset: dataset, Status: schema.StatusLoading},
	}
}

// Dataset returns the dataset name.
func (r *Refresher) Dataset() string {
	return r.dataset
}

// Begin issues the token of a new refresh.
func (r *Refresher) Begin() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return r.next
}

// Commit publishes the outcome of the refresh holding token.
// It reports false when a newer refresh has already been committed.
// A failed refresh keeps the previous table in place.
func (r *Refresher) Commit(token int64, result schema.GrowthResult, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token <= r.shown {
		return false
	}
	r.shown = token

	r.state.RefreshedAt = time.Now()
	switch {
	case err == nil:
		r.result = result
		r.state.Status = schema.StatusOK
		r.state.Error = ""
		r.state.Table = result.Table
	case errors.Is(err, ErrNoData):
		r.result = schema.GrowthResult{Dataset: r.dataset}
		r.state.Status = schema.StatusEmpty
		r.state.Error = ""
		r.state.Table = schema.GrowthTable{}
	default:
		r.state.Status = schema.StatusError
		r.state.Error = err.Error()
	}
	return true
}

// Refresh recomputes the dataset and commits the outcome.
func (r *Refresher) Refresh(ctx context.Context) schema.DashboardState {
	token := r.Begin()
	result, err := r.load(ctx)
	if err != nil && !errors.Is(err, ErrNoData) {
		contract.LogWarn("Refresh of "+r.dataset+" failed", err)
	}
	r.Commit(token, result, err)
	return r.State()
}

// State returns a snapshot of the displayed state.
func (r *Refresher) State() schema.DashboardState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Result returns the displayed growth result.
func (r *Refresher) Result() schema.GrowthResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}
