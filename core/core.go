// Package core has the orchestration of fetching, computing and presenting fan analytics.
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fanpulse/fanpulse/core/agg"
	"github.com/fanpulse/fanpulse/core/algo"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/outwriter"
	"github.com/fanpulse/fanpulse/schema"
)

// ErrNoData is returned when a computation has nothing to show.
var ErrNoData = errors.New("no data")

// ExecuteGrowth computes the growth table of a dataset and prints the configured view.
// It serves as the main entry point for the 'growth' command.
func ExecuteGrowth(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager, dataset string) error {
	start := time.Now()
	result, err := GetGrowthResult(ctx, cfg, src, mgr, dataset)
	if errors.Is(err, ErrNoData) {
		outwriter.PrintNoData(dataset)
		return nil
	}
	if err != nil {
		return err
	}

	if isSeriesView(cfg.View) {
		events, err := cachedEvents(ctx, cfg, src, mgr)
		if err != nil {
			contract.LogWarn("Cannot annotate series with calendar events", err)
		}
		result.Events = events
	}
	return outwriter.PrintGrowthResults(result, cfg, time.Since(start))
}

// ExecuteSurvey prints a survey breakdown, or the registered lives with --lives.
// It serves as the main entry point for the 'survey' command.
func ExecuteSurvey(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) error {
	start := time.Now()
	if cfg.ListLives {
		lives, err := GetLives(ctx, cfg, src, mgr)
		if errors.Is(err, ErrNoData) {
			outwriter.PrintNoData("lives")
			return nil
		}
		if err != nil {
			return err
		}
		return outwriter.PrintLives(lives, cfg)
	}

	breakdown, err := GetSurveyBreakdown(ctx, cfg, src, mgr)
	if errors.Is(err, ErrNoData) {
		outwriter.PrintNoData("survey " + string(cfg.SurveyField))
		return nil
	}
	if err != nil {
		return err
	}
	return outwriter.PrintSurveyBreakdown(breakdown, cfg, time.Since(start))
}

// ExecuteEvents prints the calendar events matching the configured filters.
// It serves as the main entry point for the 'events' command.
func ExecuteEvents(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) error {
	events, err := GetEvents(ctx, cfg, src, mgr)
	if errors.Is(err, ErrNoData) {
		outwriter.PrintNoData("events")
		return nil
	}
	if err != nil {
		return err
	}
	return outwriter.PrintEvents(events, cfg)
}

// GetGrowthResult fetches a dataset and runs the growth transform over it.
// The computation is recorded in the run history when one is configured.
func GetGrowthResult(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager, dataset string) (schema.GrowthResult, error) {
	mapping, err := cfg.Dataset(dataset)
	if err != nil {
		return schema.GrowthResult{}, err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogGrowthHeader(cfg, dataset)
	}

	start := time.Now()
	raws, err := cachedSnapshots(ctx, cfg, src, mgr, dataset, mapping)
	if err != nil {
		return schema.GrowthResult{}, err
	}

	table, issues := algo.ComputeGrowthTable(raws, cfg.Location)
	contract.LogIssues(dataset, issues)
	if table.IsEmpty() {
		return schema.GrowthResult{}, fmt.Errorf("%w for dataset %s", ErrNoData, dataset)
	}

	recordGrowthRun(cfg, mgr, dataset, table, start)
	return schema.GrowthResult{Dataset: dataset, Table: table, Issues: issues}, nil
}

// GetSurveyBreakdown fetches the survey responses and aggregates the configured field.
func GetSurveyBreakdown(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) (schema.SurveyBreakdown, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogSurveyHeader(cfg)
	}
	responses, err := cachedSurvey(ctx, cfg, src, mgr)
	if err != nil {
		return schema.SurveyBreakdown{}, err
	}
	breakdown := agg.BreakdownWithSynonyms(responses, cfg.SurveyField, cfg.SurveyFilter, cfg.Synonyms)
	if breakdown.Total == 0 {
		return breakdown, fmt.Errorf("%w for survey field %s", ErrNoData, cfg.SurveyField)
	}
	return breakdown, nil
}

// GetLives lists the lives with survey responses under the configured year and venue filter.
func GetLives(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) ([]schema.LiveOption, error) {
	responses, err := cachedSurvey(ctx, cfg, src, mgr)
	if err != nil {
		return nil, err
	}
	lives := agg.ListLives(responses, cfg.SurveyFilter)
	if len(lives) == 0 {
		return nil, fmt.Errorf("%w for lives", ErrNoData)
	}
	return lives, nil
}

// GetEvents fetches the calendar events matching the configured category and date range,
// ordered by date.
func GetEvents(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) ([]schema.CalendarEvent, error) {
	events, err := cachedEvents(ctx, cfg, src, mgr)
	if err != nil {
		return nil, err
	}
	filtered := FilterEvents(events, cfg.EventCategory, cfg.EventFrom, cfg.EventTo)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w for events", ErrNoData)
	}
	return filtered, nil
}

// FilterEvents keeps the events of a category within [from, to] and sorts them by date.
// Empty arguments do not filter.
func FilterEvents(events []schema.CalendarEvent, category schema.EventCategory, from, to string) []schema.CalendarEvent {
	out := make([]schema.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if category != "" && ev.Category != category {
			continue
		}
		if from != "" && ev.EventDate < from {
			continue
		}
		if to != "" && ev.EventDate > to {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventDate != out[j].EventDate {
			return out[i].EventDate < out[j].EventDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func isSeriesView(view schema.GrowthView) bool {
	return view == schema.TopView || view == schema.TotalView || view == schema.SingleView
}
