// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/internal/contract"
)

// NewMCPServer initializes and configures the fanpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) *server.MCPServer {
	return newMCPServer(core.NewDashboard(baseCfg, src, mgr), baseCfg, src, mgr)
}

func newMCPServer(dash *core.Dashboard, baseCfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Fanpulse Analytics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		dash:    dash,
		baseCfg: baseCfg,
		src:     src,
		mgr:     mgr,
	}
	datasets := baseCfg.DatasetNames()

	// --- 1. Tool: list_datasets ---
	s.AddTool(mcp.NewTool("list_datasets",
		mcp.WithDescription("List the configured datasets with their refresh status (loading, ok, empty, error)."),
	), h.handleListDatasets)

	// --- 2. Tool: get_growth_table ---
	s.AddTool(mcp.NewTool("get_growth_table",
		mcp.WithDescription("Recompute a dataset and return its daily growth table: per-entity values, deltas, ranks and rank changes by day."),
		mcp.WithString("dataset", mcp.Description("Dataset to compute."), mcp.Required(), mcp.Enum(datasets...)),
		mcp.WithNumber("limit", mcp.Description("Limit the number of entities returned. Totals still cover every entity.")),
	), h.handleGetGrowthTable)

	// --- 3. Tool: get_day_ranking ---
	s.AddTool(mcp.NewTool("get_day_ranking",
		mcp.WithDescription("Return the growth ranking of a single day (defaults to the latest day)."),
		mcp.WithString("dataset", mcp.Description("Dataset to compute."), mcp.Required(), mcp.Enum(datasets...)),
		mcp.WithString("day", mcp.Description("Day in YYYY-MM-DD.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of entries returned.")),
	), h.handleGetDayRanking)

	// --- 4. Tool: get_growth_series ---
	s.AddTool(mcp.NewTool("get_growth_series",
		mcp.WithDescription("Return chart series of daily growth, annotated with calendar events falling on each day."),
		mcp.WithString("dataset", mcp.Description("Dataset to compute."), mcp.Required(), mcp.Enum(datasets...)),
		mcp.WithString("view", mcp.Description("Series view (top, total, single). Defaults to 'top'."), mcp.Enum("top", "total", "single")),
		mcp.WithNumber("top", mcp.Description("Number of entities in the top view.")),
		mcp.WithString("entity", mcp.Description("Entity key or display name for the single view.")),
	), h.handleGetGrowthSeries)

	// --- 5. Tool: get_survey_breakdown ---
	s.AddTool(mcp.NewTool("get_survey_breakdown",
		mcp.WithDescription("Aggregate survey answers of one field into counts and shares."),
		mcp.WithString("field", mcp.Description("Survey field. Defaults to 'song'."), mcp.Enum("song", "visits", "prefecture", "age", "gender")),
		mcp.WithNumber("year", mcp.Description("Only count responses of lives in this year.")),
		mcp.WithString("venue", mcp.Description("Only count responses of this venue type."), mcp.Enum("LIVE HOUSE", "HALL", "ARENA", "FES", "OTHER")),
		mcp.WithString("live", mcp.Description("Only count responses of this live (<date>_<name>).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of answers returned.")),
	), h.handleGetSurveyBreakdown)

	// --- 6. Tool: list_events ---
	s.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events (lives, releases, TV appearances) by date."),
		mcp.WithString("category", mcp.Description("Event category."), mcp.Enum("LIVE", "RELEASE", "TV", "OTHER")),
		mcp.WithString("from", mcp.Description("First day in YYYY-MM-DD.")),
		mcp.WithString("to", mcp.Description("Last day in YYYY-MM-DD.")),
	), h.handleListEvents)

	return s
}

// StartMCPServer serves the fanpulse tools over stdio.
// Datasets are also refreshed in the background every cfg.RefreshInterval.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) error {
	dash := core.NewDashboard(baseCfg, src, mgr)
	go dash.Run(ctx, baseCfg.RefreshInterval)

	s := newMCPServer(dash, baseCfg, src, mgr)
	return server.ServeStdio(s)
}
