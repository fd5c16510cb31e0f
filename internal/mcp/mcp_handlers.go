package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/outwriter"
	"github.com/fanpulse/fanpulse/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	dash    *core.Dashboard
	baseCfg *contract.Config
	src     contract.SnapshotSource
	mgr     contract.CacheManager
}

// growthPayload is the state of a dataset plus the requested rendition of its result.
type growthPayload struct {
	State    schema.DashboardState  `json:"state"`
	Contract *schema.GrowthContract `json:"contract,omitempty"`
	Ranking  *schema.DayRanking     `json:"ranking,omitempty"`
	Series   []schema.Series        `json:"series,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// refresh recomputes a dataset. A failed fetch still yields the previous result with an error state.
func (h *toolHandler) refresh(ctx context.Context, dataset string) (schema.DashboardState, schema.GrowthResult, error) {
	r, err := h.dash.Refresher(dataset)
	if err != nil {
		return schema.DashboardState{}, schema.GrowthResult{}, err
	}
	state := r.Refresh(core.WithSuppressHeader(ctx))
	return state, r.Result(), nil
}

func (h *toolHandler) handleListDatasets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.dash.States())
}

func (h *toolHandler) handleGetGrowthTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := cfg.ApplyResultLimit(request.GetInt("limit", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	state, result, err := h.refresh(ctx, request.GetString("dataset", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := growthPayload{State: state}
	if !result.Table.IsEmpty() {
		body := outwriter.LimitTable(result.Table, cfg.ResultLimit).Contract()
		payload.Contract = &body
	}
	return jsonResult(payload)
}

func (h *toolHandler) handleGetDayRanking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := cfg.ApplyGrowthOptions(string(schema.DayView), 0, "", request.GetString("day", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := cfg.ApplyResultLimit(request.GetInt("limit", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	state, result, err := h.refresh(ctx, request.GetString("dataset", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := growthPayload{State: state}
	if !result.Table.IsEmpty() {
		day := cfg.Day
		if day == "" {
			day = result.Table.FinalDay()
		}
		ranking, ok := result.Table.DaySlice(day)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no data for day %s in dataset %s", day, result.Dataset)), nil
		}
		if cfg.ResultLimit > 0 && len(ranking.Entries) > cfg.ResultLimit {
			ranking.Entries = ranking.Entries[:cfg.ResultLimit]
		}
		payload.Ranking = &ranking
	}
	return jsonResult(payload)
}

func (h *toolHandler) handleGetGrowthSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	view := request.GetString("view", string(schema.TopView))
	if view == string(schema.TableView) || view == string(schema.DayView) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: view must be top, total or single (received %s)", view)), nil
	}
	err := cfg.ApplyGrowthOptions(view, request.GetInt("top", 0), request.GetString("entity", ""), "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	state, result, err := h.refresh(ctx, request.GetString("dataset", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := growthPayload{State: state}
	if !result.Table.IsEmpty() {
		result.Events = h.dash.Events(ctx)
		series, err := outwriter.SeriesForView(result, cfg.View, cfg.TopN, cfg.Entity)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload.Series = series
	}
	return jsonResult(payload)
}

func (h *toolHandler) handleGetSurveyBreakdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	err := cfg.ApplySurveyOptions(
		request.GetString("field", ""),
		request.GetInt("year", 0),
		request.GetString("venue", ""),
		request.GetString("live", ""),
	)
	if err == nil {
		err = cfg.ApplyResultLimit(request.GetInt("limit", 0))
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	breakdown, err := core.GetSurveyBreakdown(core.WithSuppressHeader(ctx), cfg, h.src, h.mgr)
	if errors.Is(err, core.ErrNoData) {
		return mcp.NewToolResultText(fmt.Sprintf("No survey answers for field %s with the given filter.", cfg.SurveyField)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("survey breakdown failed: %v", err)), nil
	}
	if cfg.ResultLimit > 0 && len(breakdown.Counts) > cfg.ResultLimit {
		breakdown.Counts = breakdown.Counts[:cfg.ResultLimit]
	}
	return jsonResult(breakdown)
}

func (h *toolHandler) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	err := cfg.ApplyEventOptions(
		request.GetString("category", ""),
		request.GetString("from", ""),
		request.GetString("to", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	events, err := core.GetEvents(core.WithSuppressHeader(ctx), cfg, h.src, h.mgr)
	if errors.Is(err, core.ErrNoData) {
		return jsonResult([]schema.CalendarEvent{})
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading events failed: %v", err)), nil
	}
	return jsonResult(events)
}
