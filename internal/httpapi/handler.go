package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/outwriter"
	"github.com/fanpulse/fanpulse/internal/source"
	"github.com/fanpulse/fanpulse/schema"
)

// Handler serves the API routes over a dashboard.
type Handler struct {
	dash    *core.Dashboard
	baseCfg *contract.Config
	src     contract.SnapshotSource
	mgr     contract.CacheManager
}

// NewHandler creates a handler. Query parameters override a clone of cfg per request.
func NewHandler(dash *core.Dashboard, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) *Handler {
	return &Handler{dash: dash, baseCfg: cfg, src: src, mgr: mgr}
}

// GrowthResponse is the body of GET /api/growth/:dataset.
// Exactly one of Contract, Ranking and Series is set once the dataset has data.
type GrowthResponse struct {
	State    schema.DashboardState  `json:"state"`
	View     schema.GrowthView      `json:"view"`
	Contract *schema.GrowthContract `json:"contract,omitempty"`
	Ranking  *schema.DayRanking     `json:"ranking,omitempty"`
	Series   []schema.Series        `json:"series,omitempty"`
}

// SurveyResponse is the body of GET /api/survey.
type SurveyResponse struct {
	Status    string                 `json:"status"`
	Breakdown schema.SurveyBreakdown `json:"breakdown"`
}

// respondError sends an error in the common shape and stops the handler chain.
func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondFetchError maps a failed read to a status code.
func respondFetchError(c *gin.Context, what string, err error) {
	var fetchErr *source.FetchError
	if errors.As(err, &fetchErr) {
		contract.LogWarn("Cannot read "+what, err)
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, err.Error())
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + " '" + raw + "'")
	}
	return n, nil
}

// ListDatasets reports the displayed state of every dataset.
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.States())
}

// GetGrowth returns the displayed result of a dataset in the requested view.
func (h *Handler) GetGrowth(c *gin.Context) {
	refresher, err := h.dash.Refresher(c.Param("dataset"))
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}

	cfg := h.baseCfg.Clone()
	top, err := queryInt(c, "top")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.ApplyGrowthOptions(c.Query("view"), top, c.Query("entity"), c.Query("day")); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.ApplyResultLimit(limit); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	resp := GrowthResponse{State: refresher.State(), View: cfg.View}
	result := refresher.Result()
	if result.Table.IsEmpty() {
		c.JSON(http.StatusOK, resp)
		return
	}

	switch cfg.View {
	case schema.DayView:
		day := cfg.Day
		if day == "" {
			day = result.Table.FinalDay()
		}
		ranking, ok := result.Table.DaySlice(day)
		if !ok {
			respondError(c, http.StatusNotFound, "no data for day "+day)
			return
		}
		if cfg.ResultLimit > 0 && len(ranking.Entries) > cfg.ResultLimit {
			ranking.Entries = ranking.Entries[:cfg.ResultLimit]
		}
		resp.Ranking = &ranking
	case schema.TopView, schema.TotalView, schema.SingleView:
		result.Events = h.dash.Events(c.Request.Context())
		series, err := outwriter.SeriesForView(result, cfg.View, cfg.TopN, cfg.Entity)
		if err != nil {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		resp.Series = series
	default:
		body := outwriter.LimitTable(result.Table, cfg.ResultLimit).Contract()
		resp.Contract = &body
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshDataset recomputes a dataset and returns its new state.
func (h *Handler) RefreshDataset(c *gin.Context) {
	state, err := h.dash.Refresh(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}

// ListEvents returns the calendar events matching the category and date range query.
func (h *Handler) ListEvents(c *gin.Context) {
	cfg := h.baseCfg.Clone()
	if err := cfg.ApplyEventOptions(c.Query("category"), c.Query("from"), c.Query("to")); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	events, err := core.GetEvents(core.WithSuppressHeader(c.Request.Context()), cfg, h.src, h.mgr)
	if errors.Is(err, core.ErrNoData) {
		c.JSON(http.StatusOK, []schema.CalendarEvent{})
		return
	}
	if err != nil {
		respondFetchError(c, "calendar events", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetSurvey returns the breakdown of a survey field.
func (h *Handler) GetSurvey(c *gin.Context) {
	cfg, ok := h.surveyConfig(c)
	if !ok {
		return
	}

	breakdown, err := core.GetSurveyBreakdown(core.WithSuppressHeader(c.Request.Context()), cfg, h.src, h.mgr)
	if errors.Is(err, core.ErrNoData) {
		c.JSON(http.StatusOK, SurveyResponse{Status: schema.StatusEmpty, Breakdown: breakdown})
		return
	}
	if err != nil {
		respondFetchError(c, "survey responses", err)
		return
	}
	if cfg.ResultLimit > 0 && len(breakdown.Counts) > cfg.ResultLimit {
		breakdown.Counts = breakdown.Counts[:cfg.ResultLimit]
	}
	c.JSON(http.StatusOK, SurveyResponse{Status: schema.StatusOK, Breakdown: breakdown})
}

// ListLives returns the lives that survey answers can be filtered by.
func (h *Handler) ListLives(c *gin.Context) {
	cfg, ok := h.surveyConfig(c)
	if !ok {
		return
	}

	lives, err := core.GetLives(core.WithSuppressHeader(c.Request.Context()), cfg, h.src, h.mgr)
	if errors.Is(err, core.ErrNoData) {
		c.JSON(http.StatusOK, []schema.LiveOption{})
		return
	}
	if err != nil {
		respondFetchError(c, "survey responses", err)
		return
	}
	c.JSON(http.StatusOK, lives)
}

// surveyConfig applies the survey query parameters. On failure the response is already written.
func (h *Handler) surveyConfig(c *gin.Context) (*contract.Config, bool) {
	cfg := h.baseCfg.Clone()
	year, err := queryInt(c, "year")
	if err == nil {
		var limit int
		if limit, err = queryInt(c, "limit"); err == nil {
			err = cfg.ApplyResultLimit(limit)
		}
	}
	if err == nil {
		err = cfg.ApplySurveyOptions(c.Query("field"), year, c.Query("venue"), c.Query("live"))
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return cfg, true
}
