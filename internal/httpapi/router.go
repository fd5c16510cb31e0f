// Package httpapi serves the dashboard state and growth results as a JSON API.
package httpapi

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/internal/contract"
)

// NewRouter registers every route of the API on a fresh engine.
func NewRouter(dash *core.Dashboard, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stderr), gin.Recovery())

	h := NewHandler(dash, cfg, src, mgr)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/datasets", h.ListDatasets)
	api.GET("/growth/:dataset", h.GetGrowth)
	api.POST("/refresh/:dataset", h.RefreshDataset)
	api.GET("/events", h.ListEvents)
	api.GET("/survey", h.GetSurvey)
	api.GET("/survey/lives", h.ListLives)
	return r
}
