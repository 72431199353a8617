package api

import (
	"github.com/gin-gonic/gin"

	"gobasket/internal/telemetry"
)

// NewRouter wires the handler routes. metrics may be nil.
func NewRouter(h *Handler, metrics *telemetry.Collector) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(h.Recover))
	if metrics != nil {
		router.Use(metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/dimensions", h.Dimensions)
		api.GET("/summary", h.Summary)
		api.GET("/support", h.Support)
		api.GET("/associations", h.Associations)
		api.POST("/rules", h.MineRules)
		api.GET("/rules/runs", h.ListRuns)
		api.GET("/rules/runs/:id", h.GetRun)
	}
	router.NoRoute(h.NoRoute)

	return router
}
