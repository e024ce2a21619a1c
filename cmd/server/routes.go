package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes registers all HTTP routes on the router.
func setupRoutes(router *gin.Engine, api *apiServer, registry *prometheus.Registry) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/healthz")
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if err := api.db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		competitors, err := api.db.CountCompetitors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		comparisons, err := api.db.CountComparisons(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           "ready",
			"competitors":      competitors,
			"comparisons":      comparisons,
			"indexed_programs": api.index.Count(),
		})
	})

	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if api.cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			api.cfg.MetricsUsername: api.cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/college", api.handleSetCollege)
		apiGroup.GET("/college", api.handleGetCollege)

		apiGroup.GET("/competitors", api.handleListCompetitors)
		apiGroup.POST("/competitors/import", api.handleImportCompetitors)
		apiGroup.DELETE("/competitors/:id", api.handleDeleteCompetitor)

		apiGroup.POST("/analyze", api.handleAnalyze)

		apiGroup.GET("/report", api.handleReport)
		apiGroup.GET("/report/text", api.handleReportText)
		apiGroup.GET("/map", api.handleMap)

		apiGroup.GET("/programs/search", api.handleSearchPrograms)
	}
}
