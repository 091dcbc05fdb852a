package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cellsim/internal/api/handlers"
	"cellsim/internal/api/middleware"
	"cellsim/internal/api/models"
	"cellsim/internal/logging"
	"cellsim/internal/report"
	"cellsim/internal/runs"

	"github.com/gin-gonic/gin"
)

// Options configures the router.
type Options struct {
	CellDir     string
	StaticDir   string
	CORSOrigins []string
	Thresholds  report.Thresholds
	Cache       *runs.Cache
}

// NewRouter wires middleware, API routes and optional static SPA serving.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.CORSOrigins))

	simulationHandler := handlers.NewSimulationHandler(opts.Cache, opts.CellDir, opts.Thresholds)
	cellHandler := handlers.NewCellHandler(opts.CellDir)
	controlHandler := handlers.NewControlHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cached_runs": opts.Cache.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulationHandler.RunSimulation)
		api.POST("/simulate/compare", simulationHandler.CompareSimulations)
		api.GET("/runs/:id/samples", simulationHandler.GetSamples)
		api.GET("/runs/:id/summary", simulationHandler.GetSummary)

		api.GET("/cells", cellHandler.ListCells)
		api.GET("/controls", controlHandler.ListControls)
	}

	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	}

	staticDir := opts.StaticDir
	if info, err := os.Stat(staticDir); staticDir != "" && err == nil && info.IsDir() {
		router.Static("/assets", filepath.Join(staticDir, "assets"))
		router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

		// Non-API paths fall through to index.html for client-side routing.
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				notFound(c)
				return
			}
			c.File(filepath.Join(staticDir, "index.html"))
		})
		logging.Logger.Info("serving static files", "static_dir", staticDir)
	} else {
		router.NoRoute(notFound)
		logging.Logger.Info("static directory not found, skipping static file serving", "static_dir", staticDir)
	}

	return router
}
