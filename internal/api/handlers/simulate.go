package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cellsim/internal/api/models"
	"cellsim/internal/config"
	"cellsim/internal/cycle"
	"cellsim/internal/logging"
	"cellsim/internal/model"
	"cellsim/internal/report"
	"cellsim/internal/runs"

	"github.com/gin-gonic/gin"
)

var errUnknownCell = errors.New("unknown cell")

// SimulationHandler handles simulation requests
type SimulationHandler struct {
	engine     *cycle.Engine
	cache      *runs.Cache
	cellDir    string
	thresholds report.Thresholds
}

// NewSimulationHandler creates a new simulation handler. cache may be nil,
// in which case the run endpoints always answer RUN_NOT_FOUND.
func NewSimulationHandler(cache *runs.Cache, cellDir string, thresholds report.Thresholds) *SimulationHandler {
	return &SimulationHandler{
		engine:     cycle.New(),
		cache:      cache,
		cellDir:    cellDir,
		thresholds: thresholds,
	}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	entry, cached, err := h.simulate(c.Request.Context(), req.SimulationConfig)
	if err != nil {
		status, detail := classifyError(err)
		c.JSON(status, models.ErrorResponse{Error: detail})
		return
	}

	resp := models.SimulateResponse{
		ID:      entry.ID,
		Status:  "completed",
		Cached:  cached,
		Summary: models.NewSummary(entry.Summary),
		Health:  models.NewHealth(entry.Health),
	}
	if req.Options.IncludeSamples {
		resp.Samples = models.NewSamples(report.Downsample(entry.Report.Samples, req.Options.MaxPoints))
	}
	c.JSON(http.StatusOK, resp)
}

// GetSamples handles GET /api/v1/runs/:id/samples
func (h *SimulationHandler) GetSamples(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	maxPoints, err := strconv.Atoi(c.DefaultQuery("max_points", "0"))
	if err != nil || maxPoints < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "max_points must be a non-negative integer",
			},
		})
		return
	}
	samples := report.Downsample(entry.Report.Samples, maxPoints)

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, models.SamplesResponse{
			ID:         entry.ID,
			TotalCount: len(entry.Report.Samples),
			Samples:    models.NewSamples(samples),
		})
	case "csv":
		writeCSV(c, entry.ID+"_samples.csv", func() error {
			return report.WriteSamplesCSV(c.Writer, samples)
		})
	default:
		invalidFormat(c)
	}
}

// GetSummary handles GET /api/v1/runs/:id/summary
func (h *SimulationHandler) GetSummary(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"id":      entry.ID,
			"summary": models.NewSummary(entry.Summary),
			"health":  models.NewHealth(entry.Health),
		})
	case "csv":
		writeCSV(c, entry.ID+"_summary.csv", func() error {
			return report.WriteSummaryCSV(c.Writer, entry.Summary)
		})
	default:
		invalidFormat(c)
	}
}

// CompareSimulations handles POST /api/v1/simulate/compare
func (h *SimulationHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		cfg := mergeVariation(req.BaseConfig, variation.Config)
		entry, _, err := h.simulate(c.Request.Context(), cfg)
		if err != nil {
			_, detail := classifyError(err)
			comparison = append(comparison, models.ComparisonResult{
				Name:  variation.Name,
				Error: &detail,
			})
			continue
		}
		summary := models.NewSummary(entry.Summary)
		comparison = append(comparison, models.ComparisonResult{
			Name:    variation.Name,
			ID:      entry.ID,
			Summary: &summary,
		})
	}

	c.JSON(http.StatusOK, models.CompareResponse{
		Comparison: comparison,
	})
}

// Helper methods

func (h *SimulationHandler) simulate(ctx context.Context, cfg models.SimulationConfig) (runs.Entry, bool, error) {
	profile, spec, step, err := h.buildInputs(cfg)
	if err != nil {
		return runs.Entry{}, false, err
	}

	id := runs.Key(profile, spec, step)
	if entry, ok := h.cache.Get(id); ok {
		return entry, true, nil
	}

	start := time.Now()
	rep, err := h.engine.Run(ctx, profile, spec, step)
	if err != nil {
		logging.Logger.Warn("simulation rejected", "cell", profile.Name, "error", err)
		return runs.Entry{}, false, err
	}

	summary := report.Summarize(rep)
	last, _ := rep.Last()
	entry := runs.Entry{
		ID:      id,
		Report:  rep,
		Summary: summary,
		Health:  report.Assess(profile, summary, last, h.thresholds),
	}
	h.cache.Put(entry)

	logging.Logger.Info("simulation completed",
		"id", id,
		"cell", profile.Name,
		"mode", spec.Mode,
		"control", spec.Control,
		"samples", len(rep.Samples),
		"stop_reason", rep.StopReason,
		"took", time.Since(start),
	)
	return entry, false, nil
}

func (h *SimulationHandler) buildInputs(cfg models.SimulationConfig) (model.CellProfile, model.TestSpec, time.Duration, error) {
	cell := cfg.Cell
	if cfg.CellID != "" {
		base, err := config.ResolveCellRef(h.cellDir, cfg.CellID)
		if err != nil {
			return model.CellProfile{}, model.TestSpec{}, 0, fmt.Errorf("%w: %v", errUnknownCell, err)
		}
		cell = config.MergeCell(base, cfg.Cell)
	}

	rc := config.Config{
		Cell:        cell,
		Test:        cfg.Test.ToConfig(),
		StepSeconds: cfg.StepSeconds,
	}
	rc.ApplyDefaults()

	spec, err := rc.Test.ToModelSpec()
	if err != nil {
		return model.CellProfile{}, model.TestSpec{}, 0, err
	}
	return rc.Cell.ToModelProfile(), spec, rc.Step(), nil
}

func (h *SimulationHandler) lookup(c *gin.Context) (runs.Entry, bool) {
	id := c.Param("id")
	entry, ok := h.cache.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: fmt.Sprintf("run %q not found or expired; re-run the simulation", id),
			},
		})
		return runs.Entry{}, false
	}
	return entry, true
}

func mergeVariation(base models.SimulationConfig, override models.VariationConfig) models.SimulationConfig {
	merged := base
	if override.CellID != "" {
		merged.CellID = override.CellID
	}
	merged.Cell = config.MergeCell(base.Cell, override.Cell)
	merged.Test = override.Test.Apply(base.Test)
	if override.StepSeconds != 0 {
		merged.StepSeconds = override.StepSeconds
	}
	return merged
}

// classifyError maps simulation errors onto HTTP statuses and error codes.
func classifyError(err error) (int, models.ErrorDetail) {
	var specErr *model.SpecError
	var stateErr *model.StateError

	switch {
	case errors.Is(err, errUnknownCell):
		return http.StatusBadRequest, models.ErrorDetail{Code: "UNKNOWN_CELL", Message: err.Error()}
	case errors.As(err, &specErr):
		return http.StatusBadRequest, models.ErrorDetail{
			Code:    "INVALID_SPEC",
			Message: err.Error(),
			Details: map[string]interface{}{"field": specErr.Field},
		}
	case errors.Is(err, model.ErrInvalidSpec):
		return http.StatusBadRequest, models.ErrorDetail{Code: "INVALID_SPEC", Message: err.Error()}
	case errors.As(err, &stateErr):
		return http.StatusUnprocessableEntity, models.ErrorDetail{
			Code:    "DIVERGENT_STATE",
			Message: err.Error(),
			Details: map[string]interface{}{"step": stateErr.Step, "t_s": stateErr.T},
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, models.ErrorDetail{Code: "SIMULATION_ABORTED", Message: err.Error()}
	default:
		return http.StatusInternalServerError, models.ErrorDetail{Code: "SIMULATION_ERROR", Message: err.Error()}
	}
}

func writeCSV(c *gin.Context, filename string, write func() error) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := write(); err != nil {
		logging.Logger.Error("csv write failed", "file", filename, "error", err)
	}
}

func invalidFormat(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_FORMAT",
			Message: "format must be json or csv",
		},
	})
}
