package handlers

import (
	"net/http"
	"os"

	"cellsim/internal/api/models"
	"cellsim/internal/config"
	"cellsim/internal/logging"

	"github.com/gin-gonic/gin"
)

// CellHandler lists cell presets
type CellHandler struct {
	cellDir string
}

// NewCellHandler creates a new cell handler
func NewCellHandler(cellDir string) *CellHandler {
	logging.Logger.Info("cell handler configured", "cell_dir", cellDir)
	return &CellHandler{cellDir: cellDir}
}

// ListCells handles GET /api/v1/cells
func (h *CellHandler) ListCells(c *gin.Context) {
	entries := config.BuiltInCells()

	if h.cellDir != "" {
		loaded, skipped, err := config.LoadCellDir(h.cellDir)
		switch {
		case err == nil:
			entries = append(entries, loaded...)
		case os.IsNotExist(err):
			logging.Logger.Debug("cell directory missing", "cell_dir", h.cellDir)
		default:
			logging.Logger.Warn("cell directory unreadable", "cell_dir", h.cellDir, "error", err)
		}
		for file, serr := range skipped {
			logging.Logger.Warn("skipping cell file", "file", file, "error", serr)
		}
	}

	cells := make([]models.CellInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Cell.Name
		if name == "" {
			name = e.ID
		}
		cells = append(cells, models.CellInfo{
			ID:        e.ID,
			Name:      name,
			Chemistry: e.Cell.Chemistry,
			BuiltIn:   e.BuiltIn,
			File:      e.File,
			Specs: models.CellSpecs{
				CapacityAh:            e.Cell.CapacityAh,
				NominalVoltage:        e.Cell.NominalVoltage,
				InternalResistanceOhm: e.Cell.InternalResistanceOhm,
				LowerCutoffV:          e.Cell.LowerCutoffV,
				UpperCutoffV:          e.Cell.UpperCutoffV,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"cells": cells})
}
