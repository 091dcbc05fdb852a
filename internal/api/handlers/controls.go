package handlers

import (
	"net/http"

	"cellsim/internal/api/models"
	"cellsim/internal/config"
	"cellsim/internal/model"

	"github.com/gin-gonic/gin"
)

// ControlHandler describes the supported test controls
type ControlHandler struct{}

// NewControlHandler creates a new control handler
func NewControlHandler() *ControlHandler {
	return &ControlHandler{}
}

var commonParameters = []models.ParameterInfo{
	{
		Name:        "mode",
		Type:        "string",
		Description: "Test direction: charge or discharge",
		Default:     "charge",
	},
	{
		Name:        "initial_soc",
		Type:        "float",
		Description: "State of charge at t=0 (0..1)",
		Default:     0.0,
	},
	{
		Name:        "ambient_c",
		Type:        "float",
		Description: "Starting cell temperature in °C",
		Default:     model.DefaultAmbientC,
	},
	{
		Name:        "max_temperature_c",
		Type:        "float",
		Description: "Optional safety stop when the temperature estimate reaches this value",
	},
	{
		Name:        "max_duration",
		Type:        "string",
		Description: "Optional safety stop on elapsed time (Go duration, e.g. 2h30m)",
	},
	{
		Name:        "max_capacity_ah",
		Type:        "float",
		Description: "Optional safety stop on the charge moved, in Ah",
	},
	{
		Name:        "step_seconds",
		Type:        "float",
		Description: "Integration step in seconds",
		Default:     config.DefaultStepSeconds,
	},
}

// ListControls handles GET /api/v1/controls
func (h *ControlHandler) ListControls(c *gin.Context) {
	controls := []models.ControlInfo{
		{
			Name:        string(model.ControlCurrent),
			Unit:        model.ControlCurrent.Unit(),
			Description: "Constant current. Runs until the voltage cutoff unless an earlier stop is set.",
			StopKinds:   []string{string(model.StopTime), string(model.StopVoltage), string(model.StopSoC)},
			Parameters:  withTarget("Current magnitude in A"),
		},
		{
			Name:        string(model.ControlVoltage),
			Unit:        model.ControlVoltage.Unit(),
			Description: "Constant voltage. Current tapers as the cell approaches the held voltage; stop on time, soc or taper current.",
			StopKinds:   []string{string(model.StopTime), string(model.StopSoC), string(model.StopCurrent)},
			Parameters:  withTarget("Held terminal voltage in V, within the cell cutoffs"),
		},
		{
			Name:        string(model.ControlPower),
			Unit:        model.ControlPower.Unit(),
			Description: "Constant power at the terminals. Discharge power is limited to OCV²/4R.",
			StopKinds:   []string{string(model.StopTime), string(model.StopVoltage), string(model.StopSoC)},
			Parameters:  withTarget("Power magnitude in W"),
		},
		{
			Name:        string(model.ControlCCCV),
			Unit:        model.ControlCCCV.Unit(),
			Description: "Constant current until the terminal voltage reaches voltage_limit, then a constant-voltage hold; stop on time, soc or taper current.",
			StopKinds:   []string{string(model.StopTime), string(model.StopSoC), string(model.StopCurrent)},
			Parameters: append(withTarget("Current magnitude in A during the constant-current phase"), models.ParameterInfo{
				Name:        "voltage_limit",
				Type:        "float",
				Description: "Hold voltage in V, within the cell cutoffs",
			}),
		},
		{
			Name:        string(model.ControlRest),
			Description: "No current. The cell holds its state; only elapsed time ends a rest.",
			StopKinds:   []string{string(model.StopTime)},
			Parameters:  commonParameters[1:],
		},
	}

	c.JSON(http.StatusOK, gin.H{"controls": controls})
}

func withTarget(desc string) []models.ParameterInfo {
	params := []models.ParameterInfo{{
		Name:        "target",
		Type:        "float",
		Description: desc,
	}}
	return append(params, commonParameters...)
}
