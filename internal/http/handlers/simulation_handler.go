// README: Simulation handlers; triggering a run and shaping its response.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdship/internal/modules/runs"
	"crowdship/internal/service"
)

type SimulationHandler struct {
	runner *service.Runner
}

func NewSimulationHandler(runner *service.Runner) *SimulationHandler {
	return &SimulationHandler{runner: runner}
}

type runSimulationReq struct {
	Preset      string `json:"preset"`
	Seed        *int64 `json:"seed"`
	Orders      *int   `json:"orders"`
	PricingMode string `json:"pricing_mode"`
	WageMode    string `json:"wage_mode"`
	Bundling    *bool  `json:"bundling"`
}

// Run executes one simulation synchronously and returns its summary. Runs at
// default scale complete well inside a request timeout.
func (h *SimulationHandler) Run(c *gin.Context) {
	var req runSimulationReq
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}

	run, err := h.runner.Execute(c.Request.Context(), service.RunRequest{
		Preset:      req.Preset,
		Seed:        req.Seed,
		Orders:      req.Orders,
		PricingMode: req.PricingMode,
		WageMode:    req.WageMode,
		Bundling:    req.Bundling,
	})
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, runResponse(run))
}

func runResponse(r *runs.Run) gin.H {
	return gin.H{
		"run_id":     r.ID,
		"created_at": r.CreatedAt,
		"preset":     r.Preset,
		"seed":       r.Seed,
		"orders":     r.Orders,
		"drivers":    r.Drivers,
		"summary": gin.H{
			"delivered":       r.Summary.Delivered,
			"expired":         r.Summary.Expired,
			"cancelled":       r.Summary.Cancelled,
			"match_rate":      r.Summary.MatchRate,
			"on_time_rate":    r.Summary.OnTimeRate,
			"revenue":         r.Summary.Revenue,
			"profit":          r.Summary.Profit,
			"driver_earnings": r.Summary.DriverEarnings,
			"fleet_cost":      r.Summary.FleetCost,
			"emissions_kg":    r.Summary.EmissionsKg,
			"avg_detour_km":   r.Summary.AvgDetourKm,
		},
	}
}
