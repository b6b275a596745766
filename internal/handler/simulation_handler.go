package handler

import (
	"errors"
	"net/http"

	"er-patient-tracking/internal/service"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type SimulationHandler struct {
	simulationService *service.SimulationService
}

func NewSimulationHandler(simulationService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
	}
}

// GetConfig returns the simulation configuration document
func (h *SimulationHandler) GetConfig(c *gin.Context) {
	cfg, err := h.simulationService.Config()
	if err != nil {
		respondError(c, err, "Failed to fetch simulation config")
		return
	}

	utils.SuccessResponse(c, cfg)
}

// Execute runs a simulation action such as start, tick or reset
func (h *SimulationHandler) Execute(c *gin.Context) {
	var req service.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Action == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "action is required")
		return
	}

	result, err := h.simulationService.Execute(req)
	if err != nil {
		if errors.Is(err, service.ErrSimulationNotRunning) {
			utils.DeclinedResponse(c, err.Error())
			return
		}
		respondError(c, err, "Simulation action failed")
		return
	}

	utils.SuccessResponse(c, result)
}
