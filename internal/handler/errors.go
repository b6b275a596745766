package handler

import (
	"errors"
	"net/http"

	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/service"
	"er-patient-tracking/internal/simulation"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Unexpected errors are
// attached to the context for the request logger and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, simulation.ErrStudyCompleted):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, fallback)
	}
}
