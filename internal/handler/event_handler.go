package handler

import (
	"net/http"
	"strconv"

	"er-patient-tracking/internal/service"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// ListEvents returns the newest events, ?limit= defaults to 10
func (h *EventHandler) ListEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.eventService.Recent(limit)
	if err != nil {
		respondError(c, err, "Failed to fetch events")
		return
	}

	utils.SuccessResponse(c, gin.H{"events": events})
}

// ClearEvents empties the feed
func (h *EventHandler) ClearEvents(c *gin.Context) {
	if err := h.eventService.Clear(); err != nil {
		respondError(c, err, "Failed to clear events")
		return
	}

	utils.MessageResponse(c, "Events cleared")
}
