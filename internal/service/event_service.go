package service

import (
	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
)

// DefaultEventLimit is the feed size returned when no limit is given
const DefaultEventLimit = 10

type EventService struct {
	events repository.EventStore
}

func NewEventService(events repository.EventStore) *EventService {
	return &EventService{events: events}
}

// Recent returns the newest events, DefaultEventLimit when limit <= 0
func (s *EventService) Recent(limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > models.MaxEvents {
		limit = models.MaxEvents
	}
	return s.events.Recent(limit)
}

// Clear empties the feed
func (s *EventService) Clear() error {
	return s.events.Clear()
}
