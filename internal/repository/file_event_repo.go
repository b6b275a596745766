package repository

import (
	"sort"

	"er-patient-tracking/internal/models"
)

type eventsDoc struct {
	Events []models.Event `json:"events"`
}

func defaultEvents() eventsDoc {
	return eventsDoc{Events: []models.Event{}}
}

// EventFileRepository stores the event feed in events.json, oldest first
type EventFileRepository struct {
	store *FileStore
}

func NewEventFileRepo(store *FileStore) *EventFileRepository {
	return &EventFileRepository{store: store}
}

// Recent returns events newest first, at most limit when limit > 0
func (r *EventFileRepository) Recent(limit int) ([]models.Event, error) {
	r.store.mu.Lock()
	doc, err := readDoc(r.store, eventsFile, defaultEvents)
	r.store.mu.Unlock()
	if err != nil {
		return nil, err
	}

	events := doc.Events
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Append adds events in order and keeps only the newest models.MaxEvents
func (r *EventFileRepository) Append(events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, eventsFile, defaultEvents)
	if err != nil {
		return err
	}
	doc.Events = append(doc.Events, events...)
	if over := len(doc.Events) - models.MaxEvents; over > 0 {
		doc.Events = doc.Events[over:]
	}
	return writeDoc(r.store, eventsFile, doc)
}

// Clear empties the feed
func (r *EventFileRepository) Clear() error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return writeDoc(r.store, eventsFile, defaultEvents())
}
