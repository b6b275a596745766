package repository

import (
	"math"

	"er-patient-tracking/internal/models"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Recent retrieves the newest events first
func (r *EventRepository) Recent(limit int) ([]models.Event, error) {
	var events []models.Event
	query := r.db.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}

// Append inserts events and trims the feed to models.MaxEvents
func (r *EventRepository) Append(events ...models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&events).Error; err != nil {
			return err
		}

		// MySQL only accepts OFFSET after a LIMIT
		var stale []string
		err := tx.Model(&models.Event{}).
			Order("timestamp DESC").
			Limit(math.MaxInt32).
			Offset(models.MaxEvents).
			Pluck("id", &stale).Error
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Where("id IN ?", stale).Delete(&models.Event{}).Error
	})
}

// Clear deletes every event
func (r *EventRepository) Clear() error {
	return r.db.Where("1 = 1").Delete(&models.Event{}).Error
}
