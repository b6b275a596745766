package models

import "time"

// EventType classifies a dashboard event
type EventType string

const (
	EventAdmission      EventType = "admission"
	EventDischarge      EventType = "discharge"
	EventStudyRequested EventType = "study_requested"
	EventStudyCompleted EventType = "study_completed"
	EventAlert          EventType = "alert"
)

// MaxEvents is the number of events kept in the feed
const MaxEvents = 100

// Event represents an append-only entry of the live event feed
type Event struct {
	ID        string    `gorm:"primaryKey;size:40" json:"id"`
	Type      EventType `gorm:"size:30;index" json:"type"`
	PatientID string    `gorm:"size:40;index" json:"patientId"`
	StudyID   string    `gorm:"size:40" json:"studyId,omitempty"`
	Message   string    `gorm:"size:500" json:"message"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "events"
}
