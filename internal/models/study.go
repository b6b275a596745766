package models

import (
	"errors"
	"fmt"
	"time"
)

// StudyStatus is a step of the ordered study lifecycle
type StudyStatus string

const (
	StudyRequested     StudyStatus = "Requested"
	StudyPendingResult StudyStatus = "PendingResult"
	StudyCompleted     StudyStatus = "Completed"
)

// Rank returns the position of the status in the lifecycle, -1 if unknown
func (s StudyStatus) Rank() int {
	switch s {
	case StudyRequested:
		return 0
	case StudyPendingResult:
		return 1
	case StudyCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the known statuses
func (s StudyStatus) Valid() bool {
	return s.Rank() >= 0
}

// Study represents a diagnostic study requested for a patient
type Study struct {
	ID        string      `gorm:"primaryKey;size:40" json:"id"`
	PatientID string      `gorm:"size:40;not null;index" json:"patientId"`
	Name      string      `gorm:"size:100;not null" json:"name"`
	Type      string      `gorm:"size:100" json:"type"`
	Status    StudyStatus `gorm:"size:20;index" json:"status"`
	WaitTime  int         `gorm:"default:0" json:"waitTime"` // minutes
	HasAlert  bool        `gorm:"default:false" json:"hasAlert"`
	Result    string      `gorm:"type:text" json:"result,omitempty"`

	RequestedAt  time.Time  `json:"requestedAt"`
	InProgressAt *time.Time `json:"inProgressAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
}

// TableName specifies the table name for Study model
func (Study) TableName() string {
	return "studies"
}

// IsCompleted reports whether the study reached its terminal status
func (s *Study) IsCompleted() bool {
	return s.Status == StudyCompleted
}

// Validate checks that status and milestone timestamps agree
func (s *Study) Validate() error {
	if s.ID == "" || s.PatientID == "" {
		return errors.New("study id and patient id are required")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("unknown study status %q", s.Status)
	}
	if s.WaitTime < 0 {
		return errors.New("waitTime cannot be negative")
	}
	if s.CompletedAt != nil && s.InProgressAt == nil {
		return errors.New("completedAt requires inProgressAt")
	}
	if s.Status.Rank() >= StudyPendingResult.Rank() && s.InProgressAt == nil {
		return fmt.Errorf("status %s requires inProgressAt", s.Status)
	}
	if s.Status == StudyCompleted && s.CompletedAt == nil {
		return errors.New("status Completed requires completedAt")
	}
	if s.Status != StudyCompleted && (s.CompletedAt != nil || s.ReviewedAt != nil) {
		return fmt.Errorf("status %s cannot carry completedAt or reviewedAt", s.Status)
	}
	if s.InProgressAt != nil && s.InProgressAt.Before(s.RequestedAt) {
		return errors.New("inProgressAt precedes requestedAt")
	}
	if s.CompletedAt != nil && s.CompletedAt.Before(*s.InProgressAt) {
		return errors.New("completedAt precedes inProgressAt")
	}
	return nil
}
