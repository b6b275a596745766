package models

import (
	"errors"
	"fmt"
	"time"
)

// Severity is the triage classification of a patient
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityUrgent   Severity = "Urgent"
	SeverityStable   Severity = "Stable"
)

// Rank orders severities for sorting, most severe first
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityUrgent:
		return 1
	default:
		return 2
	}
}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s == SeverityCritical || s == SeverityUrgent || s == SeverityStable
}

// PatientStatus is the lifecycle status of a patient
type PatientStatus string

const (
	PatientActive     PatientStatus = "active"
	PatientDischarged PatientStatus = "discharged"
)

// Valid reports whether s is one of the known statuses
func (s PatientStatus) Valid() bool {
	return s == PatientActive || s == PatientDischarged
}

// Patient represents a patient tracked by the emergency room dashboard
type Patient struct {
	ID        string        `gorm:"primaryKey;size:40" json:"id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Age       int           `json:"age"`
	Gender    string        `gorm:"size:1" json:"gender"`
	Insurance string        `gorm:"size:100" json:"insurance"`
	Diagnosis string        `gorm:"size:255" json:"diagnosis"`
	Severity  Severity      `gorm:"size:20;index" json:"severity"`
	Room      string        `gorm:"size:50" json:"room"`
	DoctorID  string        `gorm:"size:40;index" json:"doctorId"`
	Phone     string        `gorm:"size:50" json:"phone"`
	Status    PatientStatus `gorm:"size:20;index" json:"status"`

	// Milestones, in lifecycle order
	AdmissionTime         time.Time  `json:"admissionTime"`
	AssignedToDoctorAt    *time.Time `json:"assignedToDoctorAt,omitempty"`
	FirstStudyRequestedAt *time.Time `json:"firstStudyRequestedAt,omitempty"`
	AllStudiesCompletedAt *time.Time `json:"allStudiesCompletedAt,omitempty"`
	DischargedAt          *time.Time `json:"dischargedAt,omitempty"`
}

// TableName specifies the table name for Patient model
func (Patient) TableName() string {
	return "patients"
}

// IsActive reports whether the patient is still in the emergency room
func (p *Patient) IsActive() bool {
	return p.Status == PatientActive
}

// Validate checks the milestone ordering and discharge consistency
func (p *Patient) Validate() error {
	if p.ID == "" {
		return errors.New("patient id is required")
	}
	if p.DischargedAt != nil && p.Status != PatientDischarged {
		return errors.New("dischargedAt is set but patient is not discharged")
	}

	milestones := []struct {
		name string
		at   *time.Time
	}{
		{"admissionTime", &p.AdmissionTime},
		{"assignedToDoctorAt", p.AssignedToDoctorAt},
		{"firstStudyRequestedAt", p.FirstStudyRequestedAt},
		{"allStudiesCompletedAt", p.AllStudiesCompletedAt},
		{"dischargedAt", p.DischargedAt},
	}
	var prevName string
	var prev *time.Time
	for _, m := range milestones {
		if m.at == nil {
			continue
		}
		if prev != nil && m.at.Before(*prev) {
			return fmt.Errorf("%s precedes %s", m.name, prevName)
		}
		prev, prevName = m.at, m.name
	}
	return nil
}

// PatientWithStudies is the dashboard view of a patient
type PatientWithStudies struct {
	Patient
	Studies []Study `json:"studies"`
	Doctor  *Doctor `json:"doctor,omitempty"`
}
