package models

import "time"

// TimelineEventType is a milestone kind shown on the patient timeline
type TimelineEventType string

const (
	TimelineAdmission       TimelineEventType = "admission"
	TimelineDoctorAssigned  TimelineEventType = "doctor_assigned"
	TimelineStudyRequested  TimelineEventType = "study_requested"
	TimelineStudyInProgress TimelineEventType = "study_in_progress"
	TimelineStudyCompleted  TimelineEventType = "study_completed"
	TimelineStudyReviewed   TimelineEventType = "study_reviewed"
	TimelineAllCompleted    TimelineEventType = "all_completed"
	TimelineDischarge       TimelineEventType = "discharge"
)

// TimelineEvent is one derived milestone on a patient's history
type TimelineEvent struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        TimelineEventType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Duration    int               `json:"duration"` // minutes since the previous event
}

// TimeStats aggregates the time a patient spent in each phase, in minutes
type TimeStats struct {
	TotalTime         int `json:"totalTime"`
	WaitingForStudies int `json:"waitingForStudies"`
	WaitingForReview  int `json:"waitingForReview"`
	StudiesInProgress int `json:"studiesInProgress"`
	AverageStudyTime  int `json:"averageStudyTime"`
}

// PatientTimeline is the read-side projection served to the dashboard
type PatientTimeline struct {
	PatientID string          `json:"patientId"`
	Timeline  []TimelineEvent `json:"timeline"`
	Stats     TimeStats       `json:"stats"`
}
