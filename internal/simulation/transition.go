package simulation

import (
	"errors"
	"fmt"
	"time"

	"er-patient-tracking/internal/models"
)

// ErrStudyCompleted is returned by callers that surface an attempt to advance
// a study that already reached its terminal status
var ErrStudyCompleted = errors.New("study is already completed")

// Transition is the outcome of advancing a study by one step
type Transition struct {
	Study models.Study
	Event *models.Event
}

// AdvanceStudy moves a study one step forward along
// Requested -> PendingResult -> Completed. The second return value is false
// when the study is already Completed; the input is never modified.
func (e *Engine) AdvanceStudy(study models.Study) (*Transition, bool) {
	now := e.now()
	next := study

	switch study.Status {
	case models.StudyRequested:
		next.Status = models.StudyPendingResult
		next.InProgressAt = timePtr(now)
		next.WaitTime += e.intBetween(5, 15)
		return &Transition{Study: next}, true

	case models.StudyPendingResult:
		next.Status = models.StudyCompleted
		next.CompletedAt = timePtr(now)
		next.WaitTime += e.intBetween(5, 15)
		ev := e.completionEvent(study, "", now)
		return &Transition{Study: next, Event: &ev}, true

	default:
		return nil, false
	}
}

// CompletionEvent builds the alert or study_completed event for a study;
// patientName is appended to the message when known
func (e *Engine) CompletionEvent(study models.Study, patientName string) models.Event {
	return e.completionEvent(study, patientName, e.now())
}

func (e *Engine) completionEvent(study models.Study, patientName string, at time.Time) models.Event {
	ev := models.Event{
		ID:        e.newID("E"),
		Type:      models.EventStudyCompleted,
		PatientID: study.PatientID,
		StudyID:   study.ID,
		Message:   fmt.Sprintf("Study %s completed", study.Name),
		Timestamp: at,
	}
	if study.HasAlert {
		ev.Type = models.EventAlert
		ev.Message = fmt.Sprintf("Alert: abnormal result in %s", study.Name)
	}
	if patientName != "" {
		ev.Message += " - " + patientName
	}
	return ev
}

// StudyRequestedEvent builds the event emitted when a study is ordered
func (e *Engine) StudyRequestedEvent(study models.Study) models.Event {
	return models.Event{
		ID:        e.newID("E"),
		Type:      models.EventStudyRequested,
		PatientID: study.PatientID,
		StudyID:   study.ID,
		Message:   fmt.Sprintf("Study %s requested", study.Name),
		Timestamp: study.RequestedAt,
	}
}

// CanDischarge reports whether every study of a patient is completed.
// A patient without studies cannot be discharged by the simulation.
func CanDischarge(studies []models.Study) bool {
	if len(studies) == 0 {
		return false
	}
	for _, s := range studies {
		if s.Status != models.StudyCompleted {
			return false
		}
	}
	return true
}

// MakeDischargeEvent builds the discharge event for a patient. Applying it is
// up to the caller, see Discharge.
func (e *Engine) MakeDischargeEvent(p models.Patient) models.Event {
	return models.Event{
		ID:        e.newID("E"),
		Type:      models.EventDischarge,
		PatientID: p.ID,
		Message:   fmt.Sprintf("%s was discharged", p.Name),
		Timestamp: e.now(),
	}
}

// Discharge returns p marked as discharged at the given time
func Discharge(p models.Patient, at time.Time) models.Patient {
	p.Status = models.PatientDischarged
	p.DischargedAt = timePtr(at)
	return p
}
