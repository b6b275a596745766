package service

import (
	"errors"
	"fmt"
	"strings"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/simulation"

	"go.uber.org/zap"
)

type StudyService struct {
	studies  repository.StudyStore
	patients repository.PatientStore
	events   repository.EventStore
	engine   *simulation.Engine
	logger   *zap.Logger
}

func NewStudyService(stores repository.Stores, engine *simulation.Engine, logger *zap.Logger) *StudyService {
	return &StudyService{
		studies:  stores.Studies,
		patients: stores.Patients,
		events:   stores.Events,
		engine:   engine,
		logger:   logger,
	}
}

// CreateStudyInput is a study ordered by hand
type CreateStudyInput struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	HasAlert  bool   `json:"hasAlert"`
}

// StudyUpdate is a manual change of a study; nil fields are kept
type StudyUpdate struct {
	Status *models.StudyStatus `json:"status,omitempty"`
	Result *string             `json:"result,omitempty"`
	// Reviewed stamps reviewedAt on a completed study
	Reviewed bool `json:"reviewed,omitempty"`
}

// StudyChange is an updated study and the event it produced, if any
type StudyChange struct {
	Study models.Study  `json:"study"`
	Event *models.Event `json:"event,omitempty"`
}

// List returns the studies matching filter
func (s *StudyService) List(filter repository.StudyFilter) ([]models.Study, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown study status %q", ErrValidation, filter.Status)
	}
	return s.studies.List(filter)
}

// Get returns a study by id
func (s *StudyService) Get(id string) (*models.Study, error) {
	return s.studies.GetByID(id)
}

// Create orders a new study for an existing patient and records a
// study_requested event
func (s *StudyService) Create(input CreateStudyInput) (*StudyChange, error) {
	if strings.TrimSpace(input.PatientID) == "" || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Type) == "" {
		return nil, fmt.Errorf("%w: patientId, name and type are required", ErrValidation)
	}
	p, err := s.patients.GetByID(input.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient %s does not exist", ErrValidation, input.PatientID)
		}
		return nil, err
	}
	if !p.IsActive() {
		return nil, fmt.Errorf("%w: patient %s was discharged", ErrValidation, p.ID)
	}

	now := s.engine.Now()
	study := models.Study{
		ID:          s.engine.NewID("S"),
		PatientID:   p.ID,
		Name:        input.Name,
		Type:        input.Type,
		Status:      models.StudyRequested,
		HasAlert:    input.HasAlert,
		RequestedAt: now,
	}
	if err := s.studies.Save(study); err != nil {
		return nil, fmt.Errorf("failed to save study: %w", err)
	}

	// a new open study reopens the patient's study phase
	changed := false
	if p.FirstStudyRequestedAt == nil {
		p.FirstStudyRequestedAt = &now
		changed = true
	}
	if p.AllStudiesCompletedAt != nil {
		p.AllStudiesCompletedAt = nil
		changed = true
	}
	if changed {
		if err := s.patients.Save(*p); err != nil {
			return nil, fmt.Errorf("failed to save patient: %w", err)
		}
	}

	ev := s.engine.StudyRequestedEvent(study)
	if err := s.events.Append(ev); err != nil {
		return nil, fmt.Errorf("failed to record study request: %w", err)
	}
	s.logger.Info("study requested", zap.String("study_id", study.ID), zap.String("patient_id", p.ID))
	return &StudyChange{Study: study, Event: &ev}, nil
}

// Progress advances a study one step. A completed study yields
// simulation.ErrStudyCompleted.
func (s *StudyService) Progress(id string) (*StudyChange, error) {
	study, err := s.studies.GetByID(id)
	if err != nil {
		return nil, err
	}
	tr, ok := s.engine.AdvanceStudy(*study)
	if !ok {
		return nil, simulation.ErrStudyCompleted
	}
	if err := s.studies.Save(tr.Study); err != nil {
		return nil, fmt.Errorf("failed to save study: %w", err)
	}
	if tr.Event != nil {
		if err := s.events.Append(*tr.Event); err != nil {
			return nil, fmt.Errorf("failed to record study completion: %w", err)
		}
	}
	s.logger.Debug("study progressed", zap.String("study_id", id), zap.String("status", string(tr.Study.Status)))
	return &StudyChange{Study: tr.Study, Event: tr.Event}, nil
}

// Update applies a manual change. Status may only move forward; reaching
// Completed records an alert or study_completed event naming the patient.
func (s *StudyService) Update(id string, update StudyUpdate) (*StudyChange, error) {
	study, err := s.studies.GetByID(id)
	if err != nil {
		return nil, err
	}
	prev := study.Status
	now := s.engine.Now()

	if update.Status != nil {
		next := *update.Status
		if !next.Valid() {
			return nil, fmt.Errorf("%w: unknown study status %q", ErrValidation, next)
		}
		if next.Rank() < prev.Rank() {
			return nil, fmt.Errorf("%w: study cannot move from %s back to %s", ErrValidation, prev, next)
		}
		study.Status = next
		if next.Rank() >= models.StudyPendingResult.Rank() && study.InProgressAt == nil {
			study.InProgressAt = &now
		}
		if next == models.StudyCompleted && study.CompletedAt == nil {
			study.CompletedAt = &now
		}
	}
	if update.Result != nil {
		study.Result = *update.Result
	}
	if update.Reviewed {
		if !study.IsCompleted() {
			return nil, fmt.Errorf("%w: only completed studies can be reviewed", ErrValidation)
		}
		if study.ReviewedAt == nil {
			study.ReviewedAt = &now
		}
	}
	if err := study.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.studies.Save(*study); err != nil {
		return nil, fmt.Errorf("failed to save study: %w", err)
	}

	change := &StudyChange{Study: *study}
	if study.IsCompleted() && prev != models.StudyCompleted {
		name := "Patient"
		if p, err := s.patients.GetByID(study.PatientID); err == nil {
			name = p.Name
		}
		ev := s.engine.CompletionEvent(*study, name)
		if err := s.events.Append(ev); err != nil {
			return nil, fmt.Errorf("failed to record study completion: %w", err)
		}
		change.Event = &ev
	}
	return change, nil
}
