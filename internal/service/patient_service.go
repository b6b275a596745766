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

type PatientService struct {
	patients repository.PatientStore
	studies  repository.StudyStore
	events   repository.EventStore
	doctors  repository.DoctorStore
	config   repository.ConfigStore
	engine   *simulation.Engine
	logger   *zap.Logger
}

func NewPatientService(stores repository.Stores, engine *simulation.Engine, logger *zap.Logger) *PatientService {
	return &PatientService{
		patients: stores.Patients,
		studies:  stores.Studies,
		events:   stores.Events,
		doctors:  stores.Doctors,
		config:   stores.Config,
		engine:   engine,
		logger:   logger,
	}
}

// CreatePatientInput is an explicitly provided patient with optional studies
type CreatePatientInput struct {
	Patient models.Patient `json:"patient"`
	Studies []models.Study `json:"studies"`
}

// PatientUpdate carries the editable fields of a patient; nil fields are kept
type PatientUpdate struct {
	Name      *string               `json:"name,omitempty"`
	Age       *int                  `json:"age,omitempty"`
	Gender    *string               `json:"gender,omitempty"`
	Insurance *string               `json:"insurance,omitempty"`
	Diagnosis *string               `json:"diagnosis,omitempty"`
	Severity  *models.Severity      `json:"severity,omitempty"`
	Room      *string               `json:"room,omitempty"`
	DoctorID  *string               `json:"doctorId,omitempty"`
	Phone     *string               `json:"phone,omitempty"`
	Status    *models.PatientStatus `json:"status,omitempty"`
}

// AdmissionResult is a newly admitted patient and its admission event
type AdmissionResult struct {
	Patient models.PatientWithStudies `json:"patient"`
	Event   models.Event              `json:"event"`
}

// List returns active patients, or every patient when includeAll is set,
// each with its studies and doctor
func (s *PatientService) List(includeAll bool) ([]models.PatientWithStudies, error) {
	var (
		patients []models.Patient
		err      error
	)
	if includeAll {
		patients, err = s.patients.List()
	} else {
		patients, err = s.patients.ListActive()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	studies, err := s.studies.List(repository.StudyFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	byPatient := make(map[string][]models.Study)
	for _, st := range studies {
		byPatient[st.PatientID] = append(byPatient[st.PatientID], st)
	}

	doctors, err := s.doctorIndex()
	if err != nil {
		return nil, err
	}

	result := make([]models.PatientWithStudies, 0, len(patients))
	for _, p := range patients {
		result = append(result, enrich(p, byPatient[p.ID], doctors))
	}
	return result, nil
}

// Get returns one patient with its studies and doctor
func (s *PatientService) Get(id string) (*models.PatientWithStudies, error) {
	p, err := s.patients.GetByID(id)
	if err != nil {
		return nil, err
	}
	studies, err := s.studies.List(repository.StudyFilter{PatientID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	doctors, err := s.doctorIndex()
	if err != nil {
		return nil, err
	}
	view := enrich(*p, studies, doctors)
	return &view, nil
}

// CreateRandom admits a generated patient with its studies
func (s *PatientService) CreateRandom() (*AdmissionResult, error) {
	gen, err := configuredEngine(s.engine, s.config)
	if err != nil {
		return nil, err
	}
	p, studies, ev := gen.GeneratePatient()
	if err := s.admit(p, studies, ev); err != nil {
		return nil, err
	}
	return s.admissionResult(p, studies, ev)
}

// Create admits an explicitly described patient. Missing ids and timestamps
// are filled in; studies are attached to the patient.
func (s *PatientService) Create(input CreatePatientInput) (*AdmissionResult, error) {
	p := input.Patient
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrValidation)
	}
	now := s.engine.Now()
	if p.ID == "" {
		p.ID = s.engine.NewID("P")
	} else if _, err := s.patients.GetByID(p.ID); err == nil {
		return nil, fmt.Errorf("%w: patient %s already exists", ErrValidation, p.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.PatientActive
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}
	if p.Severity == "" {
		p.Severity = models.SeverityStable
	}
	if !p.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, p.Severity)
	}
	if p.AdmissionTime.IsZero() {
		p.AdmissionTime = now
	}
	if p.Status == models.PatientDischarged && p.DischargedAt == nil {
		p.DischargedAt = &now
	}

	studies := make([]models.Study, 0, len(input.Studies))
	for _, st := range input.Studies {
		st.PatientID = p.ID
		if st.ID == "" {
			st.ID = s.engine.NewID("S")
		}
		if st.Status == "" {
			st.Status = models.StudyRequested
		}
		if st.RequestedAt.IsZero() {
			st.RequestedAt = now
		}
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		studies = append(studies, st)
	}
	if len(studies) > 0 && p.FirstStudyRequestedAt == nil {
		first := studies[0].RequestedAt
		for _, st := range studies[1:] {
			if st.RequestedAt.Before(first) {
				first = st.RequestedAt
			}
		}
		p.FirstStudyRequestedAt = &first
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ev := s.engine.AdmissionEvent(p)
	if err := s.admit(p, studies, ev); err != nil {
		return nil, err
	}
	return s.admissionResult(p, studies, ev)
}

func (s *PatientService) admit(p models.Patient, studies []models.Study, ev models.Event) error {
	if err := s.patients.Save(p); err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	if err := s.studies.Save(studies...); err != nil {
		return fmt.Errorf("failed to save studies: %w", err)
	}
	if err := s.events.Append(ev); err != nil {
		return fmt.Errorf("failed to record admission: %w", err)
	}
	s.logger.Info("patient admitted",
		zap.String("patient_id", p.ID),
		zap.String("severity", string(p.Severity)),
		zap.Int("studies", len(studies)),
	)
	return nil
}

func (s *PatientService) admissionResult(p models.Patient, studies []models.Study, ev models.Event) (*AdmissionResult, error) {
	doctors, err := s.doctorIndex()
	if err != nil {
		return nil, err
	}
	return &AdmissionResult{Patient: enrich(p, studies, doctors), Event: ev}, nil
}

// Update applies a partial update. Moving an active patient to discharged
// stamps dischargedAt and records a discharge event.
func (s *PatientService) Update(id string, update PatientUpdate) (*models.Patient, error) {
	p, err := s.patients.GetByID(id)
	if err != nil {
		return nil, err
	}
	prev := p.Status

	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Age != nil {
		p.Age = *update.Age
	}
	if update.Gender != nil {
		p.Gender = *update.Gender
	}
	if update.Insurance != nil {
		p.Insurance = *update.Insurance
	}
	if update.Diagnosis != nil {
		p.Diagnosis = *update.Diagnosis
	}
	if update.Severity != nil {
		if !update.Severity.Valid() {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, *update.Severity)
		}
		p.Severity = *update.Severity
	}
	if update.Room != nil {
		p.Room = *update.Room
	}
	if update.DoctorID != nil {
		p.DoctorID = *update.DoctorID
	}
	if update.Phone != nil {
		p.Phone = *update.Phone
	}
	if update.Status != nil {
		p.Status = *update.Status
	}

	var discharge *models.Event
	switch {
	case prev == models.PatientActive && p.Status == models.PatientDischarged:
		ev := s.engine.MakeDischargeEvent(*p)
		*p = simulation.Discharge(*p, ev.Timestamp)
		discharge = &ev
	case prev == models.PatientDischarged && p.Status != models.PatientDischarged:
		return nil, fmt.Errorf("%w: a discharged patient cannot be readmitted", ErrValidation)
	case !p.Status.Valid():
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.patients.Save(*p); err != nil {
		return nil, fmt.Errorf("failed to save patient: %w", err)
	}
	if discharge != nil {
		if err := s.events.Append(*discharge); err != nil {
			return nil, fmt.Errorf("failed to record discharge: %w", err)
		}
		s.logger.Info("patient discharged", zap.String("patient_id", p.ID))
	}
	return p, nil
}

// Delete removes a patient together with its studies
func (s *PatientService) Delete(id string) error {
	if _, err := s.patients.GetByID(id); err != nil {
		return err
	}
	removed, err := s.studies.DeleteByPatient(id)
	if err != nil {
		return fmt.Errorf("failed to delete studies: %w", err)
	}
	if err := s.patients.Delete(id); err != nil {
		return err
	}
	s.logger.Info("patient deleted", zap.String("patient_id", id), zap.Int("studies", removed))
	return nil
}

// Timeline derives the milestone history and time statistics of a patient
func (s *PatientService) Timeline(id string) (*models.PatientTimeline, error) {
	p, err := s.patients.GetByID(id)
	if err != nil {
		return nil, err
	}
	studies, err := s.studies.List(repository.StudyFilter{PatientID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	return &models.PatientTimeline{
		PatientID: p.ID,
		Timeline:  simulation.DeriveTimeline(*p, studies),
		Stats:     simulation.DeriveTimeStats(*p, studies, s.engine.Now()),
	}, nil
}

func (s *PatientService) doctorIndex() (map[string]models.Doctor, error) {
	doctors, err := s.doctors.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	index := make(map[string]models.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}
	return index, nil
}

func enrich(p models.Patient, studies []models.Study, doctors map[string]models.Doctor) models.PatientWithStudies {
	if studies == nil {
		studies = []models.Study{}
	}
	view := models.PatientWithStudies{Patient: p, Studies: studies}
	if d, ok := doctors[p.DoctorID]; ok {
		view.Doctor = &d
	}
	return view
}

// configuredEngine returns engine drawing with the stored probabilities
func configuredEngine(engine *simulation.Engine, config repository.ConfigStore) (*simulation.Engine, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return engine.UsingProbabilities(cfg.Simulation.Probabilities), nil
}
