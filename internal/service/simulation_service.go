package service

import (
	"errors"
	"fmt"
	"sync"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/simulation"

	"go.uber.org/zap"
)

// DefaultDatasetSize is the number of patients a reset seeds when no count is given
const DefaultDatasetSize = 15

// Simulation actions accepted by Execute
const (
	ActionStart     = "start"
	ActionStop      = "stop"
	ActionToggle    = "toggle"
	ActionSpeed     = "speed"
	ActionConfigure = "configure"
	ActionReset     = "reset"
	ActionClear     = "clear"
	ActionTick      = "tick"
	ActionAdmit     = "admit"
)

// ActionRequest is a simulation control command. The embedded update carries
// the optional parameters of start, speed and configure.
type ActionRequest struct {
	Action string `json:"action"`
	Count  int    `json:"count,omitempty"`
	models.SimulationUpdate
}

// DatasetStats counts what a reset generated
type DatasetStats struct {
	Patients int `json:"patients"`
	Studies  int `json:"studies"`
	Events   int `json:"events"`
}

// ActionResult is the outcome of a simulation command
type ActionResult struct {
	Config  *models.Config             `json:"config,omitempty"`
	Stats   *DatasetStats              `json:"stats,omitempty"`
	Results *simulation.TickResults    `json:"results,omitempty"`
	Patient *models.PatientWithStudies `json:"patient,omitempty"`
	Event   *models.Event              `json:"event,omitempty"`
}

// SimulationService runs simulation commands against the stores. Commands
// are serialized so a tick never interleaves with a reset or another tick.
type SimulationService struct {
	mu       sync.Mutex
	stores   repository.Stores
	engine   *simulation.Engine
	patients *PatientService
	logger   *zap.Logger
}

func NewSimulationService(stores repository.Stores, engine *simulation.Engine, patients *PatientService, logger *zap.Logger) *SimulationService {
	return &SimulationService{
		stores:   stores,
		engine:   engine,
		patients: patients,
		logger:   logger,
	}
}

// Config returns the current configuration document
func (s *SimulationService) Config() (*models.Config, error) {
	return s.stores.Config.Get()
}

// Execute dispatches a simulation command
func (s *SimulationService) Execute(req ActionRequest) (*ActionResult, error) {
	switch req.Action {
	case ActionStart:
		update := req.SimulationUpdate
		running := true
		update.Running = &running
		return s.configResult(s.updateConfig(update))

	case ActionStop:
		running := false
		return s.configResult(s.updateConfig(models.SimulationUpdate{Running: &running}))

	case ActionToggle:
		return s.configResult(s.Toggle())

	case ActionSpeed:
		if req.Speed == nil {
			return nil, fmt.Errorf("%w: speed is required", ErrValidation)
		}
		return s.configResult(s.updateConfig(models.SimulationUpdate{Speed: req.Speed}))

	case ActionConfigure:
		update := req.SimulationUpdate
		update.Running = nil
		return s.configResult(s.updateConfig(update))

	case ActionReset:
		stats, cfg, err := s.Reset(req.Count)
		if err != nil {
			return nil, err
		}
		return &ActionResult{Config: cfg, Stats: stats}, nil

	case ActionClear:
		if err := s.Clear(); err != nil {
			return nil, err
		}
		return &ActionResult{}, nil

	case ActionTick:
		results, err := s.Tick()
		if err != nil {
			return nil, err
		}
		return &ActionResult{Results: results}, nil

	case ActionAdmit:
		admitted, err := s.Admit()
		if err != nil {
			return nil, err
		}
		return &ActionResult{Patient: &admitted.Patient, Event: &admitted.Event}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
}

func (s *SimulationService) configResult(cfg *models.Config, err error) (*ActionResult, error) {
	if err != nil {
		return nil, err
	}
	return &ActionResult{Config: cfg}, nil
}

// Toggle flips the running flag
func (s *SimulationService) Toggle() (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.stores.Config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	running := !cfg.Simulation.Running
	return s.saveConfig(models.SimulationUpdate{Running: &running}.Apply(cfg.Simulation))
}

func (s *SimulationService) updateConfig(update models.SimulationUpdate) (*models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.stores.Config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return s.saveConfig(update.Apply(cfg.Simulation))
}

func (s *SimulationService) saveConfig(sim models.SimulationConfig) (*models.Config, error) {
	if err := validateSimulationConfig(sim); err != nil {
		return nil, err
	}
	cfg, err := s.stores.Config.Save(sim)
	if err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	s.logger.Info("simulation configured",
		zap.Bool("running", sim.Running),
		zap.Float64("speed", sim.Speed),
	)
	return cfg, nil
}

func validateSimulationConfig(sim models.SimulationConfig) error {
	if sim.Speed <= 0 {
		return fmt.Errorf("%w: speed must be positive", ErrValidation)
	}
	if sim.AdmissionIntervalMs <= 0 || sim.StudyProgressIntervalMs <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrValidation)
	}
	p := sim.Probabilities
	for name, v := range map[string]float64{
		"studyProgress": p.StudyProgress,
		"discharge":     p.Discharge,
		"admission":     p.Admission,
		"alert":         p.Alert,
		"critical":      p.Critical,
		"urgent":        p.Urgent,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: probability %s must be within [0, 1]", ErrValidation, name)
		}
	}
	if p.Critical+p.Urgent > 1 {
		return fmt.Errorf("%w: critical and urgent probabilities exceed 1", ErrValidation)
	}
	return nil
}

// Tick runs one simulation step and persists its outcome. A stopped
// simulation yields ErrSimulationNotRunning.
func (s *SimulationService) Tick() (*simulation.TickResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.stores.Config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Simulation.Running {
		return nil, ErrSimulationNotRunning
	}

	patients, err := s.stores.Patients.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	studies, err := s.stores.Studies.List(repository.StudyFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}

	out := s.engine.RunTick(cfg.Simulation, patients, studies)
	if err := s.persist(out); err != nil {
		return nil, err
	}

	if !out.Empty() {
		s.logger.Info("simulation tick",
			zap.Int("admissions", out.Results.Admissions),
			zap.Int("discharges", out.Results.Discharges),
			zap.Int("study_progressions", out.Results.StudyProgressions),
		)
	}
	return &out.Results, nil
}

func (s *SimulationService) persist(out simulation.TickOutcome) error {
	studies := append(append([]models.Study{}, out.UpdatedStudies...), out.NewStudies...)
	if err := s.stores.Studies.Save(studies...); err != nil {
		return fmt.Errorf("failed to save studies: %w", err)
	}
	patients := append(append([]models.Patient{}, out.UpdatedPatients...), out.NewPatients...)
	if err := s.stores.Patients.Save(patients...); err != nil {
		return fmt.Errorf("failed to save patients: %w", err)
	}
	if err := s.stores.Events.Append(out.NewEvents...); err != nil {
		return fmt.Errorf("failed to record events: %w", err)
	}
	return nil
}

// Admit generates and admits one random patient regardless of the running flag
func (s *SimulationService) Admit() (*AdmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.patients.CreateRandom()
}

// Reset wipes every collection, seeds a fresh dataset of count patients
// (DefaultDatasetSize when count <= 0) and leaves the simulation stopped
func (s *SimulationService) Reset(count int) (*DatasetStats, *models.Config, error) {
	if count <= 0 {
		count = DefaultDatasetSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(); err != nil {
		return nil, nil, err
	}
	stats, err := s.seed(count)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.stores.Config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	s.logger.Info("simulation reset",
		zap.Int("patients", stats.Patients),
		zap.Int("studies", stats.Studies),
	)
	return stats, cfg, nil
}

// SeedIfEmpty seeds count patients when the store holds none; it reports
// whether anything was generated
func (s *SimulationService) SeedIfEmpty(count int) (bool, error) {
	if count <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.stores.Patients.List()
	if err != nil {
		return false, fmt.Errorf("failed to list patients: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	stats, err := s.seed(count)
	if err != nil {
		return false, err
	}
	s.logger.Info("seeded empty store", zap.Int("patients", stats.Patients))
	return true, nil
}

func (s *SimulationService) seed(count int) (*DatasetStats, error) {
	gen, err := configuredEngine(s.engine, s.stores.Config)
	if err != nil {
		return nil, err
	}
	patients, studies, events := gen.GenerateInitialDataset(count)
	if err := s.stores.Patients.ReplaceAll(patients); err != nil {
		return nil, fmt.Errorf("failed to save patients: %w", err)
	}
	if err := s.stores.Studies.ReplaceAll(studies); err != nil {
		return nil, fmt.Errorf("failed to save studies: %w", err)
	}
	if err := s.stores.Events.Append(events...); err != nil {
		return nil, fmt.Errorf("failed to record events: %w", err)
	}
	return &DatasetStats{Patients: len(patients), Studies: len(studies), Events: len(events)}, nil
}

// Clear wipes every collection and restores the default configuration
func (s *SimulationService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(); err != nil {
		return err
	}
	s.logger.Info("simulation data cleared")
	return nil
}

func (s *SimulationService) clear() error {
	if err := s.stores.Patients.ReplaceAll(nil); err != nil {
		return fmt.Errorf("failed to clear patients: %w", err)
	}
	if err := s.stores.Studies.ReplaceAll(nil); err != nil {
		return fmt.Errorf("failed to clear studies: %w", err)
	}
	if err := s.stores.Events.Clear(); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	if _, err := s.stores.Config.Reset(); err != nil {
		return fmt.Errorf("failed to reset config: %w", err)
	}
	return nil
}

// IsNotRunning reports whether err means the simulation is stopped
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrSimulationNotRunning)
}
