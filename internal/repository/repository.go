package repository

import (
	"errors"

	"er-patient-tracking/internal/models"
)

// ErrNotFound is returned when a record with the requested id does not exist
var ErrNotFound = errors.New("record not found")

// StudyFilter narrows a study listing; empty fields match everything
type StudyFilter struct {
	PatientID string
	Status    models.StudyStatus
}

func (f StudyFilter) match(s *models.Study) bool {
	if f.PatientID != "" && s.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// PatientStore persists patients
type PatientStore interface {
	List() ([]models.Patient, error)
	ListActive() ([]models.Patient, error)
	GetByID(id string) (*models.Patient, error)
	// Save inserts or replaces the given patients by id
	Save(patients ...models.Patient) error
	Delete(id string) error
	ReplaceAll(patients []models.Patient) error
}

// StudyStore persists studies
type StudyStore interface {
	List(filter StudyFilter) ([]models.Study, error)
	GetByID(id string) (*models.Study, error)
	// Save inserts or replaces the given studies by id
	Save(studies ...models.Study) error
	DeleteByPatient(patientID string) (int, error)
	ReplaceAll(studies []models.Study) error
}

// EventStore keeps the bounded event feed
type EventStore interface {
	// Recent returns events newest first; limit <= 0 returns all of them
	Recent(limit int) ([]models.Event, error)
	// Append adds events and evicts the oldest beyond models.MaxEvents
	Append(events ...models.Event) error
	Clear() error
}

// DoctorStore serves the static doctor roster
type DoctorStore interface {
	List() ([]models.Doctor, error)
	GetByID(id string) (*models.Doctor, error)
}

// ConfigStore persists the simulation configuration document
type ConfigStore interface {
	Get() (*models.Config, error)
	Save(sim models.SimulationConfig) (*models.Config, error)
	Reset() (*models.Config, error)
}

// Stores groups the collaborators the services need
type Stores struct {
	Patients PatientStore
	Studies  StudyStore
	Events   EventStore
	Doctors  DoctorStore
	Config   ConfigStore
}

var (
	_ PatientStore = (*PatientRepository)(nil)
	_ PatientStore = (*PatientFileRepository)(nil)
	_ StudyStore   = (*StudyRepository)(nil)
	_ StudyStore   = (*StudyFileRepository)(nil)
	_ EventStore   = (*EventRepository)(nil)
	_ EventStore   = (*EventFileRepository)(nil)
	_ DoctorStore  = (*DoctorFileRepository)(nil)
	_ ConfigStore  = (*ConfigFileRepository)(nil)
)
