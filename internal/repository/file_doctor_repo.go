package repository

import (
	"er-patient-tracking/internal/models"
)

type doctorsDoc struct {
	Doctors []models.Doctor `json:"doctors"`
}

// DefaultDoctors is the roster written on first read
func DefaultDoctors() []models.Doctor {
	return []models.Doctor{
		{ID: "D001", Name: "Dr. Carlos Ruiz", Specialty: "Cardiology", Available: true},
		{ID: "D002", Name: "Dr. Patricia Gonzalez", Specialty: "Neurology", Available: true},
		{ID: "D003", Name: "Dr. Fernando Lopez", Specialty: "Traumatology", Available: true},
		{ID: "D004", Name: "Dr. Miguel Angel Sosa", Specialty: "Internal Medicine", Available: true},
		{ID: "D005", Name: "Dr. Elena Moreno", Specialty: "Pulmonology", Available: true},
		{ID: "D006", Name: "Dr. Roberto Fuentes", Specialty: "Gastroenterology", Available: true},
		{ID: "D007", Name: "Dr. Ana Garcia", Specialty: "Emergency Medicine", Available: true},
		{ID: "D008", Name: "Dr. Jose Maria Lopez", Specialty: "General Surgery", Available: true},
		{ID: "D009", Name: "Dr. Lucia Martinez", Specialty: "Nephrology", Available: true},
		{ID: "D010", Name: "Dr. Alfonso Rodriguez", Specialty: "Intensive Care", Available: true},
	}
}

func defaultDoctorsDoc() doctorsDoc {
	return doctorsDoc{Doctors: DefaultDoctors()}
}

// DoctorFileRepository serves the roster from doctors.json
type DoctorFileRepository struct {
	store *FileStore
}

func NewDoctorFileRepo(store *FileStore) *DoctorFileRepository {
	return &DoctorFileRepository{store: store}
}

// List returns every doctor
func (r *DoctorFileRepository) List() ([]models.Doctor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, doctorsFile, defaultDoctorsDoc)
	if err != nil {
		return nil, err
	}
	return doc.Doctors, nil
}

// GetByID retrieves a doctor by id
func (r *DoctorFileRepository) GetByID(id string) (*models.Doctor, error) {
	doctors, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		if doctors[i].ID == id {
			return &doctors[i], nil
		}
	}
	return nil, ErrNotFound
}
