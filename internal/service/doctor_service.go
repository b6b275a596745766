package service

import (
	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
)

type DoctorService struct {
	doctors repository.DoctorStore
}

func NewDoctorService(doctors repository.DoctorStore) *DoctorService {
	return &DoctorService{doctors: doctors}
}

// List returns the doctor roster
func (s *DoctorService) List() ([]models.Doctor, error) {
	return s.doctors.List()
}

// Get returns a doctor by id
func (s *DoctorService) Get(id string) (*models.Doctor, error) {
	return s.doctors.GetByID(id)
}
