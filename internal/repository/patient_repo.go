package repository

import (
	"errors"

	"er-patient-tracking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// List retrieves all patients by admission time
func (r *PatientRepository) List() ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.Order("admission_time ASC").Find(&patients).Error
	return patients, err
}

// ListActive retrieves the patients that were not discharged
func (r *PatientRepository) ListActive() ([]models.Patient, error) {
	var patients []models.Patient
	err := r.db.Where("status = ?", models.PatientActive).
		Order("admission_time ASC").
		Find(&patients).Error
	return patients, err
}

// GetByID retrieves a patient by ID
func (r *PatientRepository) GetByID(id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// Save upserts patients by primary key
func (r *PatientRepository) Save(patients ...models.Patient) error {
	if len(patients) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&patients).Error
}

// Delete removes a patient by ID
func (r *PatientRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Patient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAll swaps the whole table content in one transaction
func (r *PatientRepository) ReplaceAll(patients []models.Patient) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Patient{}).Error; err != nil {
			return err
		}
		if len(patients) == 0 {
			return nil
		}
		return tx.CreateInBatches(&patients, 100).Error
	})
}
