package repository

import (
	"errors"

	"er-patient-tracking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudyRepository struct {
	db *gorm.DB
}

func NewStudyRepo(db *gorm.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

// List retrieves studies matching the filter by request time
func (r *StudyRepository) List(filter StudyFilter) ([]models.Study, error) {
	var studies []models.Study
	query := r.db.Model(&models.Study{})
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("requested_at ASC").Find(&studies).Error
	return studies, err
}

// GetByID retrieves a study by ID
func (r *StudyRepository) GetByID(id string) (*models.Study, error) {
	var study models.Study
	err := r.db.Where("id = ?", id).First(&study).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &study, nil
}

// Save upserts studies by primary key
func (r *StudyRepository) Save(studies ...models.Study) error {
	if len(studies) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&studies).Error
}

// DeleteByPatient removes every study of a patient
func (r *StudyRepository) DeleteByPatient(patientID string) (int, error) {
	result := r.db.Where("patient_id = ?", patientID).Delete(&models.Study{})
	return int(result.RowsAffected), result.Error
}

// ReplaceAll swaps the whole table content in one transaction
func (r *StudyRepository) ReplaceAll(studies []models.Study) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Study{}).Error; err != nil {
			return err
		}
		if len(studies) == 0 {
			return nil
		}
		return tx.CreateInBatches(&studies, 100).Error
	})
}
