package repository

import (
	"er-patient-tracking/internal/models"
)

type patientsDoc struct {
	Patients []models.Patient `json:"patients"`
}

func defaultPatients() patientsDoc {
	return patientsDoc{Patients: []models.Patient{}}
}

// PatientFileRepository stores patients in patients.json
type PatientFileRepository struct {
	store *FileStore
}

func NewPatientFileRepo(store *FileStore) *PatientFileRepository {
	return &PatientFileRepository{store: store}
}

// List returns every patient in insertion order
func (r *PatientFileRepository) List() ([]models.Patient, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, patientsFile, defaultPatients)
	if err != nil {
		return nil, err
	}
	return doc.Patients, nil
}

// ListActive returns patients still in the emergency room
func (r *PatientFileRepository) ListActive() ([]models.Patient, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	active := make([]models.Patient, 0, len(all))
	for _, p := range all {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active, nil
}

// GetByID retrieves a patient by id
func (r *PatientFileRepository) GetByID(id string) (*models.Patient, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// Save replaces patients with a matching id and appends the rest
func (r *PatientFileRepository) Save(patients ...models.Patient) error {
	if len(patients) == 0 {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, patientsFile, defaultPatients)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(doc.Patients))
	for i, p := range doc.Patients {
		index[p.ID] = i
	}
	for _, p := range patients {
		if i, ok := index[p.ID]; ok {
			doc.Patients[i] = p
			continue
		}
		index[p.ID] = len(doc.Patients)
		doc.Patients = append(doc.Patients, p)
	}
	return writeDoc(r.store, patientsFile, doc)
}

// Delete removes a patient; studies are left to the caller
func (r *PatientFileRepository) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, patientsFile, defaultPatients)
	if err != nil {
		return err
	}
	for i, p := range doc.Patients {
		if p.ID == id {
			doc.Patients = append(doc.Patients[:i], doc.Patients[i+1:]...)
			return writeDoc(r.store, patientsFile, doc)
		}
	}
	return ErrNotFound
}

// ReplaceAll overwrites the whole collection
func (r *PatientFileRepository) ReplaceAll(patients []models.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if patients == nil {
		patients = []models.Patient{}
	}
	return writeDoc(r.store, patientsFile, patientsDoc{Patients: patients})
}
