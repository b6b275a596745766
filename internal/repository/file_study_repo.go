package repository

import (
	"er-patient-tracking/internal/models"
)

type studiesDoc struct {
	Studies []models.Study `json:"studies"`
}

func defaultStudies() studiesDoc {
	return studiesDoc{Studies: []models.Study{}}
}

// StudyFileRepository stores studies in studies.json
type StudyFileRepository struct {
	store *FileStore
}

func NewStudyFileRepo(store *FileStore) *StudyFileRepository {
	return &StudyFileRepository{store: store}
}

// List returns the studies matching filter in insertion order
func (r *StudyFileRepository) List(filter StudyFilter) ([]models.Study, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, studiesFile, defaultStudies)
	if err != nil {
		return nil, err
	}
	studies := make([]models.Study, 0, len(doc.Studies))
	for i := range doc.Studies {
		if filter.match(&doc.Studies[i]) {
			studies = append(studies, doc.Studies[i])
		}
	}
	return studies, nil
}

// GetByID retrieves a study by id
func (r *StudyFileRepository) GetByID(id string) (*models.Study, error) {
	all, err := r.List(StudyFilter{})
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

// Save replaces studies with a matching id and appends the rest
func (r *StudyFileRepository) Save(studies ...models.Study) error {
	if len(studies) == 0 {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, studiesFile, defaultStudies)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(doc.Studies))
	for i, s := range doc.Studies {
		index[s.ID] = i
	}
	for _, s := range studies {
		if i, ok := index[s.ID]; ok {
			doc.Studies[i] = s
			continue
		}
		index[s.ID] = len(doc.Studies)
		doc.Studies = append(doc.Studies, s)
	}
	return writeDoc(r.store, studiesFile, doc)
}

// DeleteByPatient removes every study of a patient and reports how many went
func (r *StudyFileRepository) DeleteByPatient(patientID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, studiesFile, defaultStudies)
	if err != nil {
		return 0, err
	}
	kept := doc.Studies[:0]
	for _, s := range doc.Studies {
		if s.PatientID != patientID {
			kept = append(kept, s)
		}
	}
	removed := len(doc.Studies) - len(kept)
	doc.Studies = kept
	if err := writeDoc(r.store, studiesFile, doc); err != nil {
		return 0, err
	}
	return removed, nil
}

// ReplaceAll overwrites the whole collection
func (r *StudyFileRepository) ReplaceAll(studies []models.Study) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if studies == nil {
		studies = []models.Study{}
	}
	return writeDoc(r.store, studiesFile, studiesDoc{Studies: studies})
}
