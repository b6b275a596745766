package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	patientsFile = "patients.json"
	studiesFile  = "studies.json"
	eventsFile   = "events.json"
	doctorsFile  = "doctors.json"
	configFile   = "config.json"
)

// FileStore keeps each collection as a JSON document under a data directory.
// Every read-modify-write cycle holds the store mutex, so a single process
// never interleaves writes to the same file.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

// NewFileStore creates the data directory if needed
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, now: time.Now, logger: logger}, nil
}

// Stores wires the file-backed repositories for every collection
func (s *FileStore) Stores() Stores {
	return Stores{
		Patients: NewPatientFileRepo(s),
		Studies:  NewStudyFileRepo(s),
		Events:   NewEventFileRepo(s),
		Doctors:  NewDoctorFileRepo(s),
		Config:   NewConfigFileRepo(s),
	}
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.dir
}

// readDoc loads a document, writing and returning the default when the file
// is missing or cannot be decoded. Callers hold s.mu.
func readDoc[T any](s *FileStore, name string, def func() T) (T, error) {
	path := filepath.Join(s.dir, name)
	raw, err := os.ReadFile(path)
	if err == nil {
		var doc T
		if err = json.Unmarshal(raw, &doc); err == nil {
			return doc, nil
		}
		s.logger.Warn("corrupt data file, restoring default", zap.String("file", name), zap.Error(err))
	} else if !os.IsNotExist(err) {
		return def(), fmt.Errorf("failed to read %s: %w", name, err)
	}

	doc := def()
	if err := writeDoc(s, name, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// writeDoc overwrites a whole document. Callers hold s.mu.
func writeDoc[T any](s *FileStore, name string, doc T) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
