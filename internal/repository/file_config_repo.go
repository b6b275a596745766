package repository

import (
	"time"

	"er-patient-tracking/internal/models"
)

// configDoc is the on-disk shape of config.json. Probabilities is a pointer so
// a document written before the table existed can be told apart from one
// whose chances are all zero.
type configDoc struct {
	Simulation  simulationDoc `json:"simulation"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

type simulationDoc struct {
	models.SimulationConfig
	Probabilities *models.Probabilities `json:"probabilities"`
}

func newConfigDoc(cfg models.Config) configDoc {
	probs := cfg.Simulation.Probabilities
	return configDoc{
		Simulation:  simulationDoc{SimulationConfig: cfg.Simulation, Probabilities: &probs},
		LastUpdated: cfg.LastUpdated,
	}
}

func (d configDoc) config() models.Config {
	sim := d.Simulation.SimulationConfig
	if d.Simulation.Probabilities != nil {
		sim.Probabilities = *d.Simulation.Probabilities
	} else {
		sim.Probabilities = models.DefaultProbabilities()
	}
	return models.Config{Simulation: sim, LastUpdated: d.LastUpdated}
}

// ConfigFileRepository stores the simulation configuration in config.json
type ConfigFileRepository struct {
	store *FileStore
}

func NewConfigFileRepo(store *FileStore) *ConfigFileRepository {
	return &ConfigFileRepository{store: store}
}

func (r *ConfigFileRepository) defaultConfig() models.Config {
	return models.Config{
		Simulation:  models.DefaultSimulationConfig(),
		LastUpdated: r.store.now().UTC(),
	}
}

// Get returns the configuration, creating it with defaults on first read.
// A document without a probabilities table gets the default table.
func (r *ConfigFileRepository) Get() (*models.Config, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := readDoc(r.store, configFile, func() configDoc {
		return newConfigDoc(r.defaultConfig())
	})
	if err != nil {
		return nil, err
	}
	cfg := doc.config()
	return &cfg, nil
}

// Save replaces the simulation section and stamps lastUpdated
func (r *ConfigFileRepository) Save(sim models.SimulationConfig) (*models.Config, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cfg := models.Config{Simulation: sim, LastUpdated: r.store.now().UTC()}
	if err := writeDoc(r.store, configFile, newConfigDoc(cfg)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Reset restores the default configuration
func (r *ConfigFileRepository) Reset() (*models.Config, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cfg := r.defaultConfig()
	if err := writeDoc(r.store, configFile, newConfigDoc(cfg)); err != nil {
		return nil, err
	}
	return &cfg, nil
}
