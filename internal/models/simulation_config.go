package models

import "time"

// Probabilities holds the tunable chances used by the simulation
type Probabilities struct {
	StudyProgress float64 `json:"studyProgress"`
	Discharge     float64 `json:"discharge"`
	Admission     float64 `json:"admission"`
	Alert         float64 `json:"alert"`
	Critical      float64 `json:"critical"`
	Urgent        float64 `json:"urgent"`
}

// DefaultProbabilities returns the stock simulation chances
func DefaultProbabilities() Probabilities {
	return Probabilities{
		StudyProgress: 0.30,
		Discharge:     0.30,
		Admission:     0.40,
		Alert:         0.10,
		Critical:      0.30,
		Urgent:        0.30,
	}
}

// SimulationConfig holds the process-wide simulation parameters
type SimulationConfig struct {
	Running                 bool          `json:"running"`
	Speed                   float64       `json:"speed"`
	AutoAdmission           bool          `json:"autoAdmission"`
	AutoDischarge           bool          `json:"autoDischarge"`
	AutoStudyProgress       bool          `json:"autoStudyProgress"`
	AdmissionIntervalMs     int           `json:"admissionIntervalMs"`
	StudyProgressIntervalMs int           `json:"studyProgressIntervalMs"`
	Probabilities           Probabilities `json:"probabilities"`
}

// DefaultSimulationConfig returns the configuration used on first read and after a reset
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Running:                 false,
		Speed:                   1,
		AutoAdmission:           true,
		AutoDischarge:           true,
		AutoStudyProgress:       true,
		AdmissionIntervalMs:     8000,
		StudyProgressIntervalMs: 5000,
		Probabilities:           DefaultProbabilities(),
	}
}

// TickInterval is the scheduler period for the configured speed
func (c SimulationConfig) TickInterval() time.Duration {
	speed := c.Speed
	if speed <= 0 {
		speed = 1
	}
	ms := float64(c.StudyProgressIntervalMs)
	if ms <= 0 {
		ms = 5000
	}
	return time.Duration(ms/speed) * time.Millisecond
}

// SimulationUpdate is a partial update of SimulationConfig; nil fields are left untouched
type SimulationUpdate struct {
	Running                 *bool                `json:"running,omitempty"`
	Speed                   *float64             `json:"speed,omitempty"`
	AutoAdmission           *bool                `json:"autoAdmission,omitempty"`
	AutoDischarge           *bool                `json:"autoDischarge,omitempty"`
	AutoStudyProgress       *bool                `json:"autoStudyProgress,omitempty"`
	AdmissionIntervalMs     *int                 `json:"admissionIntervalMs,omitempty"`
	StudyProgressIntervalMs *int                 `json:"studyProgressIntervalMs,omitempty"`
	Probabilities           *ProbabilitiesUpdate `json:"probabilities,omitempty"`
}

// Apply merges the non-nil fields of u into c
func (u SimulationUpdate) Apply(c SimulationConfig) SimulationConfig {
	if u.Running != nil {
		c.Running = *u.Running
	}
	if u.Speed != nil {
		c.Speed = *u.Speed
	}
	if u.AutoAdmission != nil {
		c.AutoAdmission = *u.AutoAdmission
	}
	if u.AutoDischarge != nil {
		c.AutoDischarge = *u.AutoDischarge
	}
	if u.AutoStudyProgress != nil {
		c.AutoStudyProgress = *u.AutoStudyProgress
	}
	if u.AdmissionIntervalMs != nil {
		c.AdmissionIntervalMs = *u.AdmissionIntervalMs
	}
	if u.StudyProgressIntervalMs != nil {
		c.StudyProgressIntervalMs = *u.StudyProgressIntervalMs
	}
	if u.Probabilities != nil {
		c.Probabilities = u.Probabilities.Apply(c.Probabilities)
	}
	return c
}

// ProbabilitiesUpdate is a partial update of Probabilities; nil fields are left untouched
type ProbabilitiesUpdate struct {
	StudyProgress *float64 `json:"studyProgress,omitempty"`
	Discharge     *float64 `json:"discharge,omitempty"`
	Admission     *float64 `json:"admission,omitempty"`
	Alert         *float64 `json:"alert,omitempty"`
	Critical      *float64 `json:"critical,omitempty"`
	Urgent        *float64 `json:"urgent,omitempty"`
}

// Apply merges the non-nil fields of u into p
func (u ProbabilitiesUpdate) Apply(p Probabilities) Probabilities {
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{u.StudyProgress, &p.StudyProgress},
		{u.Discharge, &p.Discharge},
		{u.Admission, &p.Admission},
		{u.Alert, &p.Alert},
		{u.Critical, &p.Critical},
		{u.Urgent, &p.Urgent},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return p
}

// Config is the persisted configuration document
type Config struct {
	Simulation  SimulationConfig `json:"simulation"`
	LastUpdated time.Time        `json:"lastUpdated"`
}
