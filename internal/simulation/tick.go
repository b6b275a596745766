package simulation

import "er-patient-tracking/internal/models"

// EventSummary is the compact form of an event reported by a tick
type EventSummary struct {
	Type    models.EventType `json:"type"`
	Message string           `json:"message"`
}

// TickResults are the aggregate counts of one tick
type TickResults struct {
	Admissions        int            `json:"admissions"`
	Discharges        int            `json:"discharges"`
	StudyProgressions int            `json:"studyProgressions"`
	Events            []EventSummary `json:"events"`
}

// TickOutcome is everything a tick changed. The caller persists it.
type TickOutcome struct {
	Results         TickResults
	UpdatedPatients []models.Patient
	UpdatedStudies  []models.Study
	NewPatients     []models.Patient
	NewStudies      []models.Study
	NewEvents       []models.Event
}

// Empty reports whether the tick changed nothing
func (o *TickOutcome) Empty() bool {
	return len(o.UpdatedPatients) == 0 && len(o.UpdatedStudies) == 0 &&
		len(o.NewPatients) == 0 && len(o.NewEvents) == 0
}

func (o *TickOutcome) record(ev models.Event) {
	o.NewEvents = append(o.NewEvents, ev)
	o.Results.Events = append(o.Results.Events, EventSummary{Type: ev.Type, Message: ev.Message})
}

// RunTick applies one simulation step over the given collections:
//  1. autoStudyProgress: each open study advances with the studyProgress chance
//  2. autoDischarge: each active patient whose studies are all completed leaves
//     with the discharge chance
//  3. autoAdmission: one new patient arrives with the admission chance
//
// The running flag is not consulted; callers only tick a running simulation.
// Inputs are left untouched.
func (e *Engine) RunTick(cfg models.SimulationConfig, patients []models.Patient, studies []models.Study) TickOutcome {
	g := e.UsingProbabilities(cfg.Probabilities)
	out := TickOutcome{Results: TickResults{Events: []EventSummary{}}}

	current := studies
	if cfg.AutoStudyProgress {
		current = make([]models.Study, len(studies))
		copy(current, studies)
		for i, s := range current {
			if s.IsCompleted() || !g.chance(g.probs.StudyProgress) {
				continue
			}
			tr, ok := g.AdvanceStudy(s)
			if !ok {
				continue
			}
			current[i] = tr.Study
			out.UpdatedStudies = append(out.UpdatedStudies, tr.Study)
			out.Results.StudyProgressions++
			if tr.Event != nil {
				out.record(*tr.Event)
			}
		}
	}

	if cfg.AutoDischarge {
		byPatient := make(map[string][]models.Study)
		for _, s := range current {
			byPatient[s.PatientID] = append(byPatient[s.PatientID], s)
		}
		for _, p := range patients {
			if !p.IsActive() || !CanDischarge(byPatient[p.ID]) {
				continue
			}
			if !g.chance(g.probs.Discharge) {
				continue
			}
			ev := g.MakeDischargeEvent(p)
			if p.AllStudiesCompletedAt == nil {
				p.AllStudiesCompletedAt = lastCompletion(byPatient[p.ID])
			}
			out.UpdatedPatients = append(out.UpdatedPatients, Discharge(p, ev.Timestamp))
			out.Results.Discharges++
			out.record(ev)
		}
	}

	if cfg.AutoAdmission && g.chance(g.probs.Admission) {
		p, ss, ev := g.GeneratePatient()
		out.NewPatients = append(out.NewPatients, p)
		out.NewStudies = append(out.NewStudies, ss...)
		out.Results.Admissions++
		out.record(ev)
	}

	return out
}
