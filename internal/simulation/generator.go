package simulation

import (
	"fmt"
	"time"

	"er-patient-tracking/internal/models"
)

type studyKind struct {
	Name string
	Type string
}

var diagnoses = []string{
	"Acute Myocardial Infarction",
	"Acute Appendicitis",
	"Stroke",
	"Femur Fracture",
	"Pulmonary Embolism",
	"Bilateral Pneumonia",
	"Acute Pancreatitis",
	"Gastrointestinal Bleeding",
	"Sepsis",
	"Traumatic Brain Injury",
	"Complicated Pyelonephritis",
	"Atypical Chest Pain",
	"Diabetic Ketoacidosis",
	"Decompensated Heart Failure",
	"Mesenteric Embolism",
}

// StudyCatalog is the fixed list of studies the generator draws from
var StudyCatalog = []studyKind{
	{"ECG", "Cardiology"},
	{"Chest X-Ray", "Radiography"},
	{"Chest CT", "Tomography"},
	{"Abdominal Ultrasound", "Ultrasound"},
	{"Blood Panel", "Blood Test"},
	{"Troponin T", "Blood Test"},
	{"Head CT", "Tomography"},
	{"Brain MRI", "MRI"},
	{"Pelvis X-Ray", "Radiography"},
	{"D-Dimer", "Blood Test"},
	{"CT Angiography", "Tomography"},
	{"Urinalysis", "Urine Test"},
	{"Sputum Culture", "Microbiology"},
	{"Lipase", "Blood Test"},
	{"Echocardiogram", "Ultrasound"},
}

var insurances = []string{
	"Medife", "OSDE", "Swiss Medical", "Galeno", "Presente", "PAMI", "Self-pay",
}

var firstNames = []string{
	"Roberto", "Maria", "Juan", "Ana", "Carlos", "Marta", "Pedro", "Laura",
	"Miguel", "Isabel", "Francisco", "Rosa", "Diego", "Carmen", "Antonio",
	"Francisca", "Javier", "Esperanza", "Manuel", "Dolores",
}

var lastNames = []string{
	"Garcia", "Lopez", "Rodriguez", "Martinez", "Fernandez", "Diaz",
	"Perez", "Sanchez", "Moreno", "Jimenez", "Ruiz", "Hernandez",
	"Torres", "Gomez", "Romero",
}

var roomAreas = []string{"Resus", "Obs", "Trauma", "Pulm", "ICU"}

// DoctorIDs are the identifiers of the default doctor roster
var DoctorIDs = []string{
	"D001", "D002", "D003", "D004", "D005",
	"D006", "D007", "D008", "D009", "D010",
}

// Stage is a dashboard column a patient can sit in
type Stage string

const (
	StageAdmission     Stage = "admission"
	StageWaitingDoctor Stage = "waiting_doctor"
	StageInStudies     Stage = "in_studies"
	StageResultsReady  Stage = "results_ready"
	StageInProgress    Stage = "in_progress"
	StageDischarged    Stage = "discharged"
)

// Stages lists the dashboard columns in board order
var Stages = []Stage{
	StageAdmission,
	StageWaitingDoctor,
	StageInStudies,
	StageResultsReady,
	StageInProgress,
	StageDischarged,
}

// StageOf classifies a patient into its dashboard column
func StageOf(p models.Patient, studies []models.Study) Stage {
	switch {
	case p.Status == models.PatientDischarged:
		return StageDischarged
	case p.AssignedToDoctorAt == nil:
		return StageAdmission
	case len(studies) == 0:
		return StageWaitingDoctor
	case !CanDischarge(studies):
		return StageInStudies
	case p.AllStudiesCompletedAt == nil:
		return StageResultsReady
	default:
		return StageInProgress
	}
}

// GeneratePatient builds one freshly admitted patient with 1 to 3 requested
// studies and its admission event. The doctor picks the patient up 1-5
// minutes after arrival and orders the studies right away.
func (e *Engine) GeneratePatient() (models.Patient, []models.Study, models.Event) {
	now := e.now()
	admitted := now.Add(-time.Duration(e.intBetween(1, 5)) * time.Minute)
	patientID := e.newID("P")

	p := models.Patient{
		ID:                    patientID,
		Name:                  fmt.Sprintf("%s %s %s", pick(e, firstNames), pick(e, lastNames), pick(e, lastNames)),
		Age:                   e.intBetween(18, 88),
		Gender:                "M",
		Insurance:             pick(e, insurances),
		Diagnosis:             pick(e, diagnoses),
		Severity:              e.drawSeverity(),
		Room:                  fmt.Sprintf("%s %d-%c", pick(e, roomAreas), e.intBetween(1, 5), 'A'+rune(e.intBetween(0, 2))),
		DoctorID:              pick(e, DoctorIDs),
		Phone:                 fmt.Sprintf("123-456-%03d", e.intBetween(0, 999)),
		Status:                models.PatientActive,
		AdmissionTime:         admitted,
		AssignedToDoctorAt:    timePtr(now),
		FirstStudyRequestedAt: timePtr(now),
	}
	if e.chance(0.5) {
		p.Gender = "F"
	}

	n := 1
	if !e.chance(0.4) {
		n = 2
		if e.chance(0.5) {
			n = 3
		}
	}
	studies := make([]models.Study, 0, n)
	for i := 0; i < n; i++ {
		kind := pick(e, StudyCatalog)
		studies = append(studies, models.Study{
			ID:          e.newID("S"),
			PatientID:   patientID,
			Name:        kind.Name,
			Type:        kind.Type,
			Status:      models.StudyRequested,
			RequestedAt: now,
			HasAlert:    e.chance(e.probs.Alert),
		})
	}

	return p, studies, e.admissionEvent(p, now)
}

func (e *Engine) drawSeverity() models.Severity {
	r := e.rand.Float64()
	switch {
	case r < e.probs.Critical:
		return models.SeverityCritical
	case r < e.probs.Critical+e.probs.Urgent:
		return models.SeverityUrgent
	default:
		return models.SeverityStable
	}
}

// AdmissionEvent builds the admission event for a patient entered by hand
func (e *Engine) AdmissionEvent(p models.Patient) models.Event {
	return e.admissionEvent(p, e.now())
}

func (e *Engine) admissionEvent(p models.Patient, at time.Time) models.Event {
	return models.Event{
		ID:        e.newID("E"),
		Type:      models.EventAdmission,
		PatientID: p.ID,
		Message:   fmt.Sprintf("%s was admitted to the emergency room", p.Name),
		Timestamp: at,
	}
}

// GenerateInitialDataset seeds one patient per dashboard stage, in Stages
// order, followed by count-6 patients in randomized states. Milestones are
// backdated so every stage looks plausible on first render.
func (e *Engine) GenerateInitialDataset(count int) ([]models.Patient, []models.Study, []models.Event) {
	var (
		patients []models.Patient
		studies  []models.Study
		events   []models.Event
	)

	for _, stage := range Stages {
		p, ss, evs := e.stagedPatient(stage)
		patients = append(patients, p)
		studies = append(studies, ss...)
		events = append(events, evs...)
	}

	for i := len(Stages); i < count; i++ {
		p, ss, ev := e.randomizedPatient()
		patients = append(patients, p)
		studies = append(studies, ss...)
		events = append(events, ev)
	}

	return patients, studies, events
}

func (e *Engine) stagedPatient(stage Stage) (models.Patient, []models.Study, []models.Event) {
	p, studies, _ := e.GeneratePatient()

	// each range sits strictly after the previous one so milestones stay ordered
	switch stage {
	case StageAdmission:
		p.AdmissionTime = e.minutesAgo(1, 5)
		p.AssignedToDoctorAt = nil
		p.FirstStudyRequestedAt = nil
		studies = nil

	case StageWaitingDoctor:
		p.AdmissionTime = e.minutesAgo(16, 25)
		p.AssignedToDoctorAt = timePtr(e.minutesAgo(5, 15))
		p.FirstStudyRequestedAt = nil
		studies = nil

	case StageInStudies:
		p.AdmissionTime = e.minutesAgo(45, 60)
		p.AssignedToDoctorAt = timePtr(e.minutesAgo(20, 40))
		p.FirstStudyRequestedAt = timePtr(e.minutesAgo(10, 19))
		for i := range studies {
			studies[i].RequestedAt = *p.FirstStudyRequestedAt
			if e.chance(0.5) {
				studies[i].Status = models.StudyPendingResult
				studies[i].InProgressAt = timePtr(e.minutesAgo(1, 9))
				studies[i].WaitTime = e.intBetween(15, 40)
			} else {
				studies[i].WaitTime = e.intBetween(5, 20)
			}
		}

	case StageResultsReady:
		p.AdmissionTime = e.minutesAgo(100, 120)
		p.AssignedToDoctorAt = timePtr(e.minutesAgo(60, 90))
		p.FirstStudyRequestedAt = timePtr(e.minutesAgo(50, 59))
		e.completeStudies(studies, *p.FirstStudyRequestedAt, [2]int{30, 45}, [2]int{5, 15}, [2]int{40, 80})

	case StageInProgress:
		p.AdmissionTime = e.minutesAgo(130, 150)
		p.AssignedToDoctorAt = timePtr(e.minutesAgo(90, 120))
		p.FirstStudyRequestedAt = timePtr(e.minutesAgo(80, 89))
		e.completeStudies(studies, *p.FirstStudyRequestedAt, [2]int{60, 75}, [2]int{20, 40}, [2]int{60, 100})
		p.AllStudiesCompletedAt = lastCompletion(studies)

	case StageDischarged:
		p.AdmissionTime = e.minutesAgo(190, 210)
		p.AssignedToDoctorAt = timePtr(e.minutesAgo(120, 180))
		p.FirstStudyRequestedAt = timePtr(e.minutesAgo(110, 119))
		e.completeStudies(studies, *p.FirstStudyRequestedAt, [2]int{90, 105}, [2]int{30, 60}, [2]int{80, 120})
		p.AllStudiesCompletedAt = lastCompletion(studies)
		p = Discharge(p, e.now())
	}

	events := []models.Event{e.admissionEvent(p, p.AdmissionTime)}
	if stage == StageDischarged {
		ev := e.MakeDischargeEvent(p)
		ev.Timestamp = *p.DischargedAt
		events = append(events, ev)
	}
	return p, studies, events
}

// completeStudies marks every study completed with backdated milestones;
// the ranges are minutes ago for inProgressAt and completedAt, then waitTime
func (e *Engine) completeStudies(studies []models.Study, requested time.Time, inProgress, completed, wait [2]int) {
	for i := range studies {
		studies[i].Status = models.StudyCompleted
		studies[i].RequestedAt = requested
		studies[i].InProgressAt = timePtr(e.minutesAgo(inProgress[0], inProgress[1]))
		studies[i].CompletedAt = timePtr(e.minutesAgo(completed[0], completed[1]))
		studies[i].WaitTime = e.intBetween(wait[0], wait[1])
	}
}

func (e *Engine) randomizedPatient() (models.Patient, []models.Study, models.Event) {
	p, studies, _ := e.GeneratePatient()

	p.AdmissionTime = e.minutesAgo(140, 180)
	p.AssignedToDoctorAt = timePtr(p.AdmissionTime.Add(time.Duration(e.intBetween(1, 5)) * time.Minute))
	p.FirstStudyRequestedAt = timePtr(p.AssignedToDoctorAt.Add(time.Duration(e.intBetween(1, 5)) * time.Minute))

	for i := range studies {
		s := &studies[i]
		s.RequestedAt = *p.FirstStudyRequestedAt
		r := e.rand.Float64()
		switch {
		case r > 0.6:
			s.Status = models.StudyCompleted
			s.InProgressAt = timePtr(e.minutesAgo(60, 119))
			s.CompletedAt = timePtr(e.minutesAgo(0, 10))
			s.WaitTime = e.intBetween(30, 120)
		case r > 0.3:
			s.Status = models.StudyPendingResult
			s.InProgressAt = timePtr(e.minutesAgo(15, 59))
			s.WaitTime = e.intBetween(15, 60)
		default:
			s.WaitTime = e.intBetween(5, 30)
		}
	}

	if CanDischarge(studies) {
		p.AllStudiesCompletedAt = lastCompletion(studies)
	}
	return p, studies, e.admissionEvent(p, p.AdmissionTime)
}

func lastCompletion(studies []models.Study) *time.Time {
	var last *time.Time
	for _, s := range studies {
		if s.CompletedAt != nil && (last == nil || s.CompletedAt.After(*last)) {
			last = timePtr(*s.CompletedAt)
		}
	}
	return last
}
