package simulation

import (
	"fmt"
	"testing"
	"time"

	"er-patient-tracking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// fixedRand always returns the same values
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(n int) int   { return r.n % n }

func counterIDs() func(string) string {
	i := 0
	return func(prefix string) string {
		i++
		return fmt.Sprintf("%s%04d", prefix, i)
	}
}

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithRand(NewRand(42)),
		WithClock(func() time.Time { return testNow }),
		WithIDFunc(counterIDs()),
	}
	return NewEngine(append(base, opts...)...)
}

func at(minutes int) *time.Time {
	t := testNow.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func TestAdvanceStudy_RequestedToPending(t *testing.T) {
	e := newTestEngine()
	study := models.Study{ID: "S1", PatientID: "P1", Name: "ECG", Status: models.StudyRequested, WaitTime: 10, RequestedAt: testNow}

	for i := 0; i < 50; i++ {
		tr, ok := e.AdvanceStudy(study)
		require.True(t, ok)
		assert.Equal(t, models.StudyPendingResult, tr.Study.Status)
		assert.GreaterOrEqual(t, tr.Study.WaitTime, 15)
		assert.LessOrEqual(t, tr.Study.WaitTime, 25)
		require.NotNil(t, tr.Study.InProgressAt)
		assert.Equal(t, testNow, *tr.Study.InProgressAt)
		assert.Nil(t, tr.Event)
	}

	// the input is not touched
	assert.Equal(t, models.StudyRequested, study.Status)
	assert.Nil(t, study.InProgressAt)
}

func TestAdvanceStudy_PendingToCompleted(t *testing.T) {
	cases := []struct {
		name     string
		hasAlert bool
		wantType models.EventType
	}{
		{"normal result", false, models.EventStudyCompleted},
		{"abnormal result", true, models.EventAlert},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			study := models.Study{ID: "S1", PatientID: "P1", Name: "Chest CT", Status: models.StudyRequested, WaitTime: 10, HasAlert: tc.hasAlert, RequestedAt: testNow}

			first, ok := e.AdvanceStudy(study)
			require.True(t, ok)
			second, ok := e.AdvanceStudy(first.Study)
			require.True(t, ok)

			assert.Equal(t, models.StudyCompleted, second.Study.Status)
			require.NotNil(t, second.Study.CompletedAt)
			assert.GreaterOrEqual(t, second.Study.WaitTime, first.Study.WaitTime+5)
			assert.LessOrEqual(t, second.Study.WaitTime, first.Study.WaitTime+15)
			require.NotNil(t, second.Event)
			assert.Equal(t, tc.wantType, second.Event.Type)
			assert.Equal(t, "S1", second.Event.StudyID)
			assert.Equal(t, "P1", second.Event.PatientID)
			assert.NoError(t, second.Study.Validate())
		})
	}
}

func TestAdvanceStudy_CompletedIsTerminal(t *testing.T) {
	e := newTestEngine()
	study := models.Study{ID: "S1", PatientID: "P1", Status: models.StudyCompleted, InProgressAt: at(-10), CompletedAt: at(-5)}

	tr, ok := e.AdvanceStudy(study)
	assert.False(t, ok)
	assert.Nil(t, tr)
}

func TestAdvanceStudy_NeverDecreasesRank(t *testing.T) {
	e := newTestEngine()
	for _, status := range []models.StudyStatus{models.StudyRequested, models.StudyPendingResult, models.StudyCompleted} {
		study := models.Study{ID: "S1", PatientID: "P1", Status: status, InProgressAt: at(-10)}
		tr, ok := e.AdvanceStudy(study)
		if status == models.StudyCompleted {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, status.Rank()+1, tr.Study.Status.Rank())
	}
}

func TestAdvanceStudy_AlertFlagFollowsCreation(t *testing.T) {
	e := newTestEngine(WithProbabilities(models.Probabilities{Alert: 1}))
	_, studies, _ := e.GeneratePatient()
	require.NotEmpty(t, studies)

	for _, s := range studies {
		require.True(t, s.HasAlert)
		tr, _ := e.AdvanceStudy(s)
		tr, _ = e.AdvanceStudy(tr.Study)
		require.NotNil(t, tr.Event)
		assert.Equal(t, models.EventAlert, tr.Event.Type)
	}
}

func TestCanDischarge(t *testing.T) {
	completed := models.Study{Status: models.StudyCompleted}
	pending := models.Study{Status: models.StudyPendingResult}

	assert.False(t, CanDischarge(nil))
	assert.False(t, CanDischarge([]models.Study{}))
	assert.True(t, CanDischarge([]models.Study{completed}))
	assert.True(t, CanDischarge([]models.Study{completed, completed}))
	assert.False(t, CanDischarge([]models.Study{completed, pending}))
}

func TestMakeDischargeEvent(t *testing.T) {
	e := newTestEngine()
	p := models.Patient{ID: "P1", Name: "Ana Diaz Ruiz", Status: models.PatientActive}

	ev := e.MakeDischargeEvent(p)
	assert.Equal(t, models.EventDischarge, ev.Type)
	assert.Equal(t, "P1", ev.PatientID)
	assert.Equal(t, "Ana Diaz Ruiz was discharged", ev.Message)

	discharged := Discharge(p, ev.Timestamp)
	assert.Equal(t, models.PatientDischarged, discharged.Status)
	require.NotNil(t, discharged.DischargedAt)
	assert.Equal(t, models.PatientActive, p.Status)
}

func TestGeneratePatient(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 100; i++ {
		p, studies, ev := e.GeneratePatient()

		require.NoError(t, p.Validate())
		assert.Equal(t, models.PatientActive, p.Status)
		assert.Contains(t, []models.Severity{models.SeverityCritical, models.SeverityUrgent, models.SeverityStable}, p.Severity)
		assert.GreaterOrEqual(t, p.Age, 18)
		assert.LessOrEqual(t, p.Age, 88)
		assert.Contains(t, DoctorIDs, p.DoctorID)

		assert.GreaterOrEqual(t, len(studies), 1)
		assert.LessOrEqual(t, len(studies), 3)
		for _, s := range studies {
			require.NoError(t, s.Validate())
			assert.Equal(t, p.ID, s.PatientID)
			assert.Equal(t, models.StudyRequested, s.Status)
			assert.Zero(t, s.WaitTime)
		}

		assert.Equal(t, models.EventAdmission, ev.Type)
		assert.Equal(t, p.ID, ev.PatientID)
	}
}

func TestGeneratePatient_SeverityThresholds(t *testing.T) {
	cases := []struct {
		draw float64
		want models.Severity
	}{
		{0.1, models.SeverityCritical},
		{0.45, models.SeverityUrgent},
		{0.9, models.SeverityStable},
	}
	for _, tc := range cases {
		e := newTestEngine(WithRand(fixedRand{f: tc.draw}))
		p, _, _ := e.GeneratePatient()
		assert.Equal(t, tc.want, p.Severity, "draw %.2f", tc.draw)
	}
}

func TestGenerateInitialDataset_OnePatientPerStage(t *testing.T) {
	e := newTestEngine()
	patients, studies, events := e.GenerateInitialDataset(6)
	require.Len(t, patients, len(Stages))

	byPatient := map[string][]models.Study{}
	for _, s := range studies {
		byPatient[s.PatientID] = append(byPatient[s.PatientID], s)
	}
	for i, stage := range Stages {
		assert.Equal(t, stage, StageOf(patients[i], byPatient[patients[i].ID]), "patient %d", i)
	}
	assert.GreaterOrEqual(t, len(events), len(patients))
}

func TestGenerateInitialDataset_ExtraPatients(t *testing.T) {
	e := newTestEngine()
	patients, studies, _ := e.GenerateInitialDataset(15)
	require.Len(t, patients, 15)

	for _, p := range patients {
		assert.NoError(t, p.Validate(), p.ID)
	}
	for _, s := range studies {
		assert.NoError(t, s.Validate(), s.ID)
	}
}

func TestGenerateInitialDataset_SmallCountKeepsStages(t *testing.T) {
	e := newTestEngine()
	patients, _, _ := e.GenerateInitialDataset(2)
	assert.Len(t, patients, len(Stages))
}

func tickFixture() ([]models.Patient, []models.Study) {
	patients := []models.Patient{
		{ID: "P1", Name: "Juan Perez Gomez", Status: models.PatientActive, AdmissionTime: *at(-60)},
		{ID: "P2", Name: "Rosa Diaz Torres", Status: models.PatientActive, AdmissionTime: *at(-30)},
		{ID: "P3", Name: "Laura Ruiz Moreno", Status: models.PatientDischarged, AdmissionTime: *at(-90), DischargedAt: at(-1)},
	}
	studies := []models.Study{
		{ID: "S1", PatientID: "P1", Name: "ECG", Status: models.StudyPendingResult, RequestedAt: *at(-50), InProgressAt: at(-40)},
		{ID: "S2", PatientID: "P2", Name: "Lipase", Status: models.StudyRequested, RequestedAt: *at(-20)},
		{ID: "S3", PatientID: "P3", Name: "Head CT", Status: models.StudyCompleted, RequestedAt: *at(-80), InProgressAt: at(-70), CompletedAt: at(-10)},
	}
	return patients, studies
}

func TestRunTick_AllTogglesOff(t *testing.T) {
	e := newTestEngine()
	patients, studies := tickFixture()
	cfg := models.DefaultSimulationConfig()
	cfg.AutoAdmission, cfg.AutoDischarge, cfg.AutoStudyProgress = false, false, false
	cfg.Probabilities = models.Probabilities{StudyProgress: 1, Discharge: 1, Admission: 1}

	out := e.RunTick(cfg, patients, studies)
	assert.True(t, out.Empty())
	assert.Zero(t, out.Results.Admissions)
	assert.Zero(t, out.Results.Discharges)
	assert.Zero(t, out.Results.StudyProgressions)
	assert.Empty(t, out.Results.Events)
}

func TestRunTick_CertainOutcomes(t *testing.T) {
	e := newTestEngine()
	patients, studies := tickFixture()
	cfg := models.DefaultSimulationConfig()
	cfg.Probabilities = models.Probabilities{StudyProgress: 1, Discharge: 1, Admission: 1}

	out := e.RunTick(cfg, patients, studies)

	// S1 completes, S2 starts; P1 then has every study done and leaves
	assert.Equal(t, 2, out.Results.StudyProgressions)
	assert.Equal(t, 1, out.Results.Discharges)
	assert.Equal(t, 1, out.Results.Admissions)

	require.Len(t, out.UpdatedPatients, 1)
	assert.Equal(t, "P1", out.UpdatedPatients[0].ID)
	assert.Equal(t, models.PatientDischarged, out.UpdatedPatients[0].Status)
	assert.NoError(t, out.UpdatedPatients[0].Validate())

	require.Len(t, out.NewPatients, 1)
	assert.NotEmpty(t, out.NewStudies)

	var types []models.EventType
	for _, ev := range out.NewEvents {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []models.EventType{models.EventStudyCompleted, models.EventDischarge, models.EventAdmission}, types)
	assert.Len(t, out.Results.Events, len(out.NewEvents))

	// inputs untouched
	assert.Equal(t, models.StudyPendingResult, studies[0].Status)
	assert.Equal(t, models.PatientActive, patients[0].Status)
}

func TestRunTick_ZeroChancesChangeNothing(t *testing.T) {
	e := newTestEngine()
	patients, studies := tickFixture()
	cfg := models.DefaultSimulationConfig()
	cfg.Probabilities = models.Probabilities{}

	out := e.RunTick(cfg, patients, studies)
	assert.True(t, out.Empty())
}

func TestUsingProbabilities_DrivesGeneration(t *testing.T) {
	base := newTestEngine()

	calm := base.UsingProbabilities(models.Probabilities{})
	for i := 0; i < 20; i++ {
		p, studies, _ := calm.GeneratePatient()
		assert.Equal(t, models.SeverityStable, p.Severity)
		for _, st := range studies {
			assert.False(t, st.HasAlert)
		}
	}

	grave := base.UsingProbabilities(models.Probabilities{Alert: 1, Critical: 1})
	for i := 0; i < 20; i++ {
		p, studies, _ := grave.GeneratePatient()
		assert.Equal(t, models.SeverityCritical, p.Severity)
		for _, st := range studies {
			assert.True(t, st.HasAlert)
		}
	}

	// the receiver keeps its own table
	assert.Equal(t, models.DefaultProbabilities(), base.probs)
}

func TestRunTick_DischargeNeedsCompletedStudies(t *testing.T) {
	e := newTestEngine()
	patients, studies := tickFixture()
	cfg := models.DefaultSimulationConfig()
	cfg.AutoStudyProgress, cfg.AutoAdmission = false, false
	cfg.Probabilities = models.Probabilities{Discharge: 1}

	out := e.RunTick(cfg, patients, studies)
	assert.Empty(t, out.UpdatedPatients)
	assert.Zero(t, out.Results.Discharges)
}

func timelineFixture() (models.Patient, []models.Study) {
	p := models.Patient{
		ID:                    "P1",
		Name:                  "Carlos Lopez Sanchez",
		Severity:              models.SeverityUrgent,
		DoctorID:              "D003",
		Status:                models.PatientDischarged,
		AdmissionTime:         *at(-180),
		AssignedToDoctorAt:    at(-170),
		FirstStudyRequestedAt: at(-160),
		AllStudiesCompletedAt: at(-60),
		DischargedAt:          at(0),
	}
	studies := []models.Study{
		{ID: "S1", PatientID: "P1", Name: "ECG", Type: "Cardiology", Status: models.StudyCompleted,
			RequestedAt: *at(-160), InProgressAt: at(-140), CompletedAt: at(-100), ReviewedAt: at(-90)},
		{ID: "S2", PatientID: "P1", Name: "Troponin T", Type: "Blood Test", Status: models.StudyCompleted,
			RequestedAt: *at(-160), InProgressAt: at(-150), CompletedAt: at(-60)},
	}
	return p, studies
}

func TestDeriveTimeline_SortedWithDurations(t *testing.T) {
	p, studies := timelineFixture()
	timeline := DeriveTimeline(p, studies)

	require.Len(t, timeline, 11)
	assert.Equal(t, models.TimelineAdmission, timeline[0].Type)
	assert.Zero(t, timeline[0].Duration)
	assert.Equal(t, models.TimelineDischarge, timeline[len(timeline)-1].Type)

	sum := 0
	for i := 1; i < len(timeline); i++ {
		assert.False(t, timeline[i].Timestamp.Before(timeline[i-1].Timestamp))
		sum += timeline[i].Duration
	}
	total := minutesBetween(timeline[0].Timestamp, timeline[len(timeline)-1].Timestamp)
	assert.Equal(t, total, sum)
}

func TestDeriveTimeline_TruncatesPartialMinutes(t *testing.T) {
	p := models.Patient{ID: "P1", AdmissionTime: testNow, Status: models.PatientActive}
	assigned := testNow.Add(90 * time.Second)
	p.AssignedToDoctorAt = &assigned

	timeline := DeriveTimeline(p, nil)
	require.Len(t, timeline, 2)
	assert.Equal(t, 1, timeline[1].Duration)
}

func TestDeriveTimeStats(t *testing.T) {
	p, studies := timelineFixture()
	stats := DeriveTimeStats(p, studies, testNow.Add(time.Hour))

	assert.Equal(t, 180, stats.TotalTime)
	assert.Equal(t, 20+10, stats.WaitingForStudies)
	assert.Equal(t, 10+60, stats.WaitingForReview)
	assert.Equal(t, 40+90, stats.StudiesInProgress)
	assert.Equal(t, 65, stats.AverageStudyTime)
}

func TestDeriveTimeStats_ActivePatientUsesNow(t *testing.T) {
	p := models.Patient{ID: "P1", AdmissionTime: *at(-45), Status: models.PatientActive}
	studies := []models.Study{{ID: "S1", PatientID: "P1", Status: models.StudyRequested, RequestedAt: *at(-30)}}

	stats := DeriveTimeStats(p, studies, testNow)
	assert.Equal(t, 45, stats.TotalTime)
	assert.Equal(t, 30, stats.WaitingForStudies)
	assert.Zero(t, stats.WaitingForReview)
	assert.Zero(t, stats.AverageStudyTime)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", FormatDuration(0))
	assert.Equal(t, "45m", FormatDuration(45))
	assert.Equal(t, "2h", FormatDuration(120))
	assert.Equal(t, "1h 5m", FormatDuration(65))
}
