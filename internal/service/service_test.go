package service

import (
	"context"
	"testing"
	"time"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	stores     repository.Stores
	patients   *PatientService
	studies    *StudyService
	events     *EventService
	doctors    *DoctorService
	simulation *SimulationService
}

func newTestEnv(t *testing.T, clock func() time.Time) *testEnv {
	t.Helper()
	log := zap.NewNop()
	fs, err := repository.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)
	stores := fs.Stores()

	if clock == nil {
		clock = func() time.Time { return testNow }
	}
	engine := simulation.NewEngine(
		simulation.WithRand(simulation.NewRand(7)),
		simulation.WithClock(clock),
	)
	patients := NewPatientService(stores, engine, log)
	return &testEnv{
		stores:     stores,
		patients:   patients,
		studies:    NewStudyService(stores, engine, log),
		events:     NewEventService(stores.Events),
		doctors:    NewDoctorService(stores.Doctors),
		simulation: NewSimulationService(stores, engine, patients, log),
	}
}

func chance(v float64) *float64 {
	return &v
}

func certainProbabilities() *models.ProbabilitiesUpdate {
	return &models.ProbabilitiesUpdate{StudyProgress: chance(1), Discharge: chance(1), Admission: chance(1)}
}

func TestPatientService_CreateRandomAndList(t *testing.T) {
	env := newTestEnv(t, nil)

	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)
	assert.Equal(t, models.EventAdmission, admitted.Event.Type)
	assert.NotEmpty(t, admitted.Patient.Studies)
	require.NotNil(t, admitted.Patient.Doctor)
	assert.Equal(t, admitted.Patient.DoctorID, admitted.Patient.Doctor.ID)

	list, err := env.patients.List(false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Studies, len(admitted.Patient.Studies))

	got, err := env.patients.Get(admitted.Patient.ID)
	require.NoError(t, err)
	assert.Equal(t, admitted.Patient.Name, got.Name)

	_, err = env.patients.Get("nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPatientService_CreateExplicit(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.patients.Create(CreatePatientInput{})
	assert.ErrorIs(t, err, ErrValidation)

	admitted, err := env.patients.Create(CreatePatientInput{
		Patient: models.Patient{Name: "Marta Gomez Ruiz", Age: 54, Severity: models.SeverityUrgent, DoctorID: "D002"},
		Studies: []models.Study{{Name: "ECG", Type: "Cardiology"}},
	})
	require.NoError(t, err)

	p := admitted.Patient
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.PatientActive, p.Status)
	require.NotNil(t, p.FirstStudyRequestedAt)
	require.Len(t, p.Studies, 1)
	assert.Equal(t, p.ID, p.Studies[0].PatientID)
	assert.Equal(t, models.StudyRequested, p.Studies[0].Status)

	_, err = env.patients.Create(CreatePatientInput{Patient: models.Patient{ID: p.ID, Name: "Duplicate"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.patients.Create(CreatePatientInput{Patient: models.Patient{Name: "X", Severity: "Mild"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPatientService_CreateRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.patients.Create(CreatePatientInput{Patient: models.Patient{Name: "Luis Vega", Status: "bogus"}})
	assert.ErrorIs(t, err, ErrValidation)

	all, err := env.patients.List(true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPatientService_CreateDischargedStampsTime(t *testing.T) {
	env := newTestEnv(t, nil)

	admitted, err := env.patients.Create(CreatePatientInput{
		Patient: models.Patient{Name: "Elena Ortiz", Status: models.PatientDischarged},
	})
	require.NoError(t, err)
	require.NotNil(t, admitted.Patient.DischargedAt)
	assert.Equal(t, testNow, *admitted.Patient.DischargedAt)

	name := "Elena Ortiz Blanco"
	p, err := env.patients.Update(admitted.Patient.ID, PatientUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
}

func TestPatientService_UpdateDischargeAndReadmit(t *testing.T) {
	env := newTestEnv(t, nil)
	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)
	id := admitted.Patient.ID

	room := "Obs 2-B"
	discharged := models.PatientDischarged
	p, err := env.patients.Update(id, PatientUpdate{Room: &room, Status: &discharged})
	require.NoError(t, err)
	assert.Equal(t, "Obs 2-B", p.Room)
	assert.Equal(t, models.PatientDischarged, p.Status)
	require.NotNil(t, p.DischargedAt)

	events, err := env.events.Recent(0)
	require.NoError(t, err)
	var types []models.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, models.EventDischarge)

	active := models.PatientActive
	_, err = env.patients.Update(id, PatientUpdate{Status: &active})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := env.patients.List(false)
	require.NoError(t, err)
	assert.Empty(t, list)
	all, err := env.patients.List(true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPatientService_DeleteCascadesStudies(t *testing.T) {
	env := newTestEnv(t, nil)
	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)

	require.NoError(t, env.patients.Delete(admitted.Patient.ID))

	studies, err := env.studies.List(repository.StudyFilter{PatientID: admitted.Patient.ID})
	require.NoError(t, err)
	assert.Empty(t, studies)
	assert.ErrorIs(t, env.patients.Delete(admitted.Patient.ID), repository.ErrNotFound)
}

func TestPatientService_Timeline(t *testing.T) {
	env := newTestEnv(t, nil)
	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)

	tl, err := env.patients.Timeline(admitted.Patient.ID)
	require.NoError(t, err)
	assert.Equal(t, admitted.Patient.ID, tl.PatientID)
	require.NotEmpty(t, tl.Timeline)
	assert.Equal(t, models.TimelineAdmission, tl.Timeline[0].Type)
	assert.GreaterOrEqual(t, tl.Stats.TotalTime, 1)
}

func TestStudyService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.studies.Create(CreateStudyInput{PatientID: "P1", Name: "ECG"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.studies.Create(CreateStudyInput{PatientID: "missing", Name: "ECG", Type: "Cardiology"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStudyService_CreateProgressComplete(t *testing.T) {
	env := newTestEnv(t, nil)
	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)

	created, err := env.studies.Create(CreateStudyInput{
		PatientID: admitted.Patient.ID, Name: "Head CT", Type: "Tomography", HasAlert: true,
	})
	require.NoError(t, err)
	require.NotNil(t, created.Event)
	assert.Equal(t, models.EventStudyRequested, created.Event.Type)

	id := created.Study.ID
	step, err := env.studies.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, models.StudyPendingResult, step.Study.Status)
	assert.Nil(t, step.Event)

	step, err = env.studies.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, models.StudyCompleted, step.Study.Status)
	require.NotNil(t, step.Event)
	assert.Equal(t, models.EventAlert, step.Event.Type)

	_, err = env.studies.Progress(id)
	assert.ErrorIs(t, err, simulation.ErrStudyCompleted)

	_, err = env.studies.Progress("missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudyService_ManualUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)
	study := admitted.Patient.Studies[0]

	_, err = env.studies.Update(study.ID, StudyUpdate{Reviewed: true})
	assert.ErrorIs(t, err, ErrValidation)

	completed := models.StudyCompleted
	result := "No acute findings"
	change, err := env.studies.Update(study.ID, StudyUpdate{Status: &completed, Result: &result})
	require.NoError(t, err)
	assert.Equal(t, models.StudyCompleted, change.Study.Status)
	assert.NotNil(t, change.Study.InProgressAt)
	assert.NotNil(t, change.Study.CompletedAt)
	require.NotNil(t, change.Event)
	assert.Contains(t, change.Event.Message, admitted.Patient.Name)

	requested := models.StudyRequested
	_, err = env.studies.Update(study.ID, StudyUpdate{Status: &requested})
	assert.ErrorIs(t, err, ErrValidation)

	change, err = env.studies.Update(study.ID, StudyUpdate{Reviewed: true})
	require.NoError(t, err)
	assert.NotNil(t, change.Study.ReviewedAt)
	assert.Nil(t, change.Event)
}

func TestEventService_DefaultLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 12; i++ {
		_, err := env.patients.CreateRandom()
		require.NoError(t, err)
	}

	events, err := env.events.Recent(0)
	require.NoError(t, err)
	assert.Len(t, events, DefaultEventLimit)

	events, err = env.events.Recent(3)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	require.NoError(t, env.events.Clear())
	events, err = env.events.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDoctorService(t *testing.T) {
	env := newTestEnv(t, nil)
	doctors, err := env.doctors.List()
	require.NoError(t, err)
	assert.Len(t, doctors, 10)

	_, err = env.doctors.Get("D404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSimulationService_InvalidAction(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.simulation.Execute(ActionRequest{Action: "explode"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSimulationService_StartStopToggleSpeed(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.simulation.Execute(ActionRequest{Action: ActionStart})
	require.NoError(t, err)
	assert.True(t, res.Config.Simulation.Running)

	res, err = env.simulation.Execute(ActionRequest{Action: ActionToggle})
	require.NoError(t, err)
	assert.False(t, res.Config.Simulation.Running)

	_, err = env.simulation.Execute(ActionRequest{Action: ActionSpeed})
	assert.ErrorIs(t, err, ErrValidation)

	zero := 0.0
	_, err = env.simulation.Execute(ActionRequest{Action: ActionSpeed, SimulationUpdate: models.SimulationUpdate{Speed: &zero}})
	assert.ErrorIs(t, err, ErrValidation)

	fast := 4.0
	res, err = env.simulation.Execute(ActionRequest{Action: ActionSpeed, SimulationUpdate: models.SimulationUpdate{Speed: &fast}})
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Config.Simulation.Speed)
	assert.False(t, res.Config.Simulation.Running)

	res, err = env.simulation.Execute(ActionRequest{Action: ActionStop})
	require.NoError(t, err)
	assert.False(t, res.Config.Simulation.Running)
}

func TestSimulationService_ConfigureKeepsRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.simulation.Execute(ActionRequest{Action: ActionStart})
	require.NoError(t, err)

	off := false
	stopped := false
	res, err := env.simulation.Execute(ActionRequest{Action: ActionConfigure, SimulationUpdate: models.SimulationUpdate{
		Running:       &stopped,
		AutoAdmission: &off,
	}})
	require.NoError(t, err)
	assert.True(t, res.Config.Simulation.Running)
	assert.False(t, res.Config.Simulation.AutoAdmission)

	bad := models.ProbabilitiesUpdate{StudyProgress: chance(1.5)}
	_, err = env.simulation.Execute(ActionRequest{Action: ActionConfigure, SimulationUpdate: models.SimulationUpdate{Probabilities: &bad}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSimulationService_ConfigureMergesProbabilities(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.simulation.Execute(ActionRequest{Action: ActionConfigure, SimulationUpdate: models.SimulationUpdate{
		Probabilities: &models.ProbabilitiesUpdate{Admission: chance(0.9)},
	}})
	require.NoError(t, err)

	want := models.DefaultProbabilities()
	want.Admission = 0.9
	assert.Equal(t, want, res.Config.Simulation.Probabilities)

	cfg, err := env.simulation.Config()
	require.NoError(t, err)
	assert.Equal(t, want, cfg.Simulation.Probabilities)
}

func TestSimulationService_ConfigureAllZeroProbabilities(t *testing.T) {
	env := newTestEnv(t, nil)
	zero := chance(0)

	_, err := env.simulation.Execute(ActionRequest{Action: ActionConfigure, SimulationUpdate: models.SimulationUpdate{
		Probabilities: &models.ProbabilitiesUpdate{
			StudyProgress: zero, Discharge: zero, Admission: zero,
			Alert: zero, Critical: zero, Urgent: zero,
		},
	}})
	require.NoError(t, err)

	cfg, err := env.simulation.Config()
	require.NoError(t, err)
	assert.Equal(t, models.Probabilities{}, cfg.Simulation.Probabilities)

	_, err = env.simulation.Execute(ActionRequest{Action: ActionStart})
	require.NoError(t, err)
	res, err := env.simulation.Execute(ActionRequest{Action: ActionTick})
	require.NoError(t, err)
	assert.Zero(t, res.Results.Admissions)
	assert.Empty(t, res.Results.Events)
}

func TestSimulationService_ConfiguredProbabilitiesDriveGeneration(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.simulation.Execute(ActionRequest{Action: ActionConfigure, SimulationUpdate: models.SimulationUpdate{
		Probabilities: &models.ProbabilitiesUpdate{Alert: chance(1), Critical: chance(1), Urgent: chance(0)},
	}})
	require.NoError(t, err)

	seeded, err := env.simulation.SeedIfEmpty(8)
	require.NoError(t, err)
	require.True(t, seeded)
	seededPatients, err := env.patients.List(true)
	require.NoError(t, err)
	require.Len(t, seededPatients, 8)
	for _, p := range seededPatients {
		assert.Equal(t, models.SeverityCritical, p.Severity)
	}

	for i := 0; i < 10; i++ {
		res, err := env.simulation.Execute(ActionRequest{Action: ActionAdmit})
		require.NoError(t, err)
		assert.Equal(t, models.SeverityCritical, res.Patient.Severity)
		require.NotEmpty(t, res.Patient.Studies)
		for _, st := range res.Patient.Studies {
			assert.True(t, st.HasAlert)
		}
	}

	admitted, err := env.patients.CreateRandom()
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCritical, admitted.Patient.Severity)
}

func TestSimulationService_TickRequiresRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.simulation.Execute(ActionRequest{Action: ActionTick})
	assert.ErrorIs(t, err, ErrSimulationNotRunning)
	assert.True(t, IsNotRunning(err))
}

func TestSimulationService_TickPersistsOutcome(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.simulation.Execute(ActionRequest{Action: ActionStart, SimulationUpdate: models.SimulationUpdate{
		Probabilities: certainProbabilities(),
	}})
	require.NoError(t, err)

	res, err := env.simulation.Execute(ActionRequest{Action: ActionTick})
	require.NoError(t, err)
	require.NotNil(t, res.Results)
	assert.Equal(t, 1, res.Results.Admissions)

	patients, err := env.stores.Patients.List()
	require.NoError(t, err)
	assert.Len(t, patients, 1)

	// second tick moves every requested study to PendingResult
	res, err = env.simulation.Execute(ActionRequest{Action: ActionTick})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Results.StudyProgressions, 1)

	studies, err := env.stores.Studies.List(repository.StudyFilter{PatientID: patients[0].ID})
	require.NoError(t, err)
	for _, s := range studies {
		assert.Equal(t, models.StudyPendingResult, s.Status)
	}

	events, err := env.stores.Events.Recent(0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSimulationService_ResetAndClear(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.simulation.Execute(ActionRequest{Action: ActionStart})
	require.NoError(t, err)

	res, err := env.simulation.Execute(ActionRequest{Action: ActionReset})
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, DefaultDatasetSize, res.Stats.Patients)
	assert.False(t, res.Config.Simulation.Running)

	res, err = env.simulation.Execute(ActionRequest{Action: ActionReset, Count: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Stats.Patients)

	all, err := env.patients.List(true)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = env.simulation.Execute(ActionRequest{Action: ActionClear})
	require.NoError(t, err)
	all, err = env.patients.List(true)
	require.NoError(t, err)
	assert.Empty(t, all)
	events, err := env.events.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSimulationService_AdmitAndSeed(t *testing.T) {
	env := newTestEnv(t, nil)

	seeded, err := env.simulation.SeedIfEmpty(0)
	require.NoError(t, err)
	assert.False(t, seeded)

	res, err := env.simulation.Execute(ActionRequest{Action: ActionAdmit})
	require.NoError(t, err)
	require.NotNil(t, res.Patient)
	require.NotNil(t, res.Event)
	assert.Equal(t, res.Patient.ID, res.Event.PatientID)

	seeded, err = env.simulation.SeedIfEmpty(10)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestWorkerService_TicksWhileRunning(t *testing.T) {
	env := newTestEnv(t, time.Now)
	interval := 10
	_, err := env.simulation.Execute(ActionRequest{Action: ActionStart, SimulationUpdate: models.SimulationUpdate{
		StudyProgressIntervalMs: &interval,
		Probabilities:           certainProbabilities(),
	}})
	require.NoError(t, err)

	worker := NewWorkerService(env.simulation, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		patients, err := env.stores.Patients.List()
		return err == nil && len(patients) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
