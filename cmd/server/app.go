package main

import (
	"er-patient-tracking/internal/config"
	"er-patient-tracking/internal/database"
	"er-patient-tracking/internal/handler"
	"er-patient-tracking/internal/middleware"
	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/service"
	"er-patient-tracking/internal/simulation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired services of one process
type app struct {
	log        *zap.Logger
	db         *gorm.DB
	patients   *service.PatientService
	studies    *service.StudyService
	events     *service.EventService
	doctors    *service.DoctorService
	simulation *service.SimulationService
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, err
	}

	engine := simulation.NewEngine()
	patients := service.NewPatientService(stores, engine, log)

	return &app{
		log:        log,
		db:         db,
		patients:   patients,
		studies:    service.NewStudyService(stores, engine, log),
		events:     service.NewEventService(stores.Events),
		doctors:    service.NewDoctorService(stores.Doctors),
		simulation: service.NewSimulationService(stores, engine, patients, log),
	}, nil
}

// buildStores always keeps doctors and the simulation config as JSON
// documents; with the mysql driver patients, studies and events move to the
// database
func buildStores(cfg *config.Config, log *zap.Logger) (repository.Stores, *gorm.DB, error) {
	fs, err := repository.NewFileStore(cfg.Storage.DataDir, log)
	if err != nil {
		return repository.Stores{}, nil, err
	}
	stores := fs.Stores()

	if cfg.Storage.Driver != config.StorageMySQL {
		log.Info("using JSON file storage", zap.String("dir", fs.Dir()))
		return stores, nil, nil
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return repository.Stores{}, nil, err
	}
	stores.Patients = repository.NewPatientRepo(db)
	stores.Studies = repository.NewStudyRepo(db)
	stores.Events = repository.NewEventRepo(db)
	return stores, db, nil
}

// Router builds the gin engine with the global middleware and every route
func (a *app) Router(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(a.log))
	r.Use(middleware.CORS(cfg))

	handler.RegisterRoutes(r, handler.Handlers{
		Patients:   handler.NewPatientHandler(a.patients),
		Studies:    handler.NewStudyHandler(a.studies),
		Events:     handler.NewEventHandler(a.events),
		Doctors:    handler.NewDoctorHandler(a.doctors),
		Simulation: handler.NewSimulationHandler(a.simulation),
	})
	return r
}

// Close releases the database connection, if any
func (a *app) Close() {
	if a.db == nil {
		return
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
}
