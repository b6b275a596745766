package handler

import (
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Patients   *PatientHandler
	Studies    *StudyHandler
	Events     *EventHandler
	Doctors    *DoctorHandler
	Simulation *SimulationHandler
}

// RegisterRoutes mounts the health check and the /api routes
func RegisterRoutes(r *gin.Engine, h Handlers) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "er-patient-tracking",
		})
	})

	api := r.Group("/api")

	patients := api.Group("/patients")
	{
		patients.GET("", h.Patients.ListPatients)
		patients.POST("", h.Patients.CreatePatient)
		patients.GET("/:id", h.Patients.GetPatient)
		patients.PUT("/:id", h.Patients.UpdatePatient)
		patients.DELETE("/:id", h.Patients.DeletePatient)
		patients.GET("/:id/timeline", h.Patients.GetTimeline)
	}

	studies := api.Group("/studies")
	{
		studies.GET("", h.Studies.ListStudies)
		studies.POST("", h.Studies.CreateStudy)
		studies.GET("/:id", h.Studies.GetStudy)
		studies.PUT("/:id", h.Studies.UpdateStudy)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Events.ListEvents)
		events.DELETE("", h.Events.ClearEvents)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", h.Doctors.ListDoctors)
		doctors.GET("/:id", h.Doctors.GetDoctor)
	}

	sim := api.Group("/simulation")
	{
		sim.GET("", h.Simulation.GetConfig)
		sim.POST("", h.Simulation.Execute)
	}
}
