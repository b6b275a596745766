package handler

import (
	"er-patient-tracking/internal/service"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	doctorService *service.DoctorService
}

func NewDoctorHandler(doctorService *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{
		doctorService: doctorService,
	}
}

// ListDoctors returns the doctor roster
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctorService.List()
	if err != nil {
		respondError(c, err, "Failed to fetch doctors")
		return
	}

	utils.SuccessResponse(c, gin.H{"doctors": doctors})
}

// GetDoctor returns a doctor by ID
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	doctor, err := h.doctorService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch doctor")
		return
	}

	utils.SuccessResponse(c, gin.H{"doctor": doctor})
}
