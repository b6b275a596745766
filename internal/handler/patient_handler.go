package handler

import (
	"errors"
	"io"
	"net/http"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/service"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	patientService *service.PatientService
}

func NewPatientHandler(patientService *service.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// createPatientRequest admits a random patient unless random is false
type createPatientRequest struct {
	Random  *bool           `json:"random"`
	Patient *models.Patient `json:"patient"`
	Studies []models.Study  `json:"studies"`
}

// ListPatients returns active patients, or all of them with ?all=true
func (h *PatientHandler) ListPatients(c *gin.Context) {
	patients, err := h.patientService.List(c.Query("all") == "true")
	if err != nil {
		respondError(c, err, "Failed to fetch patients")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatient returns one patient with its studies and doctor
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.patientService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch patient")
		return
	}

	utils.SuccessResponse(c, gin.H{"patient": patient})
}

// CreatePatient admits a random patient, or the one described in the body
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		admitted *service.AdmissionResult
		err      error
	)
	if req.Random == nil || *req.Random {
		admitted, err = h.patientService.CreateRandom()
	} else {
		if req.Patient == nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "patient is required")
			return
		}
		admitted, err = h.patientService.Create(service.CreatePatientInput{
			Patient: *req.Patient,
			Studies: req.Studies,
		})
	}
	if err != nil {
		respondError(c, err, "Failed to create patient")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    admitted,
	})
}

// UpdatePatient applies a partial update
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var update service.PatientUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patient, err := h.patientService.Update(c.Param("id"), update)
	if err != nil {
		respondError(c, err, "Failed to update patient")
		return
	}

	utils.SuccessResponse(c, gin.H{"patient": patient})
}

// DeletePatient removes a patient and its studies
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.patientService.Delete(c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete patient")
		return
	}

	utils.MessageResponse(c, "Patient deleted successfully")
}

// GetTimeline returns the derived milestone history of a patient
func (h *PatientHandler) GetTimeline(c *gin.Context) {
	timeline, err := h.patientService.Timeline(c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to build timeline")
		return
	}

	utils.SuccessResponse(c, timeline)
}
