package handler

import (
	"net/http"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/repository"
	"er-patient-tracking/internal/service"
	"er-patient-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

const studyActionProgress = "progress"

type StudyHandler struct {
	studyService *service.StudyService
}

func NewStudyHandler(studyService *service.StudyService) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
	}
}

// updateStudyRequest either progresses the study or applies a manual change
type updateStudyRequest struct {
	Action string `json:"action"`
	service.StudyUpdate
}

// ListStudies returns studies filtered by ?patientId= and ?status=
func (h *StudyHandler) ListStudies(c *gin.Context) {
	studies, err := h.studyService.List(repository.StudyFilter{
		PatientID: c.Query("patientId"),
		Status:    models.StudyStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch studies")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"studies": studies,
		"count":   len(studies),
	})
}

// GetStudy returns a study by ID
func (h *StudyHandler) GetStudy(c *gin.Context) {
	study, err := h.studyService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch study")
		return
	}

	utils.SuccessResponse(c, gin.H{"study": study})
}

// CreateStudy orders a study for a patient
func (h *StudyHandler) CreateStudy(c *gin.Context) {
	var input service.CreateStudyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	change, err := h.studyService.Create(input)
	if err != nil {
		respondError(c, err, "Failed to create study")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    change,
	})
}

// UpdateStudy handles {"action":"progress"} or a manual status/result change
func (h *StudyHandler) UpdateStudy(c *gin.Context) {
	var req updateStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		change *service.StudyChange
		err    error
	)
	switch req.Action {
	case studyActionProgress:
		change, err = h.studyService.Progress(c.Param("id"))
	case "":
		change, err = h.studyService.Update(c.Param("id"), req.StudyUpdate)
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "Unknown study action: "+req.Action)
		return
	}
	if err != nil {
		respondError(c, err, "Failed to update study")
		return
	}

	utils.SuccessResponse(c, change)
}
