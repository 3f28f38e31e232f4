package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/middleware"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/response"
	"github.com/brightboard/brightboard-backend/internal/service"
	"github.com/brightboard/brightboard-backend/internal/validator"
)

// AssessmentHandler handles bulk grading jobs.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	rdb               *redis.Client
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService, rdb *redis.Client) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService, rdb: rdb}
}

// CreateAssessment godoc
// POST /api/v1/assessments
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assessment, err := h.assessmentService.Create(c.Request.Context(), claims.TenantID, &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"assessment": assessment})
}

// ListAssessments godoc
// GET /api/v1/assessments
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	assessments, err := h.assessmentService.List(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assessments": assessments})
}

// GetAssessment godoc
// GET /api/v1/assessments/:assessment_id
// Returns the job, its per-question results, any outsider students and the
// coarse progress snapshot while the job is still running.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assessment, results, outsiders, err := h.assessmentService.GetByID(c.Request.Context(), claims.TenantID, assessmentID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}

	payload := gin.H{
		"assessment": assessment,
		"results":    results,
		"outsiders":  outsiders,
	}
	switch assessment.Status {
	case model.AssessmentStatusProcessing, model.AssessmentStatusSummarising:
		key := config.CacheKey.AssessmentProgressKey(assessmentID.String())
		if progress, err := h.rdb.Get(c.Request.Context(), key).Result(); err == nil {
			payload["progress"] = progress
		}
	}
	response.Success(c, http.StatusOK, payload)
}

// editGradeRequest wraps a teacher override with its target entity.
type editGradeRequest struct {
	StudentID  *uuid.UUID `json:"student_id" binding:"omitempty"`
	OutsiderID *uuid.UUID `json:"outsider_id" binding:"omitempty"`
	QuestionID string     `json:"question_id" binding:"required"`
	Grade      float64    `json:"grade" binding:"min=0"`
	Feedback   *string    `json:"feedback" binding:"omitempty,max=4000"`
}

// EditGrade godoc
// PUT /api/v1/assessments/:assessment_id/grades
func (h *AssessmentHandler) EditGrade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req editGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	identity := model.ResultIdentity{StudentID: req.StudentID, OutsiderID: req.OutsiderID}
	result, err := h.assessmentService.TeacherEdit(c.Request.Context(), claims.TenantID, assessmentID, identity, &model.TeacherEditRequest{
		QuestionID: req.QuestionID,
		Grade:      req.Grade,
		Feedback:   req.Feedback,
	})
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
