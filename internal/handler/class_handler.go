package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightboard/brightboard-backend/internal/middleware"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/response"
	"github.com/brightboard/brightboard-backend/internal/service"
	"github.com/brightboard/brightboard-backend/internal/validator"
)

// ClassHandler handles class and roster management.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// ListClasses godoc
// GET /api/v1/classes
func (h *ClassHandler) ListClasses(c *gin.Context) {
	claims := middleware.GetClaims(c)
	classes, err := h.classService.List(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// CreateClass godoc
// POST /api/v1/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), claims.TenantID, &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/v1/classes/:class_id
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	claims := middleware.GetClaims(c)
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.classService.Delete(c.Request.Context(), claims.TenantID, classID); err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GetRoster godoc
// GET /api/v1/classes/:class_id/roster
func (h *ClassHandler) GetRoster(c *gin.Context) {
	claims := middleware.GetClaims(c)
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	roster, err := h.classService.Roster(c.Request.Context(), claims.TenantID, classID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": roster})
}

// UpsertStudent godoc
// POST /api/v1/students
func (h *ClassHandler) UpsertStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.UpsertStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.classService.UpsertStudent(c.Request.Context(), claims.TenantID, &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Enroll godoc
// POST /api/v1/classes/:class_id/students
func (h *ClassHandler) Enroll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddMembershipRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	membership, err := h.classService.Enroll(c.Request.Context(), claims.TenantID, classID, req.StudentID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"membership": membership})
}

// Withdraw godoc
// DELETE /api/v1/classes/:class_id/students/:student_id
func (h *ClassHandler) Withdraw(c *gin.Context) {
	claims := middleware.GetClaims(c)
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.classService.Withdraw(c.Request.Context(), claims.TenantID, classID, studentID); err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
