package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightboard/brightboard-backend/internal/middleware"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/response"
	"github.com/brightboard/brightboard-backend/internal/service"
	"github.com/brightboard/brightboard-backend/internal/validator"
)

// AuthHandler handles tenant registration and login.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tenant, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}

	token, err := h.authService.GenerateToken(tenant)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"tenant": tenant, "token": token})
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, tenant, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tenant": tenant, "token": token})
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)

	tenant, err := h.authService.Me(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tenant": tenant})
}
