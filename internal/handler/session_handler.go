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

// SessionHandler handles the HTTP side of live quiz sessions: room creation,
// host controls and joining by room code. Real-time traffic lives on the
// WebSocket handler.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// CreateSession godoc
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), claims.TenantID, &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), claims.TenantID, sessionID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	participants, err := h.sessionService.Participants(c.Request.Context(), claims.TenantID, sessionID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session, "participants": participants})
}

// StartSession godoc
// POST /api/v1/sessions/:session_id/start
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), claims.TenantID, sessionID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// AdvanceSession godoc
// POST /api/v1/sessions/:session_id/advance
func (h *SessionHandler) AdvanceSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Advance(c.Request.Context(), claims.TenantID, sessionID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// EndSession godoc
// POST /api/v1/sessions/:session_id/end
func (h *SessionHandler) EndSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.EndSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	reason := model.EndReasonCompleted
	if req.Reason == string(model.EndReasonCancelled) {
		reason = model.EndReasonCancelled
	}

	session, err := h.sessionService.End(c.Request.Context(), claims.TenantID, sessionID, reason)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetLeaderboard godoc
// GET /api/v1/sessions/:session_id/leaderboard
func (h *SessionHandler) GetLeaderboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Tenant scope check before the cross-tenant leaderboard query.
	if _, err := h.sessionService.GetByID(c.Request.Context(), claims.TenantID, sessionID); err != nil {
		response.FromDomain(c, err)
		return
	}

	leaderboard, err := h.sessionService.Leaderboard(c.Request.Context(), sessionID)
	if err != nil {
		response.FromDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"leaderboard": leaderboard})
}

// JoinSession godoc
// POST /api/v1/join/:room_code
// Public: participants join with a room code, no tenant JWT involved.
func (h *SessionHandler) JoinSession(c *gin.Context) {
	var req model.JoinSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, participant, err := h.sessionService.Join(c.Request.Context(), c.Param("room_code"), &req)
	if err != nil {
		response.FromDomain(c, err)
		return
	}

	payload := gin.H{
		"session_id":     session.ID,
		"participant_id": participant.ID,
		"display_name":   participant.DisplayName(),
		"status":         session.Status,
	}
	// The guest token travels once, in this response only.
	if participant.GuestToken != "" {
		payload["guest_token"] = participant.GuestToken
	}
	response.Success(c, http.StatusCreated, payload)
}
