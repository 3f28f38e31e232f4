package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/middleware"
	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/service"
	"github.com/brightboard/brightboard-backend/internal/ws"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles WebSocket connections into live quiz rooms.
type WSHandler struct {
	sessionService *service.SessionService
	registry       *ws.Registry
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, registry *ws.Registry, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		registry:       registry,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// HostStream godoc
// WS /ws/v1/sessions/:session_id/host?token=<tenant JWT>
// Host control channel: receives every room event plus host-only stats.
func (h *WSHandler) HostStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// The session must belong to the authenticated tenant.
	if _, err := h.sessionService.GetByID(c.Request.Context(), claims.TenantID, sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	connection := h.registry.Connect(conn, sessionID, ws.RoleHost, claims.TenantID.String(), "host", nil)
	h.sendCurrentState(c, connection, sessionID)
	h.readLoop(connection, nil)
}

// ParticipantStream godoc
// WS /ws/v1/sessions/:session_id/participant?participant_id=...&guest_token=...
// Participant channel: guests authenticate with their capability token,
// rostered students with their participant id.
func (h *WSHandler) ParticipantStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}
	participantID, err := uuid.Parse(c.Query("participant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant ID"})
		return
	}

	participant, err := h.sessionService.AuthoriseParticipant(c.Request.Context(), sessionID, participantID, c.Query("guest_token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	connection := h.registry.Connect(conn, sessionID, ws.RoleParticipant, participant.ID.String(), participant.DisplayName(), &participant.ID)
	h.sessionService.MarkPresence(c.Request.Context(), sessionID, participant.ID, true)
	h.sendCurrentState(c, connection, sessionID)
	h.readLoop(connection, participant)
}

// sendCurrentState pushes the reconnect frame to a freshly admitted socket.
func (h *WSHandler) sendCurrentState(c *gin.Context, connection *ws.Connection, sessionID uuid.UUID) {
	state, err := h.sessionService.CurrentState(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to build current state")
		return
	}
	h.registry.Send(connection, ws.NewEnvelope(ws.EventCurrentState, state))
}

// readLoop services one connection until it closes. participant is nil for
// host sockets.
func (h *WSHandler) readLoop(connection *ws.Connection, participant *model.Participant) {
	sessionID := connection.SessionID
	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("role", string(connection.Role)).
		Str("display_name", connection.DisplayName).
		Logger()

	defer func() {
		h.registry.Disconnect(connection)
		if participant != nil {
			h.sessionService.MarkPresence(context.Background(), sessionID, participant.ID, false)
		}
		wsLog.Debug().Msg("Connection closed")
	}()

	for {
		var msg ws.ClientMessage
		if err := connection.Read(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Type {
		case ws.ActionPong:
			h.registry.Touch(connection)
			if participant != nil {
				if err := h.touchParticipant(sessionID, participant.ID); err != nil {
					wsLog.Debug().Err(err).Msg("Failed to touch participant")
				}
			}

		case ws.ActionSubmitAnswer:
			if participant == nil {
				h.registry.Send(connection, ws.NewEnvelope(ws.EventError,
					ws.ErrorPayload("FORBIDDEN", "hosts cannot submit answers")))
				continue
			}
			h.handleSubmit(connection, participant, &msg)

		case ws.ActionRequestLeaderboard:
			leaderboard, err := h.sessionService.Leaderboard(context.Background(), sessionID)
			if err != nil {
				h.registry.Send(connection, ws.NewEnvelope(ws.EventError,
					ws.ErrorPayload("INTERNAL_ERROR", "could not build leaderboard")))
				continue
			}
			h.registry.Send(connection, ws.NewEnvelope(ws.EventLeaderboardUpdate, map[string]any{
				"leaderboard": leaderboard,
			}))

		default:
			wsLog.Warn().Str("action", string(msg.Type)).Msg("Unknown action")
			h.registry.Send(connection, ws.NewEnvelope(ws.EventError,
				ws.ErrorPayload("UNKNOWN_ACTION", "unknown action: "+string(msg.Type))))
		}
	}
}

func (h *WSHandler) handleSubmit(connection *ws.Connection, participant *model.Participant, msg *ws.ClientMessage) {
	resp, correctAnswer, err := h.sessionService.SubmitAnswer(context.Background(), connection.SessionID, participant.ID, &model.SubmitAnswerRequest{
		QuestionID:  msg.QuestionID,
		Answer:      msg.Answer,
		TimeTakenMs: msg.TimeTakenMs,
	})
	if err != nil {
		h.registry.Send(connection, ws.NewEnvelope(ws.EventError,
			ws.ErrorPayload("SUBMIT_REJECTED", err.Error())))
		return
	}

	receipt := map[string]any{
		"question_id":   resp.QuestionID,
		"is_correct":    resp.IsCorrect,
		"points_earned": resp.PointsEarned,
	}
	if correctAnswer != nil {
		receipt["correct_answer"] = correctAnswer
	}
	h.registry.Send(connection, ws.NewEnvelope(ws.EventAnswerSubmitted, receipt))
}

func (h *WSHandler) touchParticipant(sessionID, participantID uuid.UUID) error {
	return h.sessionService.TouchParticipant(context.Background(), sessionID, participantID)
}
