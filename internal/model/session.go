package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates live quiz session states.
type SessionStatus string

const (
	SessionStatusWaiting    SessionStatus = "waiting"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// Session represents a live quiz session. RoomCode is globally unique among
// non-terminal sessions; once the session ends the code may be reused.
type Session struct {
	ID                   uuid.UUID       `json:"id"`
	QuizID               uuid.UUID       `json:"quiz_id"`
	TenantID             uuid.UUID       `json:"tenant_id"`
	Status               SessionStatus   `json:"status"`
	RoomCode             string          `json:"room_code"`
	CurrentQuestionIndex int             `json:"current_question_index"`
	ConfigSnapshot       json.RawMessage `json:"config_snapshot"`
	TimeoutHours         int             `json:"timeout_hours"`
	StartedAt            *time.Time      `json:"started_at,omitempty"`
	EndedAt              *time.Time      `json:"ended_at,omitempty"`
	AutoEndedAt          *time.Time      `json:"auto_ended_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// SessionSnapshot is the frozen copy of the quiz and its questions taken at
// session creation, so mid-session edits to the quiz do not perturb the
// running session.
type SessionSnapshot struct {
	QuizID    uuid.UUID       `json:"quiz_id"`
	Title     string          `json:"title"`
	Settings  json.RawMessage `json:"settings"`
	Questions []Question      `json:"questions"`
}

// Snapshot decodes the session's frozen quiz config.
func (s *Session) Snapshot() (*SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := json.Unmarshal(s.ConfigSnapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EndReason distinguishes host-initiated completion, cancellation and
// scheduler timeout.
type EndReason string

const (
	EndReasonCompleted EndReason = "completed"
	EndReasonCancelled EndReason = "cancelled"
	EndReasonTimeout   EndReason = "timeout"
)

// CreateSessionRequest is the payload for creating a live session.
type CreateSessionRequest struct {
	QuizID uuid.UUID `json:"quiz_id" binding:"required"`
}

// EndSessionRequest is the payload for ending a session.
type EndSessionRequest struct {
	Reason string `json:"reason" binding:"omitempty,oneof=completed cancelled"`
}
