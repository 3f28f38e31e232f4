package ws

import (
	"encoding/json"
	"time"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
)

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventConnectionEstablished Event = "connection_established"
	EventCurrentState          Event = "current_state"
	EventSessionStarted        Event = "session_started"
	EventSessionEnded          Event = "session_ended"
	EventQuestionStarted       Event = "question_started"
	EventLeaderboardUpdate     Event = "leaderboard_update"
	EventParticipantJoined     Event = "participant_joined"
	EventParticipantLeft       Event = "participant_left"
	EventParticipantAnswered   Event = "participant_answered"
	EventAnswerSubmitted       Event = "answer_submitted"
	EventStatsUpdate           Event = "stats_update"
	EventPing                  Event = "ping"
	EventError                 Event = "error"
)

// Envelope is the single serialisation contract: every server→client frame
// carries a type, an RFC3339 timestamp and a flat payload.
type Envelope struct {
	Type      Event          `json:"type"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"-"`
}

// MarshalJSON flattens the payload fields next to type and timestamp.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Payload)+2)
	for k, v := range e.Payload {
		out[k] = v
	}
	out["type"] = e.Type
	out["timestamp"] = e.Timestamp
	return json.Marshal(out)
}

// NewEnvelope stamps a frame with the current UTC time.
func NewEnvelope(t Event, payload map[string]any) Envelope {
	return Envelope{
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPong               Action = "pong"
	ActionSubmitAnswer       Action = "submit_answer"
	ActionRequestLeaderboard Action = "request_leaderboard"
)

// ClientMessage is used to peek at the action before full parsing.
type ClientMessage struct {
	Type        Action          `json:"type"`
	QuestionID  uuid.UUID       `json:"question_id,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	TimeTakenMs int64           `json:"time_taken_ms,omitempty"`
}

// ─── Payload builders ───────────────────────────────────────────────

// QuestionPayload is the question_started.question shape. The answer key is
// never included.
type QuestionPayload struct {
	ID               uuid.UUID          `json:"id"`
	Text             string             `json:"text"`
	Type             model.QuestionType `json:"type"`
	Options          json.RawMessage    `json:"options"`
	Points           int                `json:"points"`
	OrderIndex       int                `json:"order_index"`
	TimeLimitSeconds *int               `json:"time_limit_seconds,omitempty"`
}

// QuestionForBroadcast strips the answer key off a snapshot question.
func QuestionForBroadcast(q model.Question) QuestionPayload {
	return QuestionPayload{
		ID:               q.ID,
		Text:             q.Text,
		Type:             q.QuestionType,
		Options:          q.Options,
		Points:           q.Points,
		OrderIndex:       q.OrderIndex,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// ErrorPayload builds the error frame body.
func ErrorPayload(code, message string) map[string]any {
	return map[string]any{
		"error": map[string]string{"code": code, "message": message},
	}
}
