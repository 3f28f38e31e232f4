package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Response records a participant's answer to one question. Unique on
// (session_id, participant_id, question_id) — each question is answered at
// most once. IsCorrect is null for poll-type questions.
type Response struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	QuestionID    uuid.UUID       `json:"question_id"`
	Answer        json.RawMessage `json:"answer"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
	PointsEarned  int             `json:"points_earned"`
	TimeTakenMs   int64           `json:"time_taken_ms"`
	AnsweredAt    time.Time       `json:"answered_at"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	QuestionID  uuid.UUID       `json:"question_id" binding:"required"`
	Answer      json.RawMessage `json:"answer" binding:"required"`
	TimeTakenMs int64           `json:"time_taken_ms" binding:"min=0"`
}
