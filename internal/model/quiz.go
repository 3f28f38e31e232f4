package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuizStatus enumerates the possible states of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

// Quiz represents a quiz entity. Soft-deleted quizzes (DeletedAt set) are
// excluded from every list/read query unless explicitly requested.
type Quiz struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	ClassID      *uuid.UUID      `json:"class_id,omitempty"`
	Title        string          `json:"title"`
	Description  *string         `json:"description,omitempty"`
	Status       QuizStatus      `json:"status"`
	Settings     json.RawMessage `json:"settings"`
	LastRoomCode *string         `json:"last_room_code,omitempty"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=2000"`
	ClassID     *uuid.UUID      `json:"class_id" binding:"omitempty"`
	Settings    json.RawMessage `json:"settings" binding:"omitempty"`
}

// UpdateQuizRequest is the payload for updating an existing quiz.
type UpdateQuizRequest struct {
	Title       *string         `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=2000"`
	Status      *QuizStatus     `json:"status" binding:"omitempty,oneof=draft published archived"`
	Settings    json.RawMessage `json:"settings" binding:"omitempty"`
}
