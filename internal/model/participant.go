package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdentityKind discriminates the participant identity variant.
type IdentityKind string

const (
	IdentityStudent         IdentityKind = "student"
	IdentityGuest           IdentityKind = "guest"
	IdentityIdentifiedGuest IdentityKind = "identified_guest"
)

// ParticipantIdentity is the explicit one-of replacing mixed nullable
// columns: exactly one variant is populated.
//   - Student:          StudentID set
//   - Guest:            GuestName set (token lives on the participant row)
//   - IdentifiedGuest:  GuestName and StudentRef (external id string) set
type ParticipantIdentity struct {
	Kind       IdentityKind `json:"kind"`
	StudentID  *uuid.UUID   `json:"student_id,omitempty"`
	GuestName  string       `json:"guest_name,omitempty"`
	StudentRef string       `json:"student_ref,omitempty"`
}

// Validate enforces the exactly-one-variant constraint.
func (id ParticipantIdentity) Validate() error {
	switch id.Kind {
	case IdentityStudent:
		if id.StudentID == nil || id.GuestName != "" {
			return fmt.Errorf("student identity requires student_id and no guest name")
		}
	case IdentityGuest:
		if id.GuestName == "" || id.StudentID != nil {
			return fmt.Errorf("guest identity requires guest name and no student_id")
		}
	case IdentityIdentifiedGuest:
		if id.GuestName == "" || id.StudentRef == "" {
			return fmt.Errorf("identified guest requires guest name and student ref")
		}
	default:
		return fmt.Errorf("unknown identity kind %q", id.Kind)
	}
	return nil
}

// Participant is a member of a live session. Score counters are monotone
// non-decreasing during a session. GuestToken is a 256-bit URL-safe secret,
// unique across all participants; empty for registered students.
type Participant struct {
	ID             uuid.UUID           `json:"id"`
	SessionID      uuid.UUID           `json:"session_id"`
	Identity       ParticipantIdentity `json:"identity"`
	GuestToken     string              `json:"-"`
	Score          int                 `json:"score"`
	CorrectAnswers int                 `json:"correct_answers"`
	TotalTimeMs    int64               `json:"total_time_ms"`
	IsActive       bool                `json:"is_active"`
	JoinedAt       time.Time           `json:"joined_at"`
	LastSeenAt     time.Time           `json:"last_seen_at"`
	AnonymisedAt   *time.Time          `json:"anonymised_at,omitempty"`
}

// DisplayName is the name broadcast to the room.
func (p *Participant) DisplayName() string {
	if p.Identity.GuestName != "" {
		return p.Identity.GuestName
	}
	return p.Identity.StudentRef
}

// JoinSessionRequest is the payload for joining by room code. Exactly one of
// the three joiner shapes applies:
//   - guest:            name only
//   - student:          external_id only
//   - identified guest: name + external_id
type JoinSessionRequest struct {
	Name       string `json:"name" binding:"omitempty,min=1,max=64"`
	ExternalID string `json:"external_id" binding:"omitempty,min=1,max=64"`
}

// LeaderboardEntry is one ranked row of the session leaderboard.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	ParticipantID  uuid.UUID `json:"participant_id"`
	DisplayName    string    `json:"display_name"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalTimeMs    int64     `json:"total_time_ms"`
	IsActive       bool      `json:"is_active"`
}
