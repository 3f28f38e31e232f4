package model

import (
	"time"

	"github.com/google/uuid"
)

// Class groups students under a tenant. Deleting a class cascades to its
// memberships but never to the Student rows.
type Class struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Student is a rostered learner. ExternalID is teacher-assigned and unique
// within the tenant.
type Student struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          *uuid.UUID `json:"tenant_id,omitempty"`
	Name              string     `json:"name"`
	ExternalID        string     `json:"external_id"`
	OverallGradeCache *float64   `json:"overall_grade_cache,omitempty"`
}

// StudentClassMembership links a student to a class. Unique on
// (student_id, class_id).
type StudentClassMembership struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	ClassID   uuid.UUID `json:"class_id"`
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// UpsertStudentRequest is the payload for creating or updating a student.
type UpsertStudentRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=255"`
	ExternalID string `json:"external_id" binding:"required,min=1,max=64"`
}

// AddMembershipRequest enrolls a student into a class.
type AddMembershipRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
}
