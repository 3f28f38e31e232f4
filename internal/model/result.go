package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates per-question grading result states.
type ResultStatus string

const (
	ResultStatusPendingGrade  ResultStatus = "PENDING_GRADE"
	ResultStatusMatched       ResultStatus = "MATCHED"
	ResultStatusAIGraded      ResultStatus = "AI_GRADED"
	ResultStatusPendingReview ResultStatus = "PENDING_REVIEW"
	ResultStatusTeacherGraded ResultStatus = "TEACHER_GRADED"
	ResultStatusFailed        ResultStatus = "FAILED"
)

// FinalisedBy records which authority fixed the grade.
type FinalisedBy string

const (
	FinalisedByAI      FinalisedBy = "AI"
	FinalisedByTeacher FinalisedBy = "TEACHER"
)

// ResultIdentity is the explicit one-of binding a result to either a
// rostered student or an assessment-scoped outsider.
type ResultIdentity struct {
	StudentID  *uuid.UUID `json:"student_id,omitempty"`
	OutsiderID *uuid.UUID `json:"outsider_id,omitempty"`
}

// Validate enforces the exactly-one-variant constraint.
func (id ResultIdentity) Validate() error {
	if (id.StudentID == nil) == (id.OutsiderID == nil) {
		return fmt.Errorf("result identity requires exactly one of student_id, outsider_id")
	}
	return nil
}

// EntityKey is a stable map key for grouping results by graded entity.
func (id ResultIdentity) EntityKey() string {
	if id.StudentID != nil {
		return "s:" + id.StudentID.String()
	}
	if id.OutsiderID != nil {
		return "o:" + id.OutsiderID.String()
	}
	return ""
}

// Result is one (entity, question) grading outcome within an assessment.
type Result struct {
	ID              uuid.UUID      `json:"id"`
	AssessmentID    uuid.UUID      `json:"assessment_id"`
	QuestionID      string         `json:"question_id"`
	Identity        ResultIdentity `json:"identity"`
	Grade           *float64       `json:"grade,omitempty"`
	Feedback        *string        `json:"feedback,omitempty"`
	ExtractedAnswer *string        `json:"extracted_answer,omitempty"`
	Status          ResultStatus   `json:"status"`
	FinalisedBy     *FinalisedBy   `json:"finalised_by,omitempty"`
	AnswerSheetPath *string        `json:"answer_sheet_path,omitempty"`
	ContentType     *string        `json:"content_type,omitempty"`
	ReportToken     *string        `json:"report_token,omitempty"`
}

// AIModelRun records one individual LLM grading attempt for audit and
// consensus. RunIndex ∈ {0,1,2}.
type AIModelRun struct {
	ID           uuid.UUID       `json:"id"`
	AssessmentID uuid.UUID       `json:"assessment_id"`
	Identity     ResultIdentity  `json:"identity"`
	QuestionID   string          `json:"question_id"`
	RunIndex     int             `json:"run_index"`
	RawJSON      json.RawMessage `json:"raw_json"`
	Grade        *float64        `json:"grade,omitempty"`
	Comment      *string         `json:"comment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
