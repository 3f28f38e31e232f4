package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates grading job states.
type AssessmentStatus string

const (
	AssessmentStatusQueued        AssessmentStatus = "QUEUED"
	AssessmentStatusProcessing    AssessmentStatus = "PROCESSING"
	AssessmentStatusSummarising   AssessmentStatus = "SUMMARISING"
	AssessmentStatusPendingReview AssessmentStatus = "PENDING_REVIEW"
	AssessmentStatusCompleted     AssessmentStatus = "COMPLETED"
	AssessmentStatusFailed        AssessmentStatus = "FAILED"
)

// Assessment is a bulk AI grading job.
type Assessment struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	Status           AssessmentStatus `json:"status"`
	Config           json.RawMessage  `json:"config"`
	AnswerSheetPaths []string         `json:"answer_sheet_paths"`
	AISummary        *string          `json:"ai_summary,omitempty"`
	TotalPages       *int             `json:"total_pages,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// OutsiderStudent materialises an unrostered student discovered during
// file→entity matching, scoped to one assessment.
type OutsiderStudent struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// ─── Grading job config (V2) ────────────────────────────────────────

// ScoringMethod selects how section/question scores roll up.
type ScoringMethod string

const (
	ScoringPerQuestion ScoringMethod = "per_question"
	ScoringPerSection  ScoringMethod = "per_section"
	ScoringTotalScore  ScoringMethod = "total_score"
)

// GradingMode selects the answer-key context sent to the model.
type GradingMode string

const (
	GradingModeAnswerKey GradingMode = "answer_key_provided"
	GradingModeAutoGrade GradingMode = "ai_auto_grade"
	GradingModeLibrary   GradingMode = "library"
)

// GradingConfig is the V2 grading job configuration.
type GradingConfig struct {
	AssessmentName         string           `json:"assessmentName"`
	ClassID                uuid.UUID        `json:"classId"`
	ScoringMethod          ScoringMethod    `json:"scoringMethod"`
	TotalScore             *int             `json:"totalScore,omitempty"`
	Sections               []GradingSection `json:"sections"`
	GradingMode            GradingMode      `json:"gradingMode"`
	IncludeImprovementTips bool             `json:"includeImprovementTips"`
	IsManualUpload         bool             `json:"is_manual_upload,omitempty"`
	ManualEntities         []ManualEntity   `json:"manual_entities,omitempty"`
}

// ManualEntity binds one manually uploaded sheet to the student name it
// belongs to. Manual jobs carry these bindings instead of running name
// extraction over the sheets.
type ManualEntity struct {
	SheetPath string `json:"sheet_path"`
	Name      string `json:"name"`
}

// GradingSection groups questions under a titled section.
type GradingSection struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	TotalScore *int              `json:"total_score,omitempty"`
	Questions  []GradingQuestion `json:"questions"`
}

// GradingQuestion is one gradable question with its rubric and max score.
type GradingQuestion struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Rubric   *string         `json:"rubric,omitempty"`
	MaxScore *int            `json:"maxScore,omitempty"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

// AllQuestions flattens the section tree in declaration order.
func (c *GradingConfig) AllQuestions() []GradingQuestion {
	var out []GradingQuestion
	for _, s := range c.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// QuestionByID looks a question up across all sections.
func (c *GradingConfig) QuestionByID(id string) (GradingQuestion, bool) {
	for _, s := range c.Sections {
		for _, q := range s.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return GradingQuestion{}, false
}

// CreateAssessmentRequest is the payload for creating a grading job.
type CreateAssessmentRequest struct {
	Config           GradingConfig `json:"config" binding:"required"`
	AnswerSheetPaths []string      `json:"answer_sheet_paths" binding:"required,min=1"`
	TotalPages       *int          `json:"total_pages" binding:"omitempty,min=1"`
}

// TeacherEditRequest is the payload for a teacher grade override.
type TeacherEditRequest struct {
	QuestionID string  `json:"question_id" binding:"required"`
	Grade      float64 `json:"grade" binding:"min=0"`
	Feedback   *string `json:"feedback" binding:"omitempty,max=4000"`
}
