package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AIRunRepository persists individual LLM grading attempts. Every run is kept
// verbatim for audit, including runs that lost the consensus vote.
type AIRunRepository struct {
	pool *pgxpool.Pool
}

// NewAIRunRepository creates a new AIRunRepository.
func NewAIRunRepository(pool *pgxpool.Pool) *AIRunRepository {
	return &AIRunRepository{pool: pool}
}

// Create records one grading run.
func (r *AIRunRepository) Create(ctx context.Context, run *model.AIModelRun) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ai_model_runs (assessment_id, student_id, outsider_id, question_id, run_index, raw_json, grade, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		run.AssessmentID, run.Identity.StudentID, run.Identity.OutsiderID,
		run.QuestionID, run.RunIndex, run.RawJSON, run.Grade, run.Comment,
	).Scan(&run.ID, &run.CreatedAt)
	return mapError(err, "ai run")
}
