package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssessmentRepository handles grading job data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, tenant_id, status, config, answer_sheet_paths, ai_summary, total_pages, created_at`

func scanAssessment(row interface{ Scan(dest ...any) error }) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.TenantID, &a.Status, &a.Config, &a.AnswerSheetPaths,
		&a.AISummary, &a.TotalPages, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new QUEUED grading job.
func (r *AssessmentRepository) Create(ctx context.Context, tenantID uuid.UUID, a *model.Assessment) error {
	a.TenantID = tenantID
	a.Status = model.AssessmentStatusQueued
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assessments (tenant_id, status, config, answer_sheet_paths, total_pages)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tenantID, a.Status, a.Config, a.AnswerSheetPaths, a.TotalPages,
	).Scan(&a.ID, &a.CreatedAt)
	return mapError(err, "assessment")
}

// GetByID retrieves an assessment within the tenant scope.
func (r *AssessmentRepository) GetByID(ctx context.Context, tenantID, assessmentID uuid.UUID) (*model.Assessment, error) {
	a, err := scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE id = $1 AND tenant_id = $2`, assessmentID, tenantID))
	if err != nil {
		return nil, mapError(err, "assessment")
	}
	return a, nil
}

// GetByIDAny retrieves an assessment without tenant scoping, for the worker
// which dequeues jobs by id alone.
func (r *AssessmentRepository) GetByIDAny(ctx context.Context, assessmentID uuid.UUID) (*model.Assessment, error) {
	a, err := scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE id = $1`, assessmentID))
	if err != nil {
		return nil, mapError(err, "assessment")
	}
	return a, nil
}

// List retrieves the tenant's grading jobs, newest first.
func (r *AssessmentRepository) List(ctx context.Context, tenantID uuid.UUID) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, mapError(err, "assessment")
	}
	defer rows.Close()

	var assessments []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, mapError(err, "assessment")
		}
		assessments = append(assessments, *a)
	}
	return assessments, mapError(rows.Err(), "assessment")
}

// SetStatus moves the job through its state machine.
func (r *AssessmentRepository) SetStatus(ctx context.Context, assessmentID uuid.UUID, status model.AssessmentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessments SET status = $2 WHERE id = $1`, assessmentID, status)
	if err != nil {
		return mapError(err, "assessment")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "assessment")
	}
	return nil
}

// SetSummary stores the class-level AI narrative alongside the terminal-phase
// status.
func (r *AssessmentRepository) SetSummary(ctx context.Context, assessmentID uuid.UUID, summary string, status model.AssessmentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessments SET ai_summary = $2, status = $3 WHERE id = $1`,
		assessmentID, summary, status)
	if err != nil {
		return mapError(err, "assessment")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "assessment")
	}
	return nil
}

// CreateOutsider materialises an unrostered student discovered during
// matching, scoped to the assessment.
func (r *AssessmentRepository) CreateOutsider(ctx context.Context, o *model.OutsiderStudent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO outsider_students (name, assessment_id)
		 VALUES ($1, $2)
		 RETURNING id`, o.Name, o.AssessmentID,
	).Scan(&o.ID)
	return mapError(err, "outsider student")
}

// FindOutsiderByName looks an outsider up by exact name within one
// assessment, so manual-upload duplicates merge instead of multiplying.
func (r *AssessmentRepository) FindOutsiderByName(ctx context.Context, assessmentID uuid.UUID, name string) (*model.OutsiderStudent, error) {
	o := &model.OutsiderStudent{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, assessment_id
		 FROM outsider_students
		 WHERE assessment_id = $1 AND name = $2`, assessmentID, name,
	).Scan(&o.ID, &o.Name, &o.AssessmentID)
	if err != nil {
		return nil, mapError(err, "outsider student")
	}
	return o, nil
}

// ListOutsiders returns the assessment's outsider students.
func (r *AssessmentRepository) ListOutsiders(ctx context.Context, assessmentID uuid.UUID) ([]model.OutsiderStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, assessment_id
		 FROM outsider_students
		 WHERE assessment_id = $1
		 ORDER BY name ASC`, assessmentID)
	if err != nil {
		return nil, mapError(err, "outsider student")
	}
	defer rows.Close()

	var outsiders []model.OutsiderStudent
	for rows.Next() {
		var o model.OutsiderStudent
		if err := rows.Scan(&o.ID, &o.Name, &o.AssessmentID); err != nil {
			return nil, mapError(err, "outsider student")
		}
		outsiders = append(outsiders, o)
	}
	return outsiders, mapError(rows.Err(), "outsider student")
}
