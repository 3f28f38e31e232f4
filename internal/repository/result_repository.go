package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles per-question grading result data access. The
// result identity maps onto nullable (student_id, outsider_id) columns with a
// database check enforcing exactly one populated.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, assessment_id, question_id, student_id, outsider_id, grade, feedback, extracted_answer, status, finalised_by, answer_sheet_path, content_type, report_token`

func scanResult(row interface{ Scan(dest ...any) error }) (*model.Result, error) {
	res := &model.Result{}
	err := row.Scan(&res.ID, &res.AssessmentID, &res.QuestionID,
		&res.Identity.StudentID, &res.Identity.OutsiderID, &res.Grade,
		&res.Feedback, &res.ExtractedAnswer, &res.Status, &res.FinalisedBy,
		&res.AnswerSheetPath, &res.ContentType, &res.ReportToken)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreateBatch bulk-inserts PENDING_GRADE skeleton rows after matching, one
// per (entity, question) pair.
func (r *ResultRepository) CreateBatch(ctx context.Context, results []*model.Result) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "result")
	}
	defer tx.Rollback(ctx)

	for _, res := range results {
		err := tx.QueryRow(ctx,
			`INSERT INTO grading_results (assessment_id, question_id, student_id, outsider_id, extracted_answer, status, answer_sheet_path, content_type, report_token)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			res.AssessmentID, res.QuestionID, res.Identity.StudentID,
			res.Identity.OutsiderID, res.ExtractedAnswer, res.Status,
			res.AnswerSheetPath, res.ContentType, res.ReportToken,
		).Scan(&res.ID)
		if err != nil {
			return mapError(err, "result")
		}
	}

	return mapError(tx.Commit(ctx), "result")
}

// ListByAssessment returns every result row of one assessment, tenant-scoped
// through the assessment.
func (r *ResultRepository) ListByAssessment(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumnsG+`
		 FROM grading_results g
		 JOIN assessments a ON a.id = g.assessment_id
		 WHERE g.assessment_id = $1 AND a.tenant_id = $2
		 ORDER BY g.question_id ASC`, assessmentID, tenantID)
	if err != nil {
		return nil, mapError(err, "result")
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, mapError(err, "result")
		}
		results = append(results, *res)
	}
	return results, mapError(rows.Err(), "result")
}

// ListByAssessmentAny is ListByAssessment without the tenant scope, for the
// pipeline worker.
func (r *ResultRepository) ListByAssessmentAny(ctx context.Context, assessmentID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM grading_results
		 WHERE assessment_id = $1
		 ORDER BY question_id ASC`, assessmentID)
	if err != nil {
		return nil, mapError(err, "result")
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, mapError(err, "result")
		}
		results = append(results, *res)
	}
	return results, mapError(rows.Err(), "result")
}

// ConsensusWrite is the consensus outcome for one (entity, question) result.
type ConsensusWrite struct {
	ResultID        uuid.UUID
	Grade           *float64
	Feedback        *string
	Status          model.ResultStatus
	ExtractedAnswer *string
}

// ApplyEntityConsensus writes every consensus outcome of one entity in a
// single transaction, so a concurrent reviewer read never observes the
// entity half AI_GRADED and half undecided.
func (r *ResultRepository) ApplyEntityConsensus(ctx context.Context, writes []ConsensusWrite) error {
	if len(writes) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "result")
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		var finalisedBy *model.FinalisedBy
		if w.Status == model.ResultStatusAIGraded {
			by := model.FinalisedByAI
			finalisedBy = &by
		}
		tag, err := tx.Exec(ctx,
			`UPDATE grading_results
			 SET grade = $2, feedback = $3, status = $4, finalised_by = $5,
			     extracted_answer = COALESCE($6, extracted_answer)
			 WHERE id = $1`,
			w.ResultID, w.Grade, w.Feedback, w.Status, finalisedBy, w.ExtractedAnswer)
		if err != nil {
			return mapError(err, "result")
		}
		if tag.RowsAffected() == 0 {
			return mapError(errNoRows(), "result")
		}
	}
	return mapError(tx.Commit(ctx), "result")
}

// TeacherEdit applies a teacher override: the grade is final and the status
// becomes TEACHER_GRADED regardless of prior state.
func (r *ResultRepository) TeacherEdit(ctx context.Context, tenantID, assessmentID uuid.UUID, identity model.ResultIdentity, questionID string, grade float64, feedback *string) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`UPDATE grading_results g
		 SET grade = $4, feedback = COALESCE($5, g.feedback),
		     status = 'TEACHER_GRADED', finalised_by = 'TEACHER'
		 FROM assessments a
		 WHERE g.assessment_id = a.id
		   AND g.assessment_id = $1 AND a.tenant_id = $2
		   AND g.question_id = $3
		   AND g.student_id IS NOT DISTINCT FROM $6
		   AND g.outsider_id IS NOT DISTINCT FROM $7
		 RETURNING `+resultColumnsG,
		assessmentID, tenantID, questionID, grade, feedback,
		identity.StudentID, identity.OutsiderID))
	if err != nil {
		return nil, mapError(err, "result")
	}
	return res, nil
}

// MarkFailed flags every unfinalised result of an assessment when the
// pipeline aborts.
func (r *ResultRepository) MarkFailed(ctx context.Context, assessmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE grading_results SET status = 'FAILED'
		 WHERE assessment_id = $1
		   AND status IN ('PENDING_GRADE', 'MATCHED')`, assessmentID)
	return mapError(err, "result")
}

// CountPendingReview reports how many results still need a human look; zero
// means the assessment can complete as AI-only.
func (r *ResultRepository) CountPendingReview(ctx context.Context, assessmentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM grading_results
		 WHERE assessment_id = $1 AND status = 'PENDING_REVIEW'`, assessmentID,
	).Scan(&n)
	return n, mapError(err, "result")
}

const resultColumnsG = `g.id, g.assessment_id, g.question_id, g.student_id, g.outsider_id, g.grade, g.feedback, g.extracted_answer, g.status, g.finalised_by, g.answer_sheet_path, g.content_type, g.report_token`
