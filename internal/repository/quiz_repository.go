package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles quiz data access. Soft-deleted quizzes are excluded
// from every read path here; callers never see `deleted_at IS NOT NULL` rows.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, tenant_id, class_id, title, description, status, settings, last_room_code, deleted_at, created_at, updated_at`

func scanQuiz(row interface{ Scan(dest ...any) error }) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.TenantID, &q.ClassID, &q.Title, &q.Description,
		&q.Status, &q.Settings, &q.LastRoomCode, &q.DeletedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts a new draft quiz.
func (r *QuizRepository) Create(ctx context.Context, tenantID uuid.UUID, q *model.Quiz) error {
	q.TenantID = tenantID
	q.Status = model.QuizStatusDraft
	if len(q.Settings) == 0 {
		q.Settings = []byte(`{}`)
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (tenant_id, class_id, title, description, status, settings)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		tenantID, q.ClassID, q.Title, q.Description, q.Status, q.Settings,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapError(err, "quiz")
}

// GetByID retrieves a live (non-deleted) quiz within the tenant scope.
func (r *QuizRepository) GetByID(ctx context.Context, tenantID, quizID uuid.UUID) (*model.Quiz, error) {
	q, err := scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+`
		 FROM quizzes
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, quizID, tenantID))
	if err != nil {
		return nil, mapError(err, "quiz")
	}
	return q, nil
}

// List retrieves the tenant's live quizzes, newest first.
func (r *QuizRepository) List(ctx context.Context, tenantID uuid.UUID) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+`
		 FROM quizzes
		 WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY updated_at DESC`, tenantID)
	if err != nil {
		return nil, mapError(err, "quiz")
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, mapError(err, "quiz")
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, mapError(rows.Err(), "quiz")
}

// Update persists title/description/status/settings changes.
func (r *QuizRepository) Update(ctx context.Context, tenantID uuid.UUID, q *model.Quiz) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, status = $3, settings = $4, updated_at = NOW()
		 WHERE id = $5 AND tenant_id = $6 AND deleted_at IS NULL`,
		q.Title, q.Description, q.Status, q.Settings, q.ID, tenantID)
	if err != nil {
		return mapError(err, "quiz")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "quiz")
	}
	return nil
}

// SoftDelete marks a quiz deleted; list/read paths exclude it from then on.
func (r *QuizRepository) SoftDelete(ctx context.Context, tenantID, quizID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, quizID, tenantID)
	if err != nil {
		return mapError(err, "quiz")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "quiz")
	}
	return nil
}

// SetLastRoomCode remembers the most recent room code hosted for the quiz.
func (r *QuizRepository) SetLastRoomCode(ctx context.Context, tenantID, quizID uuid.UUID, roomCode string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET last_room_code = $1
		 WHERE id = $2 AND tenant_id = $3 AND deleted_at IS NULL`,
		roomCode, quizID, tenantID)
	return mapError(err, "quiz")
}

// CountQuestions returns the number of questions attached to a quiz.
func (r *QuizRepository) CountQuestions(ctx context.Context, tenantID, quizID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM questions q
		 JOIN quizzes z ON z.id = q.quiz_id
		 WHERE q.quiz_id = $1 AND z.tenant_id = $2 AND z.deleted_at IS NULL`,
		quizID, tenantID,
	).Scan(&n)
	return n, mapError(err, "quiz")
}
