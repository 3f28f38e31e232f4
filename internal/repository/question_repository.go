package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. OrderIndex stays dense
// (0..n-1) across add/delete/reorder.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumnsQ = `q.id, q.quiz_id, q.question_type, q.text, q.order_index, q.points, q.time_limit_seconds, q.options, q.correct_answer, q.explanation, q.media_url`

func scanQuestion(row interface{ Scan(dest ...any) error }) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.QuizID, &q.QuestionType, &q.Text, &q.OrderIndex,
		&q.Points, &q.TimeLimitSeconds, &q.Options, &q.CorrectAnswer, &q.Explanation, &q.MediaURL)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Add appends a question at the end of the quiz (order_index = current count).
// The tenant scope is enforced through the quiz row inside one transaction so
// concurrent adds cannot produce a sparse ordering.
func (r *QuestionRepository) Add(ctx context.Context, tenantID uuid.UUID, q *model.Question) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "question")
	}
	defer tx.Rollback(ctx)

	var quizExists bool
	if err := tx.QueryRow(ctx,
		`SELECT TRUE FROM quizzes
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		 FOR UPDATE`, q.QuizID, tenantID,
	).Scan(&quizExists); err != nil {
		return mapError(err, "quiz")
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question_type, text, order_index, points, time_limit_seconds, options, correct_answer, explanation, media_url)
		 SELECT $1, $2, $3, COUNT(*), $4, $5, $6, $7, $8, $9
		 FROM questions WHERE quiz_id = $1
		 RETURNING id, order_index`,
		q.QuizID, q.QuestionType, q.Text, q.Points, q.TimeLimitSeconds,
		q.Options, q.CorrectAnswer, q.Explanation, q.MediaURL,
	).Scan(&q.ID, &q.OrderIndex)
	if err != nil {
		return mapError(err, "question")
	}

	return mapError(tx.Commit(ctx), "question")
}

// GetByID retrieves a question, tenant-scoped through its quiz.
func (r *QuestionRepository) GetByID(ctx context.Context, tenantID, questionID uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumnsQ+`
		 FROM questions q
		 JOIN quizzes z ON z.id = q.quiz_id
		 WHERE q.id = $1 AND z.tenant_id = $2 AND z.deleted_at IS NULL`,
		questionID, tenantID))
	if err != nil {
		return nil, mapError(err, "question")
	}
	return q, nil
}

// ListByQuiz retrieves a quiz's questions in order.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, tenantID, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumnsQ+`
		 FROM questions q
		 JOIN quizzes z ON z.id = q.quiz_id
		 WHERE q.quiz_id = $1 AND z.tenant_id = $2 AND z.deleted_at IS NULL
		 ORDER BY q.order_index ASC`, quizID, tenantID)
	if err != nil {
		return nil, mapError(err, "question")
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, mapError(err, "question")
		}
		questions = append(questions, *q)
	}
	return questions, mapError(rows.Err(), "question")
}

// Update persists edits to a question's content (not its position).
func (r *QuestionRepository) Update(ctx context.Context, tenantID uuid.UUID, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET question_type = $1, text = $2, points = $3,
		        time_limit_seconds = $4, options = $5, correct_answer = $6,
		        explanation = $7, media_url = $8
		 FROM quizzes z
		 WHERE questions.quiz_id = z.id
		   AND questions.id = $9 AND z.tenant_id = $10 AND z.deleted_at IS NULL`,
		q.QuestionType, q.Text, q.Points, q.TimeLimitSeconds, q.Options,
		q.CorrectAnswer, q.Explanation, q.MediaURL, q.ID, tenantID)
	if err != nil {
		return mapError(err, "question")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "question")
	}
	return nil
}

// Delete removes a question and closes the order gap so indices stay dense.
func (r *QuestionRepository) Delete(ctx context.Context, tenantID, questionID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "question")
	}
	defer tx.Rollback(ctx)

	var quizID uuid.UUID
	var orderIndex int
	err = tx.QueryRow(ctx,
		`DELETE FROM questions q
		 USING quizzes z
		 WHERE q.quiz_id = z.id
		   AND q.id = $1 AND z.tenant_id = $2 AND z.deleted_at IS NULL
		 RETURNING q.quiz_id, q.order_index`, questionID, tenantID,
	).Scan(&quizID, &orderIndex)
	if err != nil {
		return mapError(err, "question")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE questions SET order_index = order_index - 1
		 WHERE quiz_id = $1 AND order_index > $2`, quizID, orderIndex); err != nil {
		return mapError(err, "question")
	}

	return mapError(tx.Commit(ctx), "question")
}

// Reorder replaces the quiz's ordering with the given permutation.
func (r *QuestionRepository) Reorder(ctx context.Context, tenantID, quizID uuid.UUID, questionIDs []uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "question")
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM questions q
		 JOIN quizzes z ON z.id = q.quiz_id
		 WHERE q.quiz_id = $1 AND z.tenant_id = $2 AND z.deleted_at IS NULL`,
		quizID, tenantID,
	).Scan(&count); err != nil {
		return mapError(err, "question")
	}
	if count != len(questionIDs) {
		return mapError(errNoRows(), "question ordering")
	}

	indices := make([]int, len(questionIDs))
	for i := range questionIDs {
		indices[i] = i
	}

	tag, err := tx.Exec(ctx,
		`UPDATE questions AS q
		 SET order_index = t.order_index
		 FROM (
			SELECT u.id, u.order_index
			FROM UNNEST($1::uuid[], $2::int[]) AS u (id, order_index)
		 ) AS t
		 WHERE q.id = t.id AND q.quiz_id = $3`,
		questionIDs, indices, quizID)
	if err != nil {
		return mapError(err, "question")
	}
	if int(tag.RowsAffected()) != len(questionIDs) {
		return mapError(errNoRows(), "question ordering")
	}

	return mapError(tx.Commit(ctx), "question")
}
