package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseRepository handles answer submissions. The response insert and the
// participant counter update run in one serializable transaction so the two
// can never drift apart under contention.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// SubmitWithScore records a graded response and applies its score delta to
// the participant atomically. A second submission for the same question hits
// the unique index and surfaces as Conflict(already_answered); serialization
// failures surface as Transient for the caller to retry.
func (r *ResponseRepository) SubmitWithScore(ctx context.Context, resp *model.Response) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapError(err, "response")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO responses (session_id, participant_id, question_id, answer, is_correct, points_earned, time_taken_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, answered_at`,
		resp.SessionID, resp.ParticipantID, resp.QuestionID, resp.Answer,
		resp.IsCorrect, resp.PointsEarned, resp.TimeTakenMs,
	).Scan(&resp.ID, &resp.AnsweredAt)
	if err != nil {
		return mapError(err, "response")
	}

	correctDelta := 0
	if resp.IsCorrect != nil && *resp.IsCorrect {
		correctDelta = 1
	}
	tag, err := tx.Exec(ctx,
		`UPDATE participants
		 SET score = score + $3,
		     correct_answers = correct_answers + $4,
		     total_time_ms = total_time_ms + $5,
		     last_seen_at = NOW()
		 WHERE id = $1 AND session_id = $2`,
		resp.ParticipantID, resp.SessionID, resp.PointsEarned, correctDelta, resp.TimeTakenMs)
	if err != nil {
		return mapError(err, "response")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "participant")
	}

	return mapError(tx.Commit(ctx), "response")
}

// CountDistinctAnswered reports how many participants have answered the given
// question, for the host's live stats.
func (r *ResponseRepository) CountDistinctAnswered(ctx context.Context, sessionID, questionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT participant_id)
		 FROM responses
		 WHERE session_id = $1 AND question_id = $2`, sessionID, questionID,
	).Scan(&n)
	return n, mapError(err, "response")
}
