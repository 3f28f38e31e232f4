package repository

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles live quiz session data access. Room codes are
// unique among non-terminal sessions via a partial unique index, so a code
// frees up as soon as its session completes or is cancelled.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, quiz_id, tenant_id, status, room_code, current_question_index, config_snapshot, timeout_hours, started_at, ended_at, auto_ended_at, created_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(&s.ID, &s.QuizID, &s.TenantID, &s.Status, &s.RoomCode,
		&s.CurrentQuestionIndex, &s.ConfigSnapshot, &s.TimeoutHours,
		&s.StartedAt, &s.EndedAt, &s.AutoEndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a waiting session. A live room-code clash surfaces as
// Conflict(room_code_taken) for the engine's retry loop.
func (r *SessionRepository) Create(ctx context.Context, tenantID uuid.UUID, s *model.Session) error {
	s.TenantID = tenantID
	s.Status = model.SessionStatusWaiting
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (quiz_id, tenant_id, status, room_code, current_question_index, config_snapshot, timeout_hours)
		 VALUES ($1, $2, $3, $4, -1, $5, $6)
		 RETURNING id, current_question_index, created_at`,
		s.QuizID, tenantID, s.Status, s.RoomCode, s.ConfigSnapshot, s.TimeoutHours,
	).Scan(&s.ID, &s.CurrentQuestionIndex, &s.CreatedAt)
	return mapError(err, "session")
}

// GetByID retrieves a session within the tenant scope (host access).
func (r *SessionRepository) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE id = $1 AND tenant_id = $2`, sessionID, tenantID))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// GetByIDAny retrieves a session without tenant scoping. Reserved for paths
// that authenticated through a session-bound capability (guest token).
func (r *SessionRepository) GetByIDAny(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE id = $1`, sessionID))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// GetByRoomCode is the only cross-tenant lookup: the room code is a
// user-supplied secret standing in for a session capability. Sessions whose
// quiz was soft-deleted are never returned.
func (r *SessionRepository) GetByRoomCode(ctx context.Context, roomCode string) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumnsS+`
		 FROM sessions s
		 JOIN quizzes z ON z.id = s.quiz_id
		 WHERE s.room_code = $1
		   AND s.status IN ('waiting', 'in_progress')
		   AND z.deleted_at IS NULL
		 ORDER BY s.created_at DESC
		 LIMIT 1`, roomCode))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// Start transitions waiting → in_progress and positions the cursor at
// question 0. Zero rows affected means the session was not in `waiting`.
func (r *SessionRepository) Start(ctx context.Context, tenantID, sessionID uuid.UUID, now time.Time) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET status = 'in_progress', started_at = $3, current_question_index = 0
		 WHERE id = $1 AND tenant_id = $2 AND status = 'waiting'
		 RETURNING `+sessionColumns, sessionID, tenantID, now))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// Advance increments the question cursor, guarded against running past the
// snapshot length by the caller.
func (r *SessionRepository) Advance(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET current_question_index = current_question_index + 1
		 WHERE id = $1 AND tenant_id = $2 AND status = 'in_progress'
		 RETURNING `+sessionColumns, sessionID, tenantID))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// End transitions any non-terminal session to completed/cancelled. autoEnded
// marks scheduler-initiated timeouts.
func (r *SessionRepository) End(ctx context.Context, tenantID, sessionID uuid.UUID, status model.SessionStatus, now time.Time, autoEnded bool) (*model.Session, error) {
	var autoEndedAt *time.Time
	if autoEnded {
		autoEndedAt = &now
	}
	s, err := scanSession(r.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET status = $3, ended_at = $4, auto_ended_at = $5
		 WHERE id = $1 AND tenant_id = $2 AND status IN ('waiting', 'in_progress')
		 RETURNING `+sessionColumns, sessionID, tenantID, status, now, autoEndedAt))
	if err != nil {
		return nil, mapError(err, "session")
	}
	return s, nil
}

// ListTimedOut returns non-terminal sessions whose per-session timeout has
// elapsed relative to now.
func (r *SessionRepository) ListTimedOut(ctx context.Context, now time.Time) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE status IN ('waiting', 'in_progress')
		   AND created_at + (timeout_hours * INTERVAL '1 hour') < $1`, now)
	if err != nil {
		return nil, mapError(err, "session")
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, mapError(err, "session")
		}
		sessions = append(sessions, *s)
	}
	return sessions, mapError(rows.Err(), "session")
}

const sessionColumnsS = `s.id, s.quiz_id, s.tenant_id, s.status, s.room_code, s.current_question_index, s.config_snapshot, s.timeout_hours, s.started_at, s.ended_at, s.auto_ended_at, s.created_at`
