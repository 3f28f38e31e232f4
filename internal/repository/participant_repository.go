package repository

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipantRepository handles session participant data access. The identity
// variant maps onto (identity_kind, student_id, guest_name, student_ref)
// columns; a partial unique index on (session_id, student_id) keeps a rostered
// student from joining a session twice.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

const participantColumns = `id, session_id, identity_kind, student_id, guest_name, student_ref, guest_token, score, correct_answers, total_time_ms, is_active, joined_at, last_seen_at, anonymised_at`

func scanParticipant(row interface{ Scan(dest ...any) error }) (*model.Participant, error) {
	p := &model.Participant{}
	var guestName, studentRef, guestToken *string
	err := row.Scan(&p.ID, &p.SessionID, &p.Identity.Kind, &p.Identity.StudentID,
		&guestName, &studentRef, &guestToken,
		&p.Score, &p.CorrectAnswers, &p.TotalTimeMs, &p.IsActive,
		&p.JoinedAt, &p.LastSeenAt, &p.AnonymisedAt)
	if err != nil {
		return nil, err
	}
	if guestName != nil {
		p.Identity.GuestName = *guestName
	}
	if studentRef != nil {
		p.Identity.StudentRef = *studentRef
	}
	if guestToken != nil {
		p.GuestToken = *guestToken
	}
	return p, nil
}

// Add registers a participant in a session. A duplicate rostered student
// surfaces as Conflict(duplicate_student).
func (r *ParticipantRepository) Add(ctx context.Context, p *model.Participant) error {
	var guestToken *string
	if p.GuestToken != "" {
		guestToken = &p.GuestToken
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO participants (session_id, identity_kind, student_id, guest_name, student_ref, guest_token, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, TRUE)
		 RETURNING id, score, correct_answers, total_time_ms, is_active, joined_at, last_seen_at`,
		p.SessionID, p.Identity.Kind, p.Identity.StudentID, p.Identity.GuestName,
		p.Identity.StudentRef, guestToken,
	).Scan(&p.ID, &p.Score, &p.CorrectAnswers, &p.TotalTimeMs, &p.IsActive,
		&p.JoinedAt, &p.LastSeenAt)
	return mapError(err, "participant")
}

// GetByID retrieves a participant within one session.
func (r *ParticipantRepository) GetByID(ctx context.Context, sessionID, participantID uuid.UUID) (*model.Participant, error) {
	p, err := scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM participants
		 WHERE id = $1 AND session_id = $2`, participantID, sessionID))
	if err != nil {
		return nil, mapError(err, "participant")
	}
	return p, nil
}

// ListBySession returns all participants of a session in join order.
func (r *ParticipantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantColumns+`
		 FROM participants
		 WHERE session_id = $1
		 ORDER BY joined_at ASC`, sessionID)
	if err != nil {
		return nil, mapError(err, "participant")
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, mapError(err, "participant")
		}
		participants = append(participants, *p)
	}
	return participants, mapError(rows.Err(), "participant")
}

// DisplayNames returns the names currently visible in a session, used to
// adorn clashing joiner names.
func (r *ParticipantRepository) DisplayNames(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(guest_name, student_ref, '')
		 FROM participants
		 WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, mapError(err, "participant")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "participant")
		}
		names = append(names, name)
	}
	return names, mapError(rows.Err(), "participant")
}

// CountBySession returns the participant count for the capacity check.
func (r *ParticipantRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE session_id = $1`, sessionID,
	).Scan(&n)
	return n, mapError(err, "participant")
}

// Leaderboard returns ranked entries: score descending, then total time
// ascending, then join time ascending. Ranks are dense starting at 1.
func (r *ParticipantRepository) Leaderboard(ctx context.Context, sessionID uuid.UUID) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(guest_name, student_ref, ''), score, correct_answers, total_time_ms, is_active
		 FROM participants
		 WHERE session_id = $1
		 ORDER BY score DESC, total_time_ms ASC, joined_at ASC`, sessionID)
	if err != nil {
		return nil, mapError(err, "leaderboard")
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ParticipantID, &e.DisplayName, &e.Score,
			&e.CorrectAnswers, &e.TotalTimeMs, &e.IsActive); err != nil {
			return nil, mapError(err, "leaderboard")
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, mapError(rows.Err(), "leaderboard")
}

// SetActive flips connection presence without touching score state.
func (r *ParticipantRepository) SetActive(ctx context.Context, sessionID, participantID uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET is_active = $3, last_seen_at = NOW()
		 WHERE id = $1 AND session_id = $2`, participantID, sessionID, active)
	return mapError(err, "participant")
}

// TouchLastSeen refreshes liveness on heartbeat.
func (r *ParticipantRepository) TouchLastSeen(ctx context.Context, sessionID, participantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET last_seen_at = NOW()
		 WHERE id = $1 AND session_id = $2`, participantID, sessionID)
	return mapError(err, "participant")
}

// AnonymiseGuestsBefore scrubs guest personal data for guests who joined
// before the cutoff, regardless of what happened to their session since.
// Scores survive; the name becomes a stable placeholder derived from the
// participant id.
func (r *ParticipantRepository) AnonymiseGuestsBefore(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants
		 SET guest_name = 'Anonymous User #' || RIGHT(REPLACE(id::text, '-', ''), 6),
		     student_ref = NULL,
		     guest_token = NULL,
		     anonymised_at = $2
		 WHERE identity_kind IN ('guest', 'identified_guest')
		   AND anonymised_at IS NULL
		   AND joined_at < $1`, cutoff, now)
	if err != nil {
		return 0, mapError(err, "participant")
	}
	return tag.RowsAffected(), nil
}
