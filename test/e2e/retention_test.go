//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightboard/brightboard-backend/internal/repository"
)

// TestGuestRetentionSweep verifies that the anonymisation sweep is keyed on
// when a guest joined, not on how or whether their session ended. An
// abandoned session that never completes must still have its old guests
// scrubbed.
func TestGuestRetentionSweep(t *testing.T) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	var tenantID, quizID, sessionID string
	err = pool.QueryRow(ctx,
		`INSERT INTO tenants (email, password_hash) VALUES ('retention_teacher@example.com', 'x') RETURNING id`,
	).Scan(&tenantID)
	if err != nil {
		t.Fatalf("insert tenant: %v", err)
	}
	defer pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID)

	err = pool.QueryRow(ctx,
		`INSERT INTO quizzes (tenant_id, title, status) VALUES ($1, 'Retention Quiz', 'published') RETURNING id`,
		tenantID,
	).Scan(&quizID)
	if err != nil {
		t.Fatalf("insert quiz: %v", err)
	}

	// The session is still waiting: it never started and never ended.
	err = pool.QueryRow(ctx,
		`INSERT INTO sessions (quiz_id, tenant_id, status, room_code, config_snapshot, timeout_hours)
		 VALUES ($1, $2, 'waiting', 'RETN01', '{}', 2) RETURNING id`,
		quizID, tenantID,
	).Scan(&sessionID)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}

	var oldGuest, freshGuest string
	err = pool.QueryRow(ctx,
		`INSERT INTO participants (session_id, identity_kind, guest_name, guest_token, joined_at)
		 VALUES ($1, 'guest', 'Old Guest', 'token-old', NOW() - INTERVAL '40 days') RETURNING id`,
		sessionID,
	).Scan(&oldGuest)
	if err != nil {
		t.Fatalf("insert old guest: %v", err)
	}
	err = pool.QueryRow(ctx,
		`INSERT INTO participants (session_id, identity_kind, guest_name, guest_token)
		 VALUES ($1, 'guest', 'Fresh Guest', 'token-fresh') RETURNING id`,
		sessionID,
	).Scan(&freshGuest)
	if err != nil {
		t.Fatalf("insert fresh guest: %v", err)
	}

	repo := repository.NewParticipantRepository(pool)
	now := time.Now()
	affected, err := repo.AnonymiseGuestsBefore(ctx, now.AddDate(0, 0, -30), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if affected < 1 {
		t.Fatalf("expected at least one anonymised guest, got %d", affected)
	}

	var name string
	var token *string
	var anonymisedAt *time.Time
	err = pool.QueryRow(ctx,
		`SELECT guest_name, guest_token, anonymised_at FROM participants WHERE id = $1`, oldGuest,
	).Scan(&name, &token, &anonymisedAt)
	if err != nil {
		t.Fatalf("read old guest: %v", err)
	}
	if anonymisedAt == nil {
		t.Error("old guest in a never-ended session must be anonymised")
	}
	if !strings.HasPrefix(name, "Anonymous User #") {
		t.Errorf("expected placeholder name, got %q", name)
	}
	if token != nil {
		t.Error("guest token must be cleared")
	}

	err = pool.QueryRow(ctx,
		`SELECT guest_name, anonymised_at FROM participants WHERE id = $1`, freshGuest,
	).Scan(&name, &anonymisedAt)
	if err != nil {
		t.Fatalf("read fresh guest: %v", err)
	}
	if anonymisedAt != nil || name != "Fresh Guest" {
		t.Errorf("guest inside the retention window must be untouched, got name=%q anonymised=%v", name, anonymisedAt)
	}
}
