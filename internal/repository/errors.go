package repository

import (
	"errors"

	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres constraint names used to turn unique violations into typed
// conflicts. Must match migrations/.
const (
	constraintTenantEmail       = "tenants_email_key"
	constraintStudentExternalID = "students_tenant_external_key"
	constraintMembership        = "memberships_student_class_key"
	constraintLiveRoomCode      = "sessions_live_room_code_key"
	constraintSessionStudent    = "participants_session_student_key"
	constraintResponseUnique    = "responses_session_participant_question_key"
	constraintReportToken       = "results_report_token_key"
)

// errNoRows lets Exec-based paths reuse the NotFound mapping when zero rows
// were affected.
func errNoRows() error { return pgx.ErrNoRows }

// mapError converts pgx-level failures into the domain error vocabulary.
// what names the entity for NotFound masking.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case constraintTenantEmail:
				return domain.Conflict(domain.ConflictDuplicateEmail, "email already registered")
			case constraintStudentExternalID:
				return domain.Conflict(domain.ConflictDuplicateExternalID, "external id already in use")
			case constraintMembership:
				return domain.Conflict(domain.ConflictDuplicateMembership, "student already enrolled in class")
			case constraintLiveRoomCode:
				return domain.Conflict(domain.ConflictRoomCodeTaken, "room code already in use")
			case constraintSessionStudent:
				return domain.Conflict(domain.ConflictDuplicateStudent, "student already joined this session")
			case constraintResponseUnique:
				return domain.Conflict(domain.ConflictAlreadyAnswered, "question already answered")
			case constraintReportToken:
				return domain.Conflict(domain.ConflictDuplicateReportToken, "report token already in use")
			}
			return domain.Conflict("", pgErr.ConstraintName)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.Transient("database contention", err)
		}
	}

	return domain.Transient("database error", err)
}
