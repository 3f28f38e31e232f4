// Package domain defines the typed error vocabulary shared by the store,
// the session engine and the grading pipeline. Handlers map these kinds to
// HTTP status codes; workers decide whether a kind is retryable.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindNotFound — entity absent or excluded by tenant scope.
	KindNotFound Kind = iota
	// KindAuthz — authenticated caller lacks rights.
	KindAuthz
	// KindPrecondition — state machine violation.
	KindPrecondition
	// KindConflict — unique-key clash; carries a Cause.
	KindConflict
	// KindValidation — payload shape or value range.
	KindValidation
	// KindTransient — retryable infrastructure failure.
	KindTransient
	// KindParse — the LLM failed to return usable JSON after retries.
	KindParse
	// KindExhausted — out of room codes after the configured retries.
	KindExhausted
)

// ConflictCause narrows a KindConflict error.
type ConflictCause string

const (
	ConflictRoomCodeTaken        ConflictCause = "room_code_taken"
	ConflictAlreadyAnswered      ConflictCause = "already_answered"
	ConflictDuplicateStudent     ConflictCause = "duplicate_participant"
	ConflictDuplicateEmail       ConflictCause = "duplicate_email"
	ConflictDuplicateExternalID  ConflictCause = "duplicate_external_id"
	ConflictDuplicateMembership  ConflictCause = "duplicate_membership"
	ConflictDuplicateReportToken ConflictCause = "duplicate_report_token"
)

// Error is the concrete domain error.
type Error struct {
	Kind  Kind
	Cause ConflictCause // Set only for KindConflict
	Msg   string
	Err   error // Wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// ─── Constructors ───────────────────────────────────────────────────

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

func Authz(msg string) *Error {
	return &Error{Kind: KindAuthz, Msg: msg}
}

func Precondition(msg string) *Error {
	return &Error{Kind: KindPrecondition, Msg: msg}
}

func Conflict(cause ConflictCause, msg string) *Error {
	return &Error{Kind: KindConflict, Cause: cause, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

func Parse(msg string, err error) *Error {
	return &Error{Kind: KindParse, Msg: msg, Err: err}
}

func Exhausted(msg string) *Error {
	return &Error{Kind: KindExhausted, Msg: msg}
}

// ─── Predicates ─────────────────────────────────────────────────────

func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool     { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool     { return IsKind(err, KindConflict) }
func IsPrecondition(err error) bool { return IsKind(err, KindPrecondition) }
func IsTransient(err error) bool    { return IsKind(err, KindTransient) }
func IsParse(err error) bool        { return IsKind(err, KindParse) }
func IsValidation(err error) bool   { return IsKind(err, KindValidation) }

// ConflictCauseOf returns the cause of a conflict error, or "".
func ConflictCauseOf(err error) ConflictCause {
	var de *Error
	if errors.As(err, &de) && de.Kind == KindConflict {
		return de.Cause
	}
	return ""
}
