package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrGuestTokenInvalid  ErrCode = "GUEST_TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "CONFLICT"
	ErrPrecondition ErrCode = "PRECONDITION_FAILED"

	// ─── Live sessions ─────────────────────────────────────────────────
	ErrRoomNotFound     ErrCode = "ROOM_NOT_FOUND"
	ErrSessionFull      ErrCode = "SESSION_FULL"
	ErrSessionEnded     ErrCode = "SESSION_ENDED"
	ErrAlreadyAnswered  ErrCode = "ALREADY_ANSWERED"
	ErrAlreadyJoined    ErrCode = "ALREADY_JOINED"
	ErrNoRoomCodesLeft  ErrCode = "NO_ROOM_CODES_AVAILABLE"
	ErrQuizNotPublished ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Grading jobs ──────────────────────────────────────────────────
	ErrGradingUnparsable ErrCode = "GRADING_UNPARSABLE"
	ErrNotReviewable     ErrCode = "NOT_REVIEWABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal    ErrCode = "INTERNAL_ERROR"
	ErrUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or has expired."
	case ErrGuestTokenInvalid:
		return "The guest token is invalid for this session."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrPrecondition:
		return "The resource is not in a state that allows this action."

	// ─── Live sessions ─────────────────────────────────────────────────
	case ErrRoomNotFound:
		return "No active session matches this room code."
	case ErrSessionFull:
		return "This session has reached its participant limit."
	case ErrSessionEnded:
		return "This session has already ended."
	case ErrAlreadyAnswered:
		return "You have already answered this question."
	case ErrAlreadyJoined:
		return "You have already joined this session."
	case ErrNoRoomCodesLeft:
		return "Could not allocate a room code. Please try again."
	case ErrQuizNotPublished:
		return "Only published quizzes can be hosted."
	case ErrNoQuestions:
		return "This quiz has no questions."

	// ─── Grading jobs ──────────────────────────────────────────────────
	case ErrGradingUnparsable:
		return "The grading model returned an unusable response."
	case ErrNotReviewable:
		return "This assessment is not ready for review."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrUnavailable:
		return "The service is temporarily unavailable. Please retry."
	default:
		return "An unexpected error occurred."
	}
}
