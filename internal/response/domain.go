package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightboard/brightboard-backend/internal/domain"
)

// FromDomain maps a typed domain error onto the HTTP status and error code
// vocabulary. Handlers call this instead of switching on error kinds
// themselves.
func FromDomain(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		Fail(c, http.StatusInternalServerError, ErrInternal)
		return
	}

	switch de.Kind {
	case domain.KindNotFound:
		Fail(c, http.StatusNotFound, ErrNotFound)
	case domain.KindAuthz:
		Fail(c, http.StatusUnauthorized, ErrTokenInvalid)
	case domain.KindValidation:
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"detail": de.Msg})
	case domain.KindPrecondition:
		FailWithFields(c, http.StatusConflict, ErrPrecondition, map[string]string{"detail": de.Msg})
	case domain.KindConflict:
		Fail(c, http.StatusConflict, conflictCode(de.Cause))
	case domain.KindExhausted:
		Fail(c, http.StatusServiceUnavailable, ErrNoRoomCodesLeft)
	case domain.KindParse:
		Fail(c, http.StatusBadGateway, ErrGradingUnparsable)
	case domain.KindTransient:
		Fail(c, http.StatusServiceUnavailable, ErrUnavailable)
	default:
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}

func conflictCode(cause domain.ConflictCause) ErrCode {
	switch cause {
	case domain.ConflictAlreadyAnswered:
		return ErrAlreadyAnswered
	case domain.ConflictDuplicateStudent:
		return ErrAlreadyJoined
	}
	return ErrConflict
}
