package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/transport/http/api"
)

type failure struct {
	status  int
	code    string
	message string
}

func classify(err error) (failure, bool) {
	var insufficient *leave.InsufficientBalanceError
	var exceeds *leave.AdjustmentExceedsBalanceError
	switch {
	case errors.As(err, &insufficient):
		return failure{http.StatusBadRequest, "insufficient_balance", err.Error()}, true
	case errors.As(err, &exceeds):
		return failure{http.StatusBadRequest, "adjustment_exceeds_balance", err.Error()}, true
	case errors.Is(err, leave.ErrInvalidCategory):
		return failure{http.StatusBadRequest, "invalid_category", err.Error()}, true
	case errors.Is(err, leave.ErrNoCreditRecord):
		return failure{http.StatusBadRequest, "no_credit_record", err.Error()}, true
	case errors.Is(err, leave.ErrInvalidRequest):
		return failure{http.StatusBadRequest, "invalid_request", err.Error()}, true
	case errors.Is(err, leave.ErrAlreadyProcessed):
		return failure{http.StatusConflict, "already_processed", err.Error()}, true
	case errors.Is(err, leave.ErrNotFound):
		return failure{http.StatusNotFound, "not_found", err.Error()}, true
	case errors.Is(err, users.ErrEmailExists):
		return failure{http.StatusConflict, "email_exists", err.Error()}, true
	case errors.Is(err, users.ErrInvalidRole):
		return failure{http.StatusBadRequest, "invalid_role", err.Error()}, true
	case errors.Is(err, users.ErrInvalidUser):
		return failure{http.StatusBadRequest, "invalid_user", err.Error()}, true
	case errors.Is(err, users.ErrSelfDelete):
		return failure{http.StatusBadRequest, "self_delete", err.Error()}, true
	case errors.Is(err, auth.ErrSessionExpired):
		return failure{http.StatusUnauthorized, "session_expired", "session expired"}, true
	case errors.Is(err, auth.ErrUnauthenticated):
		return failure{http.StatusUnauthorized, "unauthorized", "authentication required"}, true
	case errors.Is(err, auth.ErrForbidden):
		return failure{http.StatusForbidden, "forbidden", "insufficient permissions"}, true
	}
	return failure{}, false
}

// FailError maps domain errors to envelope responses. Anything unrecognized
// is logged and reported as code with a generic message.
func FailError(w http.ResponseWriter, err error, code, requestID string) {
	if f, ok := classify(err); ok {
		api.Fail(w, f.status, f.code, f.message, requestID)
		return
	}
	slog.Error("request failed", "code", code, "requestId", requestID, "err", err)
	api.Fail(w, http.StatusInternalServerError, code, "internal error", requestID)
}
