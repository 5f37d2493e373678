package helpers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Domain errors in match order. An empty message means the error text is shown.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{domain.ErrUnsupportedImage, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password"},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "Only the event owner can do this"},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Event not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound, "user not found"},
	{domain.ErrAlreadyReserved, http.StatusConflict, ErrCodeConflict, "You already RSVPed to this event"},
	{domain.ErrEventFull, http.StatusConflict, ErrCodeConflict, "Event is full"},
	{domain.ErrNotReserved, http.StatusConflict, ErrCodeConflict, "You have not RSVPed to this event"},
	{domain.ErrCapacityBelowReserved, http.StatusConflict, ErrCodeConflict, "capacity cannot be lower than the number of reservations"},
	{domain.ErrDuplicateEmail, http.StatusConflict, ErrCodeConflict, "email already registered"},
	{domain.ErrTxAborted, http.StatusConflict, ErrCodeConflict, "the request conflicted with another update, please retry"},
	{domain.ErrEmptyGeneration, http.StatusBadGateway, ErrCodeBadGateway, "AI did not return a description"},
	{domain.ErrGenerationFailed, http.StatusBadGateway, ErrCodeBadGateway, "AI provider request failed"},
	{domain.ErrTransactionsUnavailable, http.StatusInternalServerError, ErrCodeConfigurationError,
		"database does not support read-write transactions; check the deployment configuration"},
}

// WriteServiceError maps err to a status and error code and writes it. Unmapped errors
// and configuration errors are logged; client mistakes and conflicts are not.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status >= http.StatusInternalServerError || m.status == http.StatusBadGateway {
			logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		msg := m.message
		if msg == "" {
			msg = clientMessage(err, m.target)
		}
		WriteJSONError(w, m.status, m.code, msg)
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// clientMessage strips wrapping context so only the part after the sentinel is shown,
// e.g. "create event: invalid input: title is required" -> "title is required".
func clientMessage(err, target error) string {
	s := err.Error()
	prefix := target.Error() + ": "
	if i := strings.Index(s, prefix); i >= 0 {
		return s[i+len(prefix):]
	}
	return target.Error()
}
