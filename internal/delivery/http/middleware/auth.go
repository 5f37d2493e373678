package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const attendeeKey ctxKey = iota

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, attendeeKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if the request passed RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attendeeKey).(string)
	return id, ok && id != ""
}

// bearerToken extracts the token from an Authorization header, or an error message
// suitable for a 401 body.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth verifies the Bearer token and stores the user ID in the request context.
// Requests without a valid token get 401 and never reach next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("user.id", userID))
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
