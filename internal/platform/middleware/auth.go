package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/httputil"
	"clinic/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the staff claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*StaffClaims, error)
}

// StaffClaims is the subset of token claims the HTTP layer needs.
type StaffClaims struct {
	Staff   string
	TokenID string
}

// RequireStaff rejects requests without a valid staff bearer token and
// records the staff name on the request context.
func RequireStaff(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithStaff(ctx, claims.Staff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
