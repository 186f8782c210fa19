package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rjcarver/tasktrack/internal/auth"
	"github.com/rjcarver/tasktrack/internal/models"
	"github.com/rjcarver/tasktrack/internal/repo"
)

type contextKey string

const userKey contextKey = "user"

// GetUser returns the authenticated user attached by Auth.
func GetUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// WithUser attaches a user to the context the same way Auth does.
// Handlers under test use this to simulate an authenticated request.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Auth gates protected routes. It extracts the bearer token, verifies it,
// and resolves the token subject to a user row. Every credential failure
// collapses to the same 401 response; the actual reason (expired, bad
// signature, user deleted) only goes to the operator log. A storage failure
// during the lookup is not a credential problem and surfaces as 500.
func Auth(tokens *auth.TokenService, users *repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				unauthorized(w)
				return
			}

			subject, err := tokens.Verify(tokenStr)
			if err != nil {
				logRejection(r, "token rejected", err)
				unauthorized(w)
				return
			}

			user, err := users.GetByUsername(r.Context(), subject)
			if err != nil {
				if errors.Is(err, repo.ErrUserNotFound) {
					logRejection(r, "token subject not resolvable", err)
					unauthorized(w)
					return
				}
				slog.Error("user lookup failed",
					"request_id", chimw.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"error", err)
				internalError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func logRejection(r *http.Request, msg string, err error) {
	slog.Warn(msg,
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"reason", err)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
}

func internalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
