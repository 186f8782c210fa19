package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rjcarver/tasktrack/internal/auth"
	"github.com/rjcarver/tasktrack/internal/metrics"
	"github.com/rjcarver/tasktrack/internal/models"
	"github.com/rjcarver/tasktrack/internal/repo"
)

var validate = validator.New()

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  *repo.UserRepo
	Hasher auth.PasswordHasher
	Tokens *auth.TokenService
}

type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// validateRegister checks the registration payload and returns field-level
// errors. Empty map means the input is acceptable.
func validateRegister(in registerInput) map[string]string {
	fields := make(map[string]string)

	if in.Username == "" {
		fields["username"] = "required"
	} else if len(in.Username) > models.UsernameMaxLen {
		fields["username"] = "too long"
	}

	if err := validate.Var(in.Email, "required,email"); err != nil {
		fields["email"] = "must be a valid email address"
	} else if len(in.Email) > models.EmailMaxLen {
		fields["email"] = "too long"
	}

	if len(in.FullName) > models.FullNameMaxLen {
		fields["full_name"] = "too long"
	}

	if msg := passwordWeakness(in.Password); msg != "" {
		fields["password"] = msg
	}

	return fields
}

// passwordWeakness returns a rejection reason for weak passwords, or "" when
// the password is acceptable: at least 8 characters, one uppercase letter and
// one digit.
func passwordWeakness(password string) string {
	if len(password) < 8 {
		return "must be at least 8 characters"
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return "must contain at least one uppercase letter and one digit"
	}
	return ""
}

// ==========================
// Register
// ==========================
// The duplicate lookups here only produce the friendly error before paying for
// a bcrypt hash; the UNIQUE constraints are the authoritative guard, and a
// constraint violation from a concurrent registration maps to the same 400.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if fields := validateRegister(input); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if _, err := h.Users.GetByUsername(r.Context(), input.Username); err == nil {
		JSONError(w, repo.ErrDuplicateUsername.Error(), http.StatusBadRequest)
		return
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		slog.Error("register: username lookup failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if _, err := h.Users.GetByEmail(r.Context(), input.Email); err == nil {
		JSONError(w, repo.ErrDuplicateEmail.Error(), http.StatusBadRequest)
		return
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		slog.Error("register: email lookup failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	digest, err := h.Hasher.Hash(input.Password)
	if err != nil {
		slog.Error("register: hash failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Username, input.Email, input.FullName, digest)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateUsername), errors.Is(err, repo.ErrDuplicateEmail):
			JSONError(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("register: create user failed", "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	metrics.IncUsersRegistered()
	writeJSON(w, user)
}

// ==========================
// Login (form-encoded: username, password)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		JSONError(w, "invalid form data", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.Users.GetByUsername(r.Context(), username)
	if err != nil || !h.Hasher.Verify(password, user.PasswordHash) {
		if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
			slog.Error("login: user lookup failed", "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		JSONError(w, "incorrect username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.Tokens.Issue(user.Username)
	if err != nil {
		slog.Error("login: issue token failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
