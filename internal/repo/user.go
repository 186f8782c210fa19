package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rjcarver/tasktrack/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================
// Create inserts a new user in a single statement, so no partial user is ever
// observable. The UNIQUE constraints on username and email are the authoritative
// duplicate guard; pq unique_violation errors are mapped back to the duplicate
// sentinels so concurrent registrations lose cleanly.
func (r *UserRepo) Create(ctx context.Context, username, email, fullName, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, COALESCE(full_name, ''), password_hash, created_at
	`

	full := sql.NullString{String: fullName, Valid: fullName != ""}

	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username, email, full, passwordHash).
		Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return nil, ErrDuplicateEmail
			default:
				return nil, ErrDuplicateUsername
			}
		}
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// ==========================
// Get By Email
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `
		SELECT id, username, email, COALESCE(full_name, ''), password_hash, created_at
		FROM users
		WHERE ` + column + ` = $1
	`

	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, value).
		Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
