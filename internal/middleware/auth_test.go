package middleware

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rjcarver/tasktrack/internal/auth"
	"github.com/rjcarver/tasktrack/internal/repo"
)

func okHandler(t *testing.T, wantUsername string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Error("no user in context")
		} else if user.Username != wantUsername {
			t.Errorf("user: got %q, want %q", user.Username, wantUsername)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "password_hash", "created_at"}).
			AddRow(1, "alice", "alice@example.com", "", "digest", time.Now()))

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mw := Auth(tokens, repo.NewUserRepo(db))
	req := httptest.NewRequest("GET", "/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(okHandler(t, "alice")).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	mw := Auth(tokens, repo.NewUserRepo(db))

	req := httptest.NewRequest("GET", "/tasks/", nil)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without credentials")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("missing WWW-Authenticate challenge, got %q", rr.Header().Get("WWW-Authenticate"))
	}
}

func TestAuth_BadToken(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	mw := Auth(tokens, repo.NewUserRepo(db))

	for _, header := range []string{
		"Bearer garbage",
		"Basic dXNlcjpwYXNz",
		"Bearer ",
	} {
		req := httptest.NewRequest("GET", "/tasks/", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("handler reached with header %q", header)
		})).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status got %d, want 401", header, rr.Code)
		}
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expired := auth.NewTokenService([]byte("test-secret"), -time.Minute)
	token, err := expired.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	mw := Auth(tokens, repo.NewUserRepo(db))

	req := httptest.NewRequest("GET", "/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with expired token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestAuth_UserDeletedAfterIssue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue("ghost")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mw := Auth(tokens, repo.NewUserRepo(db))
	req := httptest.NewRequest("GET", "/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached for deleted user")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuth_UserLookupStorageFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// A broken database with a valid token is a server fault, not a
	// credential failure: 500, no WWW-Authenticate challenge.
	mock.ExpectQuery(`SELECT id, username`).
		WithArgs("alice").
		WillReturnError(errors.New("connection reset by peer"))

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	mw := Auth(tokens, repo.NewUserRepo(db))
	req := httptest.NewRequest("GET", "/tasks/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite storage failure")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") != "" {
		t.Errorf("unexpected WWW-Authenticate challenge: %q", rr.Header().Get("WWW-Authenticate"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
