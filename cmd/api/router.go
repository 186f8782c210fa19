package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rjcarver/tasktrack/internal/auth"
	"github.com/rjcarver/tasktrack/internal/config"
	"github.com/rjcarver/tasktrack/internal/handlers"
	"github.com/rjcarver/tasktrack/internal/middleware"
	"github.com/rjcarver/tasktrack/internal/repo"
)

// newRouter builds the full HTTP surface. The TaskRepo is also returned so
// main can hand it to the scheduler.
func newRouter(database *sql.DB, cfg config.Config) (chi.Router, *repo.TaskRepo) {
	userRepo := repo.NewUserRepo(database)
	taskRepo := repo.NewTaskRepo(database)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), time.Duration(cfg.JWTExpireHours)*time.Hour)

	authHandler := &handlers.AuthHandler{Users: userRepo, Hasher: hasher, Tokens: tokens}
	taskHandler := &handlers.TaskHandler{Tasks: taskRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens, userRepo))
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.Get("/{id}", taskHandler.GetTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	return r, taskRepo
}
