package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rjcarver/tasktrack/internal/middleware"
	"github.com/rjcarver/tasktrack/internal/models"
	"github.com/rjcarver/tasktrack/internal/repo"
)

// ==========================
// Task Handler
// ==========================
// All endpoints run behind the auth middleware; the owner id for every repo
// call comes from the authenticated user in the request context, never from
// the payload.
type TaskHandler struct {
	Tasks *repo.TaskRepo
}

type createTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
}

func validateTaskFields(title, description *string) map[string]string {
	fields := make(map[string]string)
	if title != nil {
		if *title == "" {
			fields["title"] = "required"
		} else if len(*title) > models.TitleMaxLen {
			fields["title"] = "too long"
		}
	}
	if description != nil && len(*description) > models.DescriptionMaxLen {
		fields["description"] = "too long"
	}
	return fields
}

// parseTaskUpdate reads a PUT body keeping absent keys apart from explicit
// nulls: an absent key leaves the column untouched, while a null description
// or due_date clears it. title and is_completed are non-nullable columns, so
// null is a validation error there.
func parseTaskUpdate(r *http.Request) (repo.TaskUpdate, map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return repo.TaskUpdate{}, nil, err
	}

	var upd repo.TaskUpdate
	fields := make(map[string]string)

	if msg, ok := raw["title"]; ok {
		var v *string
		if err := json.Unmarshal(msg, &v); err != nil || v == nil || *v == "" {
			fields["title"] = "required"
		} else if len(*v) > models.TitleMaxLen {
			fields["title"] = "too long"
		} else {
			upd.Title = repo.Field[string]{Set: true, Value: v}
		}
	}
	if msg, ok := raw["description"]; ok {
		var v *string
		if err := json.Unmarshal(msg, &v); err != nil {
			fields["description"] = "must be a string or null"
		} else if v != nil && len(*v) > models.DescriptionMaxLen {
			fields["description"] = "too long"
		} else {
			upd.Description = repo.Field[string]{Set: true, Value: v}
		}
	}
	if msg, ok := raw["is_completed"]; ok {
		var v *bool
		if err := json.Unmarshal(msg, &v); err != nil || v == nil {
			fields["is_completed"] = "must be true or false"
		} else {
			upd.IsCompleted = repo.Field[bool]{Set: true, Value: v}
		}
	}
	if msg, ok := raw["due_date"]; ok {
		var v *time.Time
		if err := json.Unmarshal(msg, &v); err != nil {
			fields["due_date"] = "must be an RFC3339 timestamp or null"
		} else {
			upd.DueDate = repo.Field[time.Time]{Set: true, Value: v}
		}
	}

	return upd, fields, nil
}

// ==========================
// Create Task
// ==========================
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var input createTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if fields := validateTaskFields(&input.Title, &input.Description); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	task, err := h.Tasks.Create(r.Context(), user.ID, input.Title, input.Description, input.IsCompleted, input.DueDate)
	if err != nil {
		slog.Error("create task failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, task)
}

// ==========================
// List Tasks
// ==========================
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	tasks, err := h.Tasks.ListByOwner(r.Context(), user.ID)
	if err != nil {
		slog.Error("list tasks failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, tasks)
}

// ==========================
// Get Task
// ==========================
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	task, err := h.Tasks.Get(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("get task failed", "user_id", user.ID, "task_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, task)
}

// ==========================
// Update Task (partial)
// ==========================
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	upd, fields, err := parseTaskUpdate(r)
	if err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	task, err := h.Tasks.Update(r.Context(), id, user.ID, upd)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("update task failed", "user_id", user.ID, "task_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, task)
}

// ==========================
// Delete Task
// ==========================
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	deleted, err := h.Tasks.Delete(r.Context(), id, user.ID)
	if err != nil {
		slog.Error("delete task failed", "user_id", user.ID, "task_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{"message": "task deleted"})
}
