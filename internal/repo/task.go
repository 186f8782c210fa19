package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rjcarver/tasktrack/internal/models"
)

// ErrTaskNotFound covers both a missing task and a task owned by someone else;
// callers cannot tell the two apart.
var ErrTaskNotFound = errors.New("task not found")

// Field carries one column of a partial update. Set reports whether the
// client sent the field at all; a Set field with a nil Value writes NULL.
// An unset field leaves the stored value untouched.
type Field[T any] struct {
	Set   bool
	Value *T
}

// FieldOf returns a set Field holding v.
func FieldOf[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// TaskUpdate carries the fields of a partial update. Owner and creation
// time are not updatable.
type TaskUpdate struct {
	Title       Field[string]
	Description Field[string]
	IsCompleted Field[bool]
	DueDate     Field[time.Time]
}

// ==========================
// TaskRepo
// ==========================
// Every query is scoped by user_id; a task never escapes its owner.
type TaskRepo struct {
	DB *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

const taskColumns = `id, title, COALESCE(description, ''), is_completed, due_date, user_id, created_at`

func scanTask(row *sql.Row) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.IsCompleted,
		&task.DueDate,
		&task.UserID,
		&task.CreatedAt,
	)
	return task, err
}

// ==========================
// Create Task
// ==========================
func (r *TaskRepo) Create(ctx context.Context, ownerID int, title, description string, isCompleted bool, dueDate *time.Time) (models.Task, error) {
	desc := sql.NullString{String: description, Valid: description != ""}

	return scanTask(r.DB.QueryRowContext(ctx,
		`INSERT INTO tasks (title, description, is_completed, due_date, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+taskColumns,
		title, desc, isCompleted, dueDate, ownerID,
	))
}

// ==========================
// List Tasks By Owner
// ==========================
func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.DueDate, &t.UserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ==========================
// Get Task
// ==========================
func (r *TaskRepo) Get(ctx context.Context, id, ownerID int) (models.Task, error) {
	task, err := scanTask(r.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ==========================
// Update Task
// ==========================
// Update applies the partial update in one statement: each CASE picks the new
// value only when its Set flag is true, so unset fields keep the stored value
// while a set-but-nil description or due date becomes NULL. The ownership
// check sits in the same WHERE clause as the id, so the read-check-write is
// atomic.
func (r *TaskRepo) Update(ctx context.Context, id, ownerID int, upd TaskUpdate) (models.Task, error) {
	task, err := scanTask(r.DB.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title        = CASE WHEN $1 THEN $2 ELSE title END,
		     description  = CASE WHEN $3 THEN $4 ELSE description END,
		     is_completed = CASE WHEN $5 THEN $6 ELSE is_completed END,
		     due_date     = CASE WHEN $7 THEN $8 ELSE due_date END
		 WHERE id = $9 AND user_id = $10
		 RETURNING `+taskColumns,
		upd.Title.Set, upd.Title.Value,
		upd.Description.Set, upd.Description.Value,
		upd.IsCompleted.Set, upd.IsCompleted.Value,
		upd.DueDate.Set, upd.DueDate.Value,
		id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ==========================
// Delete Task
// ==========================
func (r *TaskRepo) Delete(ctx context.Context, id, ownerID int) (bool, error) {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ==========================
// Count Overdue
// ==========================
// CountOverdue counts open tasks past their due date across all users.
// Feeds the tasks_overdue gauge; not exposed over HTTP.
func (r *TaskRepo) CountOverdue(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE is_completed = FALSE AND due_date < NOW()`,
	).Scan(&n)
	return n, err
}
