package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rjcarver/tasktrack/cmd/cli/config"
	"github.com/rjcarver/tasktrack/cmd/cli/output"
	"github.com/rjcarver/tasktrack/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Tasks
// ==========================
func InitTasks(rootCmd *cobra.Command) {

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}

	tasksCmd.AddCommand(
		listTasksCmd(),
		createTaskCmd(),
		getTaskCmd(),
		doneTaskCmd(),
		deleteTaskCmd(),
	)

	rootCmd.AddCommand(tasksCmd)
}

// ==========================
// LIST
// ==========================
func listTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []models.Task
			if err := apiRequest("GET", "/tasks/", nil, &tasks); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []interface{}{
					t.ID, output.Checkbox(t.IsCompleted), t.Title, t.Description, output.Timestamp(t.DueDate),
				})
			}
			output.RenderTable([]string{"ID", "Done", "Title", "Description", "Due"}, rows)
			return nil
		},
	}
}

// ==========================
// CREATE
// ==========================
func createTaskCmd() *cobra.Command {
	var title, description, due string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}

			payload := map[string]interface{}{
				"title":       title,
				"description": description,
			}
			if due != "" {
				ts, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return fmt.Errorf("--due must be RFC3339 (e.g. 2026-09-01T17:00:00Z): %w", err)
				}
				payload["due_date"] = ts
			}

			var task models.Task
			if err := apiRequest("POST", "/tasks/", payload, &task); err != nil {
				return err
			}

			fmt.Printf("Created task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description (optional)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, RFC3339 (optional)")

	return cmd
}

// ==========================
// GET
// ==========================
func getTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			var task models.Task
			if err := apiRequest("GET", fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
				return err
			}

			output.RenderTable(
				[]string{"ID", "Done", "Title", "Description", "Due", "Created"},
				[][]interface{}{{
					task.ID, output.Checkbox(task.IsCompleted), task.Title, task.Description,
					output.Timestamp(task.DueDate), task.CreatedAt.Local().Format("2006-01-02 15:04"),
				}},
			)
			return nil
		},
	}
}

// ==========================
// DONE
// ==========================
func doneTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			payload := map[string]interface{}{"is_completed": true}
			var task models.Task
			if err := apiRequest("PUT", fmt.Sprintf("/tasks/%d", id), payload, &task); err != nil {
				return err
			}

			fmt.Printf("Task %d marked completed.\n", task.ID)
			return nil
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			if err := apiRequest("DELETE", fmt.Sprintf("/tasks/%d", id), nil, nil); err != nil {
				return err
			}

			fmt.Printf("Task %d deleted.\n", id)
			return nil
		},
	}
}

// apiRequest sends an authenticated JSON request to the API and decodes the
// response into out (when non-nil). Non-2xx responses become errors carrying
// the API's body.
func apiRequest(method, path string, payload interface{}, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("not logged in: run `tasktrack auth login` first")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}
	return nil
}
