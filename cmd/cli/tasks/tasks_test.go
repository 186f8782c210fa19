package tasks

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rjcarver/tasktrack/cmd/cli/config"
	"github.com/rjcarver/tasktrack/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func setupCLI(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKTRACK_API_URL", apiURL)
	if err := config.SaveToken("test-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
}

func TestListTasks_TableOutput(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "buy milk", IsCompleted: false},
		{ID: 2, Title: "write report", Description: "quarterly", IsCompleted: true},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(tasks)
	}))
	defer srv.Close()

	setupCLI(t, srv.URL)

	cmd := listTasksCmd()
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{}); err != nil {
			t.Errorf("list: %v", err)
		}
	})

	if !strings.Contains(out, "buy milk") || !strings.Contains(out, "write report") {
		t.Fatalf("expected titles in output, got: %s", out)
	}
	if !strings.Contains(out, "[x]") || !strings.Contains(out, "[ ]") {
		t.Fatalf("expected completion checkboxes in output, got: %s", out)
	}
}

func TestDoneTask_SendsPartialUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" || r.URL.Path != "/tasks/5" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		// Only the completion flag is sent; nothing else gets overwritten.
		if len(body) != 1 || body["is_completed"] != true {
			t.Fatalf("unexpected payload: %v", body)
		}
		_ = json.NewEncoder(w).Encode(models.Task{ID: 5, Title: "t", IsCompleted: true})
	}))
	defer srv.Close()

	setupCLI(t, srv.URL)

	cmd := doneTaskCmd()
	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{"5"}); err != nil {
			t.Errorf("done: %v", err)
		}
	})

	if !strings.Contains(out, "Task 5 marked completed") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestTasks_NotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKTRACK_API_URL", "http://localhost:0")

	cmd := listTasksCmd()
	if err := cmd.RunE(cmd, []string{}); err == nil {
		t.Fatal("expected error without a stored token")
	}
}
