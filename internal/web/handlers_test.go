package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/store"
)

const houseNote = `- [ ] Paint fence ⏳ 2025-03-12 ^fence
  - [ ] Buy brushes
- [-] Buy ladder 📅 2025-03-10
- [ ] Pay rent [due:: 2025-03-10]
`

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "projects"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "projects", "house.md"), []byte(houseNote), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard, "", 0)
	vault, err := store.Open(root, calendar.New(time.UTC), logger)
	if err != nil {
		t.Fatal(err)
	}
	rw := rewrite.New(vault, rewrite.Options{Logger: logger})
	svc := dashboard.New(vault, rw, dashboard.Folders{Daily: "daily", Weekly: "weekly", Monthly: "monthly"}, logger)
	return NewServer(svc), root
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *Server, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q", method, target, w.Body.String())
	}
	return w, env
}

func TestNewServer_NilService(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil service")
		}
	}()
	NewServer(nil)
}

func TestViews(t *testing.T) {
	s, _ := setupServer(t)

	tests := []struct {
		name   string
		target string
		code   int
		count  int
	}{
		{"week", "/api/week/2025-W10", http.StatusOK, 3},
		{"day", "/api/day/2025-03-12", http.StatusOK, 1},
		{"month", "/api/month/2025-March", http.StatusOK, 3},
		{"empty month", "/api/month/2025-Feb", http.StatusOK, 0},
		{"wrong period", "/api/week/2025-03-12", http.StatusBadRequest, 0},
		{"bad name", "/api/day/yesterday-ish", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodGet, tt.target, nil)
			if w.Code != tt.code {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			if tt.code != http.StatusOK {
				if env.Success || env.Error == "" {
					t.Errorf("error response = %+v", env)
				}
				return
			}
			var v dashboard.ViewResult
			if err := json.Unmarshal(env.Data, &v); err != nil {
				t.Fatal(err)
			}
			if v.Count != tt.count {
				t.Errorf("count = %d, want %d", v.Count, tt.count)
			}
		})
	}
}

func TestView_Current(t *testing.T) {
	s, _ := setupServer(t)
	for _, target := range []string{"/api/day", "/api/week", "/api/month"} {
		if w, _ := do(t, s, http.MethodGet, target, nil); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", target, w.Code)
		}
	}
}

func TestAgenda(t *testing.T) {
	s, _ := setupServer(t)

	w, env := do(t, s, http.MethodGet, "/api/agenda?at=2025-03-12", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var a dashboard.AgendaResult
	if err := json.Unmarshal(env.Data, &a); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, ti := range a.Tasks {
		got = append(got, ti.Description)
	}
	if strings.Join(got, ", ") != "Paint fence, Pay rent" {
		t.Errorf("agenda = %v", got)
	}
	if len(a.Tasks[0].Children) != 1 {
		t.Errorf("Paint fence children = %d", len(a.Tasks[0].Children))
	}

	if w, _ := do(t, s, http.MethodGet, "/api/agenda?at=soon", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad at = %d", w.Code)
	}
}

func TestTaskActions(t *testing.T) {
	s, root := setupServer(t)
	line := func(n int) *int { return &n }

	w, env := do(t, s, http.MethodPost, "/api/tasks/status", statusRequest{Path: "projects/house.md", Line: line(3), Status: "done"})
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d (%s)", w.Code, w.Body.String())
	}
	var ti dashboard.TaskInfo
	if err := json.Unmarshal(env.Data, &ti); err != nil {
		t.Fatal(err)
	}
	if ti.Status != "x" || ti.Completion == "" {
		t.Errorf("task = %+v", ti)
	}

	w, env = do(t, s, http.MethodPost, "/api/tasks/toggle", refRequest{Path: "projects/house.md", Line: line(3)})
	if w.Code != http.StatusOK {
		t.Fatalf("toggle code = %d", w.Code)
	}
	if err := json.Unmarshal(env.Data, &ti); err != nil {
		t.Fatal(err)
	}
	if ti.Status != " " || ti.Text != "Pay rent [due:: 2025-03-10]" {
		t.Errorf("toggled = %+v", ti)
	}

	w, env = do(t, s, http.MethodPost, "/api/tasks/reschedule", rescheduleRequest{Path: "projects/house.md", Line: line(0), Date: "+2d"})
	if w.Code != http.StatusOK {
		t.Fatalf("reschedule code = %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &ti); err != nil {
		t.Fatal(err)
	}
	if ti.Due != "2025-03-14" {
		t.Errorf("rescheduled = %+v", ti)
	}

	w, env = do(t, s, http.MethodPost, "/api/tasks/id", refRequest{Path: "projects/house.md", Line: line(1)})
	if w.Code != http.StatusOK || len(env.ID) != 6 {
		t.Errorf("assign id = %d %q", w.Code, env.ID)
	}

	data, err := os.ReadFile(filepath.Join(root, "projects", "house.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "  - [ ] Buy brushes [id:: "+env.ID+"]\n") {
		t.Errorf("house.md = %q", data)
	}
}

func TestTaskActions_Errors(t *testing.T) {
	s, _ := setupServer(t)
	line := func(n int) *int { return &n }

	tests := []struct {
		name   string
		target string
		body   any
		code   int
	}{
		{"missing line", "/api/tasks/status", map[string]any{"path": "projects/house.md", "status": "done"}, http.StatusBadRequest},
		{"bad status", "/api/tasks/status", statusRequest{Path: "projects/house.md", Line: line(0), Status: "later"}, http.StatusBadRequest},
		{"no task", "/api/tasks/status", statusRequest{Path: "projects/house.md", Line: line(9), Status: "done"}, http.StatusNotFound},
		{"no note", "/api/tasks/toggle", refRequest{Path: "nope.md", Line: line(0)}, http.StatusNotFound},
		{"outside vault", "/api/tasks/toggle", refRequest{Path: "../escape.md", Line: line(0)}, http.StatusBadRequest},
		{"bad date", "/api/tasks/reschedule", rescheduleRequest{Path: "projects/house.md", Line: line(0), Date: "whenever"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodPost, tt.target, tt.body)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			if env.Success {
				t.Error("success on error response")
			}
		})
	}
}

func TestGetTask(t *testing.T) {
	s, _ := setupServer(t)
	w, env := do(t, s, http.MethodGet, "/api/task?path=projects/house.md&line=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var ti dashboard.TaskInfo
	if err := json.Unmarshal(env.Data, &ti); err != nil {
		t.Fatal(err)
	}
	if ti.Status != "-" || ti.Description != "Buy ladder" {
		t.Errorf("task = %+v", ti)
	}
	if w, _ := do(t, s, http.MethodGet, "/api/task?path=projects/house.md", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing line = %d", w.Code)
	}
}
