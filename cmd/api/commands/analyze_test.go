package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"task-prioritizer-backend/internal/client"
	"task-prioritizer-backend/internal/logging"
	"task-prioritizer-backend/internal/tasks"
)

const tasksFile = `[
	{"title":"T1","due_date":"2025-01-01","estimated_hours":2,"importance":5,"dependencies":[]},
	{"title":"T2","due_date":"2025-02-01","estimated_hours":1,"importance":9,"dependencies":["T1"]}
]`

func writeTasks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write tasks: %v", err)
	}
	return path
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := tasks.NewEngine(
		tasks.WithClock(func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }),
		tasks.WithLocation(time.UTC),
	)
	h := tasks.New(engine, nil, tasks.StrategySmart, logging.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks/analyze/", h.Analyze)
	mux.HandleFunc("/api/tasks/suggest/", h.Suggest)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildList(t *testing.T) {
	path := writeTasks(t, tasksFile)

	list, err := buildList(analyzeOptions{file: path, title: "Extra", due: "2025-01-12", hours: 1, importance: 3})
	if err != nil {
		t.Fatalf("buildList: %v", err)
	}
	if list.Len() != 3 {
		t.Errorf("list has %d tasks, want 3", list.Len())
	}

	if _, err := buildList(analyzeOptions{}); err == nil {
		t.Error("expected error for empty input")
	}

	if _, err := buildList(analyzeOptions{title: "Bad", due: "2025-01-12", hours: 1, importance: 11}); !errors.Is(err, tasks.ErrImportanceRange) {
		t.Errorf("importance err = %v", err)
	}

	bad := writeTasks(t, `[{"title":"A"}]`)
	if _, err := buildList(analyzeOptions{file: bad}); !errors.Is(err, tasks.ErrMissingField) {
		t.Errorf("missing field err = %v", err)
	}
}

func TestRunAnalyze(t *testing.T) {
	srv := newAPIServer(t)
	path := writeTasks(t, tasksFile)
	s := client.NewSession(client.New(srv.URL+"/api/tasks", time.Second))

	var out bytes.Buffer
	if err := runAnalyze(context.Background(), s, analyzeOptions{file: path, strategy: "deadline"}, &out); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Deadline Driven") || !strings.Contains(text, "T1") {
		t.Errorf("unexpected output:\n%s", text)
	}
	if strings.Index(text, "T1") > strings.Index(text, "T2") {
		t.Errorf("T1 should be ranked first:\n%s", text)
	}

	out.Reset()
	if err := runAnalyze(context.Background(), s, analyzeOptions{file: path, jsonOutput: true}, &out); err != nil {
		t.Fatalf("runAnalyze json: %v", err)
	}
	var res tasks.AnalysisResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if res.StrategyUsed != tasks.StrategySmart || len(res.Tasks) != 2 {
		t.Errorf("result = %+v", res)
	}

	if err := runAnalyze(context.Background(), s, analyzeOptions{file: path, strategy: "random"}, &out); !errors.Is(err, tasks.ErrUnknownStrategy) {
		t.Errorf("unknown strategy err = %v", err)
	}
}

func TestRunAnalyzeServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := writeTasks(t, tasksFile)
	s := client.NewSession(client.New(url, time.Second))

	var out bytes.Buffer
	err := runAnalyze(context.Background(), s, analyzeOptions{file: path}, &out)
	if !errors.Is(err, client.ErrAnalyzeFailed) {
		t.Fatalf("err = %v, want ErrAnalyzeFailed", err)
	}
}

func TestRunSuggest(t *testing.T) {
	srv := newAPIServer(t)
	path := writeTasks(t, tasksFile)
	c := client.New(srv.URL+"/api/tasks", time.Second)

	var out bytes.Buffer
	if err := runSuggest(context.Background(), c, analyzeOptions{file: path}, &out); err != nil {
		t.Fatalf("runSuggest: %v", err)
	}
	if !strings.Contains(out.String(), "1. ") || !strings.Contains(out.String(), "Score: ") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, b.String())
}

func TestWatchAnalyzeRerunsOnChange(t *testing.T) {
	srv := newAPIServer(t)
	path := writeTasks(t, tasksFile)
	s := client.NewSession(client.New(srv.URL+"/api/tasks", time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out, errOut lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchAnalyze(ctx, s, analyzeOptions{file: path}, &out, &errOut)
	}()

	waitFor(t, &out, "T2")

	updated := `[{"title":"T3","due_date":"2025-01-11","estimated_hours":1,"importance":4,"dependencies":[]}]`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite tasks: %v", err)
	}
	waitFor(t, &out, "T3")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchAnalyze: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watchAnalyze did not stop")
	}
}
