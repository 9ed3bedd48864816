package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	"github.com/siddhisinghrathor/Dev-Flow/internal/db"
	"github.com/siddhisinghrathor/Dev-Flow/internal/handler"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
	"github.com/siddhisinghrathor/Dev-Flow/internal/router"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
	"github.com/siddhisinghrathor/Dev-Flow/internal/ws"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type authData struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type sessionData struct {
	ID             string `json:"id"`
	TaskID         string `json:"taskId"`
	IsRunning      bool   `json:"isRunning"`
	ElapsedAtPause int    `json:"elapsedAtPause"`
	TotalDuration  *int   `json:"totalDuration"`
	CurrentElapsed int    `json:"currentElapsed"`
	Task           *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"task"`
}

type taskData struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	TimeSpent int    `json:"timeSpent"`
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	engine := setupTestEngine(t)

	user1 := registerUser(t, engine, "user1@example.com", "123456")
	user2 := registerUser(t, engine, "user2@example.com", "123456")

	// Create a task for user1.
	status, body := requestJSON(t, engine, http.MethodPost, "/api/tasks", user1.Token, map[string]interface{}{
		"title":    "write handler tests",
		"category": "backend",
		"priority": "high",
	})
	if status != http.StatusCreated {
		t.Fatalf("create task failed with %d: %s", status, body)
	}
	var task taskData
	decodeData(t, body, &task)

	// Start a timer against it.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/timer/start", user1.Token, map[string]interface{}{
		"taskId": task.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("start failed with %d: %s", status, body)
	}
	var session sessionData
	decodeData(t, body, &session)
	if !session.IsRunning || session.Task == nil {
		t.Fatalf("unexpected start response: %s", body)
	}

	// A second start conflicts.
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/timer/start", user1.Token, map[string]interface{}{
		"taskId": task.ID,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for second start, got %d", status)
	}

	// The other user cannot touch it.
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/timer/pause/"+session.ID, user2.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign pause, got %d", status)
	}

	// Pause, resume, stop.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/timer/pause/"+session.ID, user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("pause failed with %d: %s", status, body)
	}
	var pausedSession sessionData
	decodeData(t, body, &pausedSession)
	if pausedSession.IsRunning {
		t.Fatal("expected paused session")
	}

	// Active still returns the paused session for reconciliation.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/timer/active", user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("active failed with %d: %s", status, body)
	}
	var activeSession sessionData
	decodeData(t, body, &activeSession)
	if activeSession.ID != session.ID {
		t.Fatalf("expected active session %s, got %s", session.ID, activeSession.ID)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/timer/resume/"+session.ID, user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("resume failed with %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/timer/stop/"+session.ID, user1.Token, map[string]interface{}{
		"completeTask": true,
	})
	if status != http.StatusOK {
		t.Fatalf("stop failed with %d: %s", status, body)
	}
	var stoppedSession sessionData
	decodeData(t, body, &stoppedSession)
	if stoppedSession.TotalDuration == nil {
		t.Fatalf("expected totalDuration on stop: %s", body)
	}

	// Task was completed by the stop.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/tasks/"+task.ID, user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("get task failed with %d", status)
	}
	var completedTask taskData
	decodeData(t, body, &completedTask)
	if completedTask.Status != "completed" {
		t.Fatalf("expected completed task, got %s", completedTask.Status)
	}

	// Active is now empty.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/timer/active", user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("active failed with %d", status)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if string(env.Data) != "null" {
		t.Fatalf("expected null active session, got %s", env.Data)
	}

	// History contains the terminal session; user2 sees nothing.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/timer/history", user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("history failed with %d", status)
	}
	var history []sessionData
	decodeData(t, body, &history)
	if len(history) != 1 || history[0].ID != session.ID {
		t.Fatalf("unexpected history: %s", body)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/timer/history", user2.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("user2 history failed with %d", status)
	}
	var history2 []sessionData
	decodeData(t, body, &history2)
	if len(history2) != 0 {
		t.Fatalf("expected empty history for user2, got %d entries", len(history2))
	}

	// The audit trail recorded the transitions.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/activity?limit=10", user1.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("activity failed with %d", status)
	}
	var activity []struct {
		Action string `json:"action"`
	}
	decodeData(t, body, &activity)
	seen := make(map[string]bool)
	for _, entry := range activity {
		seen[entry.Action] = true
	}
	for _, action := range []string{"timer_started", "timer_paused", "timer_resumed", "timer_stopped"} {
		if !seen[action] {
			t.Fatalf("missing %s in activity log: %s", action, body)
		}
	}
}

func TestValidationAndAuthErrors(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "user@example.com", "123456")

	// Missing taskId.
	status, _ := requestJSON(t, engine, http.MethodPost, "/api/timer/start", user.Token, map[string]interface{}{})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing taskId, got %d", status)
	}

	// Malformed timer id.
	status, _ = requestJSON(t, engine, http.MethodPost, "/api/timer/pause/not-a-uuid", user.Token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", status)
	}

	// Missing credential.
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/timer/active", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	// Garbage credential.
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/timer/active", "garbage", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	clk := clock.System()
	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	activityRepo := repository.NewActivityRepository(database)

	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour)
	activityService := service.NewActivityService(activityRepo, clk)
	goalService := service.NewGoalService(goalRepo, taskRepo, activityService, hub, clk)
	taskService := service.NewTaskService(taskRepo, goalService, activityService, hub, clk)
	timerService := service.NewTimerService(timerRepo, taskRepo, goalService, activityService, hub, clk)

	return router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewTimerHandler(timerService),
		handler.NewTaskHandler(taskService),
		handler.NewGoalHandler(goalService),
		handler.NewActivityHandler(activityService),
		hub,
		[]string{"http://localhost:5173"},
	)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authData {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var data authData
	decodeData(t, body, &data)
	if data.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return data
}

func decodeData(t *testing.T, body []byte, out interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v (%s)", err, string(body))
	}
	if !env.Success {
		t.Fatalf("expected success envelope: %s", string(body))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("unmarshal data: %v (%s)", err, string(env.Data))
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
