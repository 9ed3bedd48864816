package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEffectiveElapsedFormula(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryBackend, nil)

	started, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})
	if apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}
	if !started.IsRunning || started.ElapsedAtPause != 0 {
		t.Fatalf("unexpected initial session state: %+v", started.Session)
	}

	env.clk.Advance(90 * time.Second)

	active, apiErr := env.timer.Active(ctx, env.userID)
	if apiErr != nil {
		t.Fatalf("active: %v", apiErr)
	}
	if active.CurrentElapsed != 90 {
		t.Fatalf("expected 90s elapsed, got %d", active.CurrentElapsed)
	}

	// Same clock instant, same answer: the value is derived from persisted
	// anchors, not from a ticking counter.
	again, apiErr := env.timer.Active(ctx, env.userID)
	if apiErr != nil {
		t.Fatalf("active again: %v", apiErr)
	}
	if again.CurrentElapsed != active.CurrentElapsed {
		t.Fatalf("repeated reads diverged: %d vs %d", again.CurrentElapsed, active.CurrentElapsed)
	}
}

func TestPauseResumeRoundTripPreservesTotal(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryBackend, nil)

	started, _ := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})

	env.clk.Advance(10 * time.Second)
	paused, apiErr := env.timer.Pause(ctx, env.userID, started.ID)
	if apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}
	if paused.ElapsedAtPause != 10 {
		t.Fatalf("expected elapsedAtPause 10, got %d", paused.ElapsedAtPause)
	}

	// The gap while paused must not count.
	env.clk.Advance(37 * time.Minute)
	resumed, apiErr := env.timer.Resume(ctx, env.userID, started.ID)
	if apiErr != nil {
		t.Fatalf("resume: %v", apiErr)
	}
	if resumed.ElapsedAtPause != 10 || !resumed.IsRunning {
		t.Fatalf("unexpected session after resume: %+v", resumed.Session)
	}

	env.clk.Advance(5 * time.Second)
	paused2, apiErr := env.timer.Pause(ctx, env.userID, started.ID)
	if apiErr != nil {
		t.Fatalf("second pause: %v", apiErr)
	}
	if paused2.ElapsedAtPause != 15 {
		t.Fatalf("expected elapsedAtPause 15, got %d", paused2.ElapsedAtPause)
	}
}

func TestStopAccountingScenario(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	limit := 1500
	task := env.createTask(t, model.CategoryDSA, nil)

	started, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{
		TaskID:        task.ID,
		DurationLimit: &limit,
	})
	if apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}

	env.clk.Advance(12 * time.Minute)
	paused, apiErr := env.timer.Pause(ctx, env.userID, started.ID)
	if apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}
	if paused.ElapsedAtPause != 720 {
		t.Fatalf("expected 720s after pause, got %d", paused.ElapsedAtPause)
	}

	env.clk.Advance(8 * time.Minute)
	if _, apiErr := env.timer.Resume(ctx, env.userID, started.ID); apiErr != nil {
		t.Fatalf("resume: %v", apiErr)
	}

	env.clk.Advance(5 * time.Minute)
	stopped, apiErr := env.timer.Stop(ctx, env.userID, started.ID, true)
	if apiErr != nil {
		t.Fatalf("stop: %v", apiErr)
	}
	if stopped.TotalDuration == nil || *stopped.TotalDuration != 1020 {
		t.Fatalf("expected totalDuration 1020, got %v", stopped.TotalDuration)
	}
	if stopped.EndTime == nil || stopped.IsRunning {
		t.Fatalf("expected terminal session, got %+v", stopped.Session)
	}

	updated, err := env.tasks.GetByID(ctx, task.ID, env.userID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if updated.TimeSpent != 1020 {
		t.Fatalf("expected timeSpent 1020, got %d", updated.TimeSpent)
	}
	if updated.Status != model.TaskStatusCompleted || updated.CompletedAt == nil {
		t.Fatalf("expected completed task, got status=%s", updated.Status)
	}
}

func TestSingleActiveSessionInvariant(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	taskA := env.createTask(t, model.CategoryBackend, nil)
	taskB := env.createTask(t, model.CategoryFrontend, nil)

	started, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: taskA.ID})
	if apiErr != nil {
		t.Fatalf("start: %v", apiErr)
	}

	_, apiErr = env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: taskB.ID})
	if apiErr == nil {
		t.Fatal("expected conflict for second start")
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", apiErr.Status)
	}

	// A paused session is still non-terminal and still blocks a new start.
	env.clk.Advance(time.Minute)
	if _, apiErr := env.timer.Pause(ctx, env.userID, started.ID); apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}
	if _, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: taskB.ID}); apiErr == nil {
		t.Fatal("expected conflict while paused session exists")
	}

	if _, apiErr := env.timer.Stop(ctx, env.userID, started.ID, false); apiErr != nil {
		t.Fatalf("stop: %v", apiErr)
	}
	if _, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: taskB.ID}); apiErr != nil {
		t.Fatalf("start after stop: %v", apiErr)
	}
}

func TestPauseOnPausedSessionFails(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryBackend, nil)

	started, _ := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})
	env.clk.Advance(10 * time.Second)
	if _, apiErr := env.timer.Pause(ctx, env.userID, started.ID); apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}

	env.clk.Advance(30 * time.Second)
	_, apiErr := env.timer.Pause(ctx, env.userID, started.ID)
	if apiErr == nil {
		t.Fatal("expected error pausing a paused session")
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.Status)
	}

	// The failed call must not have touched the accumulated total.
	active, _ := env.timer.Active(ctx, env.userID)
	if active.ElapsedAtPause != 10 {
		t.Fatalf("elapsedAtPause corrupted by failed pause: %d", active.ElapsedAtPause)
	}
}

func TestResumeOnRunningSessionFails(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryBackend, nil)

	started, _ := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})
	_, apiErr := env.timer.Resume(ctx, env.userID, started.ID)
	if apiErr == nil {
		t.Fatal("expected error resuming a running session")
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.Status)
	}
}

func TestDoubleStop(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryBackend, nil)

	started, _ := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})
	env.clk.Advance(42 * time.Second)
	if _, apiErr := env.timer.Stop(ctx, env.userID, started.ID, false); apiErr != nil {
		t.Fatalf("stop: %v", apiErr)
	}

	_, apiErr := env.timer.Stop(ctx, env.userID, started.ID, false)
	if apiErr == nil {
		t.Fatal("expected error stopping a terminal session")
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.Status)
	}

	// No double counting.
	updated, err := env.tasks.GetByID(ctx, task.ID, env.userID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if updated.TimeSpent != 42 {
		t.Fatalf("expected timeSpent 42, got %d", updated.TimeSpent)
	}
}

func TestStopWhilePausedFreezesElapsed(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	task := env.createTask(t, model.CategoryHealth, nil)

	started, _ := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: task.ID})
	env.clk.Advance(10 * time.Second)
	if _, apiErr := env.timer.Pause(ctx, env.userID, started.ID); apiErr != nil {
		t.Fatalf("pause: %v", apiErr)
	}

	env.clk.Advance(100 * time.Second)
	stopped, apiErr := env.timer.Stop(ctx, env.userID, started.ID, false)
	if apiErr != nil {
		t.Fatalf("stop: %v", apiErr)
	}
	if stopped.TotalDuration == nil || *stopped.TotalDuration != 10 {
		t.Fatalf("expected totalDuration 10, got %v", stopped.TotalDuration)
	}
}

func TestHistoryAndStats(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()
	backend := env.createTask(t, model.CategoryBackend, nil)
	frontend := env.createTask(t, model.CategoryFrontend, nil)

	runSession := func(taskID string, d time.Duration) {
		t.Helper()
		started, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: taskID})
		if apiErr != nil {
			t.Fatalf("start: %v", apiErr)
		}
		env.clk.Advance(d)
		if _, apiErr := env.timer.Stop(ctx, env.userID, started.ID, false); apiErr != nil {
			t.Fatalf("stop: %v", apiErr)
		}
		env.clk.Advance(time.Minute)
	}

	runSession(backend.ID, 100*time.Second)
	runSession(backend.ID, 200*time.Second)
	runSession(frontend.ID, 50*time.Second)

	history, apiErr := env.timer.History(ctx, env.userID, "", 0)
	if apiErr != nil {
		t.Fatalf("history: %v", apiErr)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 terminal sessions, got %d", len(history))
	}
	if *history[0].TotalDuration != 50 {
		t.Fatalf("expected newest session first, got duration %d", *history[0].TotalDuration)
	}
	if history[0].Task == nil || history[0].Task.Category != model.CategoryFrontend {
		t.Fatalf("expected task summary on history entries: %+v", history[0].Task)
	}

	backendOnly, apiErr := env.timer.History(ctx, env.userID, backend.ID, 0)
	if apiErr != nil {
		t.Fatalf("history filtered: %v", apiErr)
	}
	if len(backendOnly) != 2 {
		t.Fatalf("expected 2 backend sessions, got %d", len(backendOnly))
	}

	stats, apiErr := env.timer.Stats(ctx, env.userID, nil, nil)
	if apiErr != nil {
		t.Fatalf("stats: %v", apiErr)
	}
	if stats.TotalTime != 350 || stats.SessionCount != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AvgSessionDuration != 117 {
		t.Fatalf("expected avg 117, got %d", stats.AvgSessionDuration)
	}
	if stats.ByCategory[model.CategoryBackend] != 300 || stats.ByCategory[model.CategoryFrontend] != 50 {
		t.Fatalf("unexpected category split: %+v", stats.ByCategory)
	}
}

func TestStartUnknownTask(t *testing.T) {
	env := newTestEnv(t, t0)
	ctx := context.Background()

	_, apiErr := env.timer.Start(ctx, env.userID, service.StartTimerInput{TaskID: "1f4d9f5e-0000-4000-8000-000000000000"})
	if apiErr == nil {
		t.Fatal("expected error for unknown task")
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.Status)
	}
}
