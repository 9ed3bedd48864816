package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
)

// TimerService is the focus-session state machine. Every transition is a
// single read-modify-write transaction against the session row, so
// transitions on the same session cannot interleave and the one-active-session
// invariant holds under concurrent requests. Elapsed time is always derived
// from the persisted anchors via Session.EffectiveElapsed, never from an
// in-memory counter.
type TimerService struct {
	repo     *repository.TimerRepository
	tasks    *repository.TaskRepository
	goals    *GoalService
	activity *ActivityService
	notifier Notifier
	clk      clock.Clock
}

type StartTimerInput struct {
	TaskID        string
	DurationLimit *int
}

// SessionView is a session plus the summary of the task it times. ActiveView
// additionally carries the elapsed value computed at response time.
type SessionView struct {
	model.Session
	Task *model.TaskSummary `json:"task,omitempty"`
}

type ActiveView struct {
	model.Session
	Task           *model.TaskSummary `json:"task,omitempty"`
	CurrentElapsed int                `json:"currentElapsed"`
}

type TimerStats struct {
	TotalTime          int            `json:"totalTime"`
	SessionCount       int            `json:"sessionCount"`
	AvgSessionDuration int            `json:"avgSessionDuration"`
	ByCategory         map[string]int `json:"byCategory"`
}

func NewTimerService(
	repo *repository.TimerRepository,
	tasks *repository.TaskRepository,
	goals *GoalService,
	activity *ActivityService,
	notifier Notifier,
	clk clock.Clock,
) *TimerService {
	return &TimerService{
		repo:     repo,
		tasks:    tasks,
		goals:    goals,
		activity: activity,
		notifier: notifier,
		clk:      clk,
	}
}

// Start creates a running session for the task. Fails with a conflict if the
// user already has a non-terminal session; the partial unique index on
// timer_sessions backs the in-transaction check against races.
func (s *TimerService) Start(ctx context.Context, userID string, input StartTimerInput) (*SessionView, *apperrors.APIError) {
	if input.DurationLimit != nil && *input.DurationLimit <= 0 {
		return nil, apperrors.Validation("durationLimit must be positive")
	}

	now := s.clk.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	_, err = s.repo.GetActiveTx(ctx, tx, userID)
	if err == nil {
		return nil, apperrors.Conflict("you already have an active timer, stop it first")
	}
	if err != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to check active timer")
	}

	task, err := s.tasks.GetByIDTx(ctx, tx, input.TaskID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}

	session := model.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		TaskID:         task.ID,
		StartTime:      now,
		IsRunning:      true,
		ElapsedAtPause: 0,
		DurationLimit:  input.DurationLimit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.InsertTx(ctx, tx, &session); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("you already have an active timer, stop it first")
		}
		return nil, apperrors.Internal("failed to create timer session")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.activity.Record(ctx, userID, model.ActionTimerStarted, model.EntityTimer, session.ID, &session.TaskID, nil)
	s.notifier.Publish(userID, "timer:started", session)

	summary := task.Summary()
	return &SessionView{Session: session, Task: &summary}, nil
}

// Active returns the user's non-terminal session, running or paused, with the
// elapsed value computed at response time, or nil when there is none. Clients
// rebuild local timers from this after reconnect.
func (s *TimerService) Active(ctx context.Context, userID string) (*ActiveView, *apperrors.APIError) {
	session, err := s.repo.GetActive(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get active timer")
	}

	view := ActiveView{
		Session:        *session,
		CurrentElapsed: session.EffectiveElapsed(s.clk.Now()),
	}

	task, err := s.tasks.GetByID(ctx, session.TaskID, userID)
	if err == nil {
		summary := task.Summary()
		view.Task = &summary
	}

	return &view, nil
}

// Pause folds the current running interval into elapsed_at_pause. Pausing a
// session that is not running is an error, never a silent no-op: callers rely
// on the transition having happened.
func (s *TimerService) Pause(ctx context.Context, userID, sessionID string) (*SessionView, *apperrors.APIError) {
	now := s.clk.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, err := s.repo.GetByIDTx(ctx, tx, sessionID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("active timer not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get timer")
	}
	if !session.IsRunning || session.Terminal() {
		return nil, apperrors.NotFound("active timer not found")
	}

	session.ElapsedAtPause = session.EffectiveElapsed(now)
	session.IsRunning = false
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update timer")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.activity.Record(ctx, userID, model.ActionTimerPaused, model.EntityTimer, session.ID, &session.TaskID, map[string]interface{}{
		"elapsedSeconds": session.ElapsedAtPause,
	})
	s.notifier.Publish(userID, "timer:paused", session)

	return s.withTaskSummary(ctx, session), nil
}

// Resume re-anchors the running interval at now. elapsed_at_pause is left
// untouched; only pause and stop ever advance it.
func (s *TimerService) Resume(ctx context.Context, userID, sessionID string) (*SessionView, *apperrors.APIError) {
	now := s.clk.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, err := s.repo.GetByIDTx(ctx, tx, sessionID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("paused timer not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get timer")
	}
	if session.IsRunning || session.Terminal() {
		return nil, apperrors.NotFound("paused timer not found")
	}

	session.StartTime = now
	session.IsRunning = true
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update timer")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.activity.Record(ctx, userID, model.ActionTimerResumed, model.EntityTimer, session.ID, &session.TaskID, nil)
	s.notifier.Publish(userID, "timer:resumed", session)

	return s.withTaskSummary(ctx, session), nil
}

// Stop finalizes the session and applies its side effects as one atomic unit:
// total_duration and end_time on the session, the time_spent increment on the
// task, the optional completed transition, and the goal-progress recompute
// all commit or roll back together. Of two concurrent stops exactly one wins;
// the other sees the terminal row and gets a not-found.
func (s *TimerService) Stop(ctx context.Context, userID, sessionID string, completeTask bool) (*SessionView, *apperrors.APIError) {
	now := s.clk.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	session, err := s.repo.GetByIDTx(ctx, tx, sessionID, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("timer not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get timer")
	}
	if session.Terminal() {
		return nil, apperrors.NotFound("timer not found")
	}

	totalDuration := session.EffectiveElapsed(now)
	session.IsRunning = false
	session.EndTime = &now
	session.TotalDuration = &totalDuration
	session.ElapsedAtPause = totalDuration
	session.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperrors.Internal("failed to update timer")
	}

	if err := s.tasks.IncrementTimeSpentTx(ctx, tx, session.TaskID, totalDuration, now); err != nil {
		return nil, apperrors.Internal("failed to update task time")
	}

	if completeTask {
		transitioned, err := s.tasks.MarkCompletedTx(ctx, tx, session.TaskID, now)
		if err != nil {
			return nil, apperrors.Internal("failed to complete task")
		}
		if transitioned {
			task, err := s.tasks.GetByIDTx(ctx, tx, session.TaskID, userID)
			if err == nil && task.GoalID != nil {
				if _, err := s.goals.RecomputeTx(ctx, tx, *task.GoalID, now); err != nil {
					return nil, apperrors.Internal("failed to recompute goal progress")
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.activity.Record(ctx, userID, model.ActionTimerStopped, model.EntityTimer, session.ID, &session.TaskID, map[string]interface{}{
		"totalDuration": totalDuration,
		"taskCompleted": completeTask,
	})
	s.notifier.Publish(userID, "timer:stopped", session)

	return s.withTaskSummary(ctx, session), nil
}

func (s *TimerService) History(ctx context.Context, userID, taskID string, limit int) ([]SessionView, *apperrors.APIError) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.repo.ListTerminal(ctx, userID, taskID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get timer history")
	}

	views := make([]SessionView, 0, len(entries))
	for _, entry := range entries {
		summary := entry.Task
		views = append(views, SessionView{Session: entry.Session, Task: &summary})
	}
	return views, nil
}

func (s *TimerService) Stats(ctx context.Context, userID string, startDate, endDate *time.Time) (*TimerStats, *apperrors.APIError) {
	var start, end interface{}
	if startDate != nil {
		start = startDate.UTC().Format(time.RFC3339Nano)
	}
	if endDate != nil {
		end = endDate.UTC().Format(time.RFC3339Nano)
	}

	rows, err := s.repo.ListStats(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Internal("failed to get timer stats")
	}

	stats := TimerStats{ByCategory: make(map[string]int)}
	for _, row := range rows {
		stats.TotalTime += row.TotalDuration
		stats.SessionCount++
		stats.ByCategory[row.Category] += row.TotalDuration
	}
	if stats.SessionCount > 0 {
		stats.AvgSessionDuration = int(math.Round(float64(stats.TotalTime) / float64(stats.SessionCount)))
	}

	return &stats, nil
}

func (s *TimerService) withTaskSummary(ctx context.Context, session *model.Session) *SessionView {
	view := SessionView{Session: *session}
	task, err := s.tasks.GetByID(ctx, session.TaskID, session.UserID)
	if err == nil {
		summary := task.Summary()
		view.Task = &summary
	}
	return &view
}
