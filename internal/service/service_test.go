package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	"github.com/siddhisinghrathor/Dev-Flow/internal/db"
	"github.com/siddhisinghrathor/Dev-Flow/internal/model"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

type testEnv struct {
	db       *sql.DB
	clk      *clock.Manual
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	goals    *repository.GoalRepository
	timer    *service.TimerService
	taskSvc  *service.TaskService
	goalSvc  *service.GoalService
	activity *service.ActivityService
	userID   string
}

func newTestEnv(t *testing.T, start time.Time) *testEnv {
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

	clk := clock.NewManual(start)

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	activityRepo := repository.NewActivityRepository(database)

	activitySvc := service.NewActivityService(activityRepo, clk)
	goalSvc := service.NewGoalService(goalRepo, taskRepo, activitySvc, service.NoopNotifier(), clk)
	taskSvc := service.NewTaskService(taskRepo, goalSvc, activitySvc, service.NoopNotifier(), clk)
	timerSvc := service.NewTimerService(timerRepo, taskRepo, goalSvc, activitySvc, service.NoopNotifier(), clk)

	env := &testEnv{
		db:       database,
		clk:      clk,
		users:    userRepo,
		tasks:    taskRepo,
		goals:    goalRepo,
		timer:    timerSvc,
		taskSvc:  taskSvc,
		goalSvc:  goalSvc,
		activity: activitySvc,
		userID:   createUser(t, userRepo, clk),
	}
	return env
}

func createUser(t *testing.T, users *repository.UserRepository, clk clock.Clock) string {
	t.Helper()
	now := clk.Now()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "irrelevant",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func (e *testEnv) createTask(t *testing.T, category string, goalID *string) *model.Task {
	t.Helper()
	task, apiErr := e.taskSvc.Create(context.Background(), e.userID, service.CreateTaskInput{
		Title:    "task " + uuid.NewString()[:8],
		Category: category,
		Priority: model.PriorityMedium,
		GoalID:   goalID,
	})
	if apiErr != nil {
		t.Fatalf("create task: %v", apiErr)
	}
	return task
}

func (e *testEnv) createGoal(t *testing.T) *model.Goal {
	t.Helper()
	now := e.clk.Now()
	goal, apiErr := e.goalSvc.Create(context.Background(), e.userID, service.CreateGoalInput{
		Title:      "goal " + uuid.NewString()[:8],
		Category:   model.CategoryGeneral,
		StartDate:  now,
		TargetDate: now.Add(30 * 24 * time.Hour),
	})
	if apiErr != nil {
		t.Fatalf("create goal: %v", apiErr)
	}
	return goal
}
