package main

import (
	"log"

	"github.com/siddhisinghrathor/Dev-Flow/internal/clock"
	"github.com/siddhisinghrathor/Dev-Flow/internal/config"
	"github.com/siddhisinghrathor/Dev-Flow/internal/db"
	"github.com/siddhisinghrathor/Dev-Flow/internal/handler"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
	"github.com/siddhisinghrathor/Dev-Flow/internal/router"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
	"github.com/siddhisinghrathor/Dev-Flow/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	clk := clock.System()
	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	activityRepo := repository.NewActivityRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	activityService := service.NewActivityService(activityRepo, clk)
	goalService := service.NewGoalService(goalRepo, taskRepo, activityService, hub, clk)
	taskService := service.NewTaskService(taskRepo, goalService, activityService, hub, clk)
	timerService := service.NewTimerService(timerRepo, taskRepo, goalService, activityService, hub, clk)

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService)
	taskHandler := handler.NewTaskHandler(taskService)
	goalHandler := handler.NewGoalHandler(goalService)
	activityHandler := handler.NewActivityHandler(activityService)

	engine := router.New(
		authService,
		authHandler,
		timerHandler,
		taskHandler,
		goalHandler,
		activityHandler,
		hub,
		cfg.CORSOrigins,
	)

	log.Printf("server listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
