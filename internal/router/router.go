package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siddhisinghrathor/Dev-Flow/internal/handler"
	"github.com/siddhisinghrathor/Dev-Flow/internal/middleware"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
	"github.com/siddhisinghrathor/Dev-Flow/internal/ws"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	taskHandler *handler.TaskHandler,
	goalHandler *handler.GoalHandler,
	activityHandler *handler.ActivityHandler,
	hub *ws.Hub,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if hub != nil {
		engine.GET("/ws", ws.Handler(hub, authService, corsOrigins))
	}

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	timer := api.Group("/timer")
	timer.Use(middleware.Auth(authService))
	timer.POST("/start", timerHandler.Start)
	timer.GET("/active", timerHandler.Active)
	timer.POST("/pause/:timerId", timerHandler.Pause)
	timer.POST("/resume/:timerId", timerHandler.Resume)
	timer.POST("/stop/:timerId", timerHandler.Stop)
	timer.GET("/history", timerHandler.History)
	timer.GET("/stats", timerHandler.Stats)

	tasks := api.Group("/tasks")
	tasks.Use(middleware.Auth(authService))
	tasks.POST("", taskHandler.Create)
	tasks.GET("", taskHandler.List)
	tasks.GET("/:taskId", taskHandler.Get)
	tasks.PUT("/:taskId", taskHandler.Update)
	tasks.DELETE("/:taskId", taskHandler.Delete)

	goals := api.Group("/goals")
	goals.Use(middleware.Auth(authService))
	goals.POST("", goalHandler.Create)
	goals.GET("", goalHandler.List)
	goals.GET("/:goalId", goalHandler.Get)

	activity := api.Group("/activity")
	activity.Use(middleware.Auth(authService))
	activity.GET("", activityHandler.List)

	return engine
}
