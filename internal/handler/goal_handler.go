package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/middleware"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

type createGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	StartDate   string `json:"startDate"`
	TargetDate  string `json:"targetDate"`
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func (h *GoalHandler) Create(c *gin.Context) {
	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request body"))
		return
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		writeError(c, apperrors.Validation("invalid startDate"))
		return
	}
	targetDate, err := time.Parse(time.RFC3339, req.TargetDate)
	if err != nil {
		writeError(c, apperrors.Validation("invalid targetDate"))
		return
	}

	userID := middleware.UserID(c)
	goal, apiErr := h.goalService.Create(c.Request.Context(), userID, service.CreateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		StartDate:   startDate,
		TargetDate:  targetDate,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondCreated(c, goal)
}

func (h *GoalHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	includeCompleted := c.Query("includeCompleted") == "true"

	goals, apiErr := h.goalService.List(c.Request.Context(), userID, includeCompleted)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, goals)
}

func (h *GoalHandler) Get(c *gin.Context) {
	goalID := c.Param("goalId")
	if _, err := uuid.Parse(goalID); err != nil {
		writeError(c, apperrors.Validation("invalid goal id"))
		return
	}

	userID := middleware.UserID(c)
	goal, apiErr := h.goalService.Get(c.Request.Context(), userID, goalID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, goal)
}
