package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/middleware"
	"github.com/siddhisinghrathor/Dev-Flow/internal/repository"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
	Duration    *int    `json:"duration"`
	DueDate     *string `json:"dueDate"`
	GoalID      *string `json:"goalId"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Duration    *int    `json:"duration"`
	DueDate     *string `json:"dueDate"`
	GoalID      *string `json:"goalId"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request body"))
		return
	}

	dueDate, apiErr := parseDatePtr(req.DueDate, "dueDate")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if req.GoalID != nil {
		if _, err := uuid.Parse(*req.GoalID); err != nil {
			writeError(c, apperrors.Validation("invalid goal id"))
			return
		}
	}

	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Duration:    req.Duration,
		DueDate:     dueDate,
		GoalID:      req.GoalID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondCreated(c, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	filter := repository.TaskFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		GoalID:   c.Query("goalId"),
	}

	tasks, apiErr := h.taskService.List(c.Request.Context(), userID, filter)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	taskID, apiErr := taskIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Get(c.Request.Context(), userID, taskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	taskID, apiErr := taskIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request body"))
		return
	}

	dueDate, apiErr := parseDatePtr(req.DueDate, "dueDate")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	userID := middleware.UserID(c)
	task, apiErr := h.taskService.Update(c.Request.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
		Duration:    req.Duration,
		DueDate:     dueDate,
		GoalID:      req.GoalID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, apiErr := taskIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	userID := middleware.UserID(c)
	if apiErr := h.taskService.Delete(c.Request.Context(), userID, taskID); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, gin.H{"message": "task deleted"})
}

func taskIDParam(c *gin.Context) (string, *apperrors.APIError) {
	taskID := c.Param("taskId")
	if _, err := uuid.Parse(taskID); err != nil {
		return "", apperrors.Validation("invalid task id")
	}
	return taskID, nil
}

func parseDatePtr(raw *string, name string) (*time.Time, *apperrors.APIError) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, apperrors.Validation("invalid " + name)
	}
	return &t, nil
}
