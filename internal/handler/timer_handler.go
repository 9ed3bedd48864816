package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/middleware"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type startTimerRequest struct {
	TaskID        string `json:"taskId"`
	DurationLimit *int   `json:"durationLimit"`
}

type stopTimerRequest struct {
	CompleteTask bool `json:"completeTask"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) Start(c *gin.Context) {
	var req startTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.TaskID == "" {
		writeError(c, apperrors.Validation("taskId is required"))
		return
	}
	if _, err := uuid.Parse(req.TaskID); err != nil {
		writeError(c, apperrors.Validation("invalid task id"))
		return
	}

	userID := middleware.UserID(c)
	session, apiErr := h.timerService.Start(c.Request.Context(), userID, service.StartTimerInput{
		TaskID:        req.TaskID,
		DurationLimit: req.DurationLimit,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondCreated(c, session)
}

func (h *TimerHandler) Active(c *gin.Context) {
	userID := middleware.UserID(c)
	session, apiErr := h.timerService.Active(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if session == nil {
		respondOK(c, nil)
		return
	}
	respondOK(c, session)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	timerID, apiErr := timerIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	userID := middleware.UserID(c)
	session, apiErr := h.timerService.Pause(c.Request.Context(), userID, timerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, session)
}

func (h *TimerHandler) Resume(c *gin.Context) {
	timerID, apiErr := timerIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	userID := middleware.UserID(c)
	session, apiErr := h.timerService.Resume(c.Request.Context(), userID, timerID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, session)
}

func (h *TimerHandler) Stop(c *gin.Context) {
	timerID, apiErr := timerIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	// The body is optional; absence means completeTask=false.
	var req stopTimerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.Validation("invalid request body"))
			return
		}
	}

	userID := middleware.UserID(c)
	session, apiErr := h.timerService.Stop(c.Request.Context(), userID, timerID, req.CompleteTask)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, session)
}

func (h *TimerHandler) History(c *gin.Context) {
	userID := middleware.UserID(c)

	taskID := c.Query("taskId")
	if taskID != "" {
		if _, err := uuid.Parse(taskID); err != nil {
			writeError(c, apperrors.Validation("invalid task id"))
			return
		}
	}

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(c, apperrors.Validation("invalid limit"))
			return
		}
		limit = parsed
	}

	sessions, apiErr := h.timerService.History(c.Request.Context(), userID, taskID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, sessions)
}

func (h *TimerHandler) Stats(c *gin.Context) {
	userID := middleware.UserID(c)

	startDate, apiErr := dateQuery(c, "startDate")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	endDate, apiErr := dateQuery(c, "endDate")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	stats, apiErr := h.timerService.Stats(c.Request.Context(), userID, startDate, endDate)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, stats)
}

func timerIDParam(c *gin.Context) (string, *apperrors.APIError) {
	timerID := c.Param("timerId")
	if _, err := uuid.Parse(timerID); err != nil {
		return "", apperrors.Validation("invalid timer id")
	}
	return timerID, nil
}

func dateQuery(c *gin.Context, name string) (*time.Time, *apperrors.APIError) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, apperrors.Validation("invalid " + name)
}
