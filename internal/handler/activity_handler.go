package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
	"github.com/siddhisinghrathor/Dev-Flow/internal/middleware"
	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(c, apperrors.Validation("invalid limit"))
			return
		}
		limit = parsed
	}

	entries, apiErr := h.activityService.ListByUser(c.Request.Context(), userID, limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	respondOK(c, entries)
}
