package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/siddhisinghrathor/Dev-Flow/internal/errors"
)

// All responses use the same envelope: {"success": true, "data": ...} on
// success, {"success": false, "message": ...} on failure.

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	body := gin.H{
		"success": false,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		body["errors"] = apiErr.Details
	}

	c.JSON(apiErr.Status, body)
}
