package handlers

import (
	"strconv"

	"pizza-service/apperrors"
	"pizza-service/utils"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": message} with its mapped status.
// Server-side failures are attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.Status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, gin.H{"error": appErr.Message})
}

// bindJSON binds the body and answers 400 itself when binding fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.Validation(utils.SanitizeValidationError(err)))
		return false
	}
	return true
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid "+name))
		return 0, false
	}
	return uint(id), true
}
