package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ClampLimit applies the default for non-positive values and caps at max.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// GetLimitParam reads ?limit=N. Garbage falls back to the default.
func GetLimitParam(c *gin.Context, defaultLimit, maxLimit int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		limit = defaultLimit
	}
	return ClampLimit(limit, defaultLimit, maxLimit)
}
