package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorEnvelope is the body of every non-2xx API response. Successful
// responses carry the resource itself.
type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Error     *APIError `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	writeError(c, statusCode, &APIError{Code: code, Message: message})
}

// AbortWithError writes the taxonomy response for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	status, code, message := ErrorCode(err)
	ErrorResponse(c, status, code, message)
	c.Abort()
}

// ValidationErrorResponse reports per-field messages under error.details.
func ValidationErrorResponse(c *gin.Context, fields map[string]string) {
	writeError(c, http.StatusBadRequest, &APIError{
		Code:    "VALIDATION_ERROR",
		Message: MsgValidationFailed,
		Details: fields,
	})
}

func UnauthorizedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusUnauthorized, "AUTH_ERROR", MsgUnauthorized)
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func writeError(c *gin.Context, statusCode int, apiErr *APIError) {
	c.JSON(statusCode, ErrorEnvelope{
		Status:    StatusError,
		Error:     apiErr,
		Timestamp: time.Now().UTC(),
	})
}
