package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps sentinel errors to the HTTP surface. No stack traces
// leak; the taxonomy code rides in error_code.
func HandleServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, ErrInputInvalid):
		status = http.StatusUnprocessableEntity
		message = "Input validation failed"
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
		message = "Rate limit exceeded, retry later"
	case errors.Is(err, ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
		message = "Required external provider unavailable"
	case errors.Is(err, ErrDeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "Request deadline exceeded"
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
		message = "Session not found"
	case errors.Is(err, ErrPlanNotFound):
		status = http.StatusNotFound
		message = "Plan not found"
	case errors.Is(err, ErrInvalidPage):
		status = http.StatusBadRequest
		message = "Page must be greater than 0"
	}

	c.JSON(status, APIResponse{
		Status:    "error",
		Code:      status,
		ErrorCode: ErrorCode(err),
		Message:   message,
		TraceID:   traceID(c),
	})
}
