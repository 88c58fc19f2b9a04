package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/userlookup/pkg/errors"
)

// Response is the payload written by every read endpoint. Exactly one of
// Data or Error is populated; LatencyMS is always present.
type Response struct {
	Source    string      `json:"source,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	LatencyMS float64     `json:"latency_ms"`
}

// Since reports the elapsed milliseconds since start as a float.
func Since(start time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	return float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
}

// Success writes a JSON payload naming the source that satisfied the read.
func Success(c *gin.Context, statusCode int, source string, data interface{}, start time.Time) {
	c.JSON(statusCode, Response{
		Source:    source,
		Data:      data,
		LatencyMS: Since(start),
	})
}

// Error writes a JSON error payload derived from an AppError.
func Error(c *gin.Context, err error, start time.Time) {
	ErrorWithStatus(c, 0, err, start)
}

// ErrorWithStatus writes an error payload using statusCode, or the AppError
// status when statusCode is zero.
func ErrorWithStatus(c *gin.Context, statusCode int, err error, start time.Time) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := statusCode
	if status == 0 {
		status = appErr.StatusCode
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Error:     appErr.Message,
		Code:      appErr.Code,
		LatencyMS: Since(start),
	})
}

// Abort writes an error payload and stops the middleware chain.
func Abort(c *gin.Context, err error, start time.Time) {
	Error(c, err, start)
	c.Abort()
}
