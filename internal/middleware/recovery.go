package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/userlookup/pkg/errors"
	"github.com/charlesng35/userlookup/pkg/logger"
	"github.com/charlesng35/userlookup/pkg/response"
)

// Recovery converts panics into a 500 response and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", RequestIDFrom(c)),
					zap.Any("error", r),
				)
				// Avoid leaking internals to clients
				response.Abort(c, errors.ErrInternalServer, start)
			}
		}()
		c.Next()
	}
}

var errRouteNotFound = errors.New("ROUTE_NOT_FOUND", "Route not found", 404)

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, &errors.AppError{
		Code:       errRouteNotFound.Code,
		Message:    fmt.Sprintf("route %s not found", c.Request.URL.Path),
		StatusCode: errRouteNotFound.StatusCode,
	}, time.Time{})
}
