package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userlookup/internal/handlers"
)

func registerMonitoringRoutes(router gin.IRouter, handler *handlers.MonitoringHandler) {
	if router == nil || handler == nil {
		return
	}

	router.GET("/monitoring/summary", handler.Summary)
}
