package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/userlookup/internal/handlers"
)

func registerUserRoutes(router gin.IRouter, handler *handlers.UserHandler) {
	router.GET("/user/:id", handler.Get)
	router.GET("/users", handler.List)
}
