package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/scrimhub/internal/handlers"
	"github.com/thereayou/scrimhub/internal/middleware"
	"github.com/thereayou/scrimhub/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	authH *handlers.AuthHandler,
	scrimH *handlers.ScrimHandler,
	adminH *handlers.AdminHandler,
	statsH *handlers.StatsHandler,
	wsH *handlers.WebSocketHandler,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.POST("/scrims", scrimH.Create)
		api.GET("/scrims", scrimH.List)
		api.GET("/scrims/:id", scrimH.Info)
		api.POST("/scrims/:id/join", scrimH.Join)
		api.POST("/scrims/:id/leave", scrimH.Leave)

		api.POST("/scrims/:id/start", adminH.Start)
		api.POST("/scrims/:id/cancel", adminH.Cancel)
		api.POST("/scrims/:id/end", adminH.End)
		api.POST("/scrims/:id/message", adminH.Message)
		api.POST("/admin/purge", adminH.Purge)

		api.GET("/me/scrims", statsH.MyScrims)
	}

	// WebSocket
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
