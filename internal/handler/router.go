package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Agents    *AgentHandler
	Chat      *ChatHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/login", middleware.RateLimit(time.Second), deps.Auth.Login)
	api.POST("/auth/logout", deps.Auth.Logout)
	api.GET("/agents", deps.Agents.List)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/chat", deps.Chat.Chat)
}
