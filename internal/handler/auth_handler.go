package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errcode"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/response"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	// Tokens are stateless; logout is client-side discard.
	response.Success(c, gin.H{})
}
