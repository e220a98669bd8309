package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/ai"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errcode"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/response"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	AgentType string `json:"agentType"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	agentType := model.AgentType(req.AgentType)
	if req.AgentType == "" {
		agentType = model.AgentCustomer
	}
	if !agentType.Valid() {
		response.Error(c, errcode.ErrInvalid, "unknown agent type")
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), model.Query{
		Message:   req.Message,
		AgentType: agentType,
	})
	if err != nil {
		var mle *ai.ModelLoadingError
		if errors.As(err, &mle) {
			c.JSON(503, gin.H{
				"error":          "Model loading",
				"estimated_time": mle.EstimatedTime,
			})
			return
		}
		if errors.Is(err, appErr.ErrInvalid) {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
		handleError(c, err)
		return
	}
	c.JSON(200, resp)
}
