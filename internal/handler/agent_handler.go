package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/response"
)

type AgentHandler struct {
	agents []model.Agent
}

func NewAgentHandler() *AgentHandler {
	return &AgentHandler{
		agents: []model.Agent{
			{
				Type:        model.AgentCustomer,
				Name:        "Customer Services",
				Description: "City services, permits, service requests and general questions.",
			},
			{
				Type:        model.AgentEnergy,
				Name:        "Energy Advisor",
				Description: "Energy usage, rates, solar programs and efficiency tips.",
			},
		},
	}
}

func (h *AgentHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"agents": h.agents})
}
