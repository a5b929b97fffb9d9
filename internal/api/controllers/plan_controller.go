package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripweaver/internal/models/request_models"
	"tripweaver/internal/models/response_models"
	"tripweaver/internal/services"
)

type PlanController struct {
	orchestrator services.OrchestratorServiceInterface
}

func NewPlanController(orchestrator services.OrchestratorServiceInterface) *PlanController {
	return &PlanController{orchestrator: orchestrator}
}

func (p *PlanController) Plan(c *gin.Context) {
	var req request_models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "error_code": "input_invalid", "message": "malformed request body"})
		return
	}
	resp := p.orchestrator.Plan(c.Request.Context(), req, "", c.GetString("trace_id"))
	c.JSON(statusCodeFor(resp), resp)
}

func (p *PlanController) Chat(c *gin.Context) {
	var req request_models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "error_code": "input_invalid", "message": "malformed request body"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "error_code": "input_invalid", "message": "session_id is required"})
		return
	}
	planReq := request_models.PlanRequest{Message: req.Message, Metadata: req.Metadata}
	resp := p.orchestrator.Plan(c.Request.Context(), planReq, req.SessionID, c.GetString("trace_id"))
	c.JSON(statusCodeFor(resp), resp)
}

func statusCodeFor(resp *response_models.PlanResponse) int {
	if resp.Status != "error" {
		return http.StatusOK
	}
	switch resp.ErrorCode {
	case "input_invalid":
		return http.StatusUnprocessableEntity
	case "rate_limited":
		return http.StatusTooManyRequests
	case "provider_unavailable":
		return http.StatusServiceUnavailable
	case "deadline_exceeded":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
