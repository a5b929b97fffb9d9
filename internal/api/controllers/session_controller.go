package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripweaver/internal/services"
	"tripweaver/pkg/utils"
)

type SessionController struct {
	sessions services.SessionServiceInterface
	export   services.ExportServiceInterface
}

func NewSessionController(sessions services.SessionServiceInterface, export services.ExportServiceInterface) *SessionController {
	return &SessionController{sessions: sessions, export: export}
}

func parseLimit(c *gin.Context) (int, bool) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 200 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid limit (must be 1-200)")
		return 0, false
	}
	return limit, true
}

func (s *SessionController) ListSessions(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	sessions, err := s.sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sessions, "Sessions fetched successfully")
}

func (s *SessionController) History(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Session ID is required")
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	history, err := s.sessions.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, history, "History fetched successfully")
}

func (s *SessionController) Export(c *gin.Context) {
	requestID := c.Param("requestId")
	if requestID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Request ID is required")
		return
	}
	record, err := s.sessions.PlanByRequestID(c.Request.Context(), requestID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	content, contentType, err := s.export.FromRecordJSON(record.ItineraryJSON, c.Query("format"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, []byte(content))
}
