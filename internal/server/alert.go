package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
)

func (s *Server) ListAlerts(c *gin.Context) {
	householdID := strings.TrimSpace(c.Query("household_id"))
	if householdID == "" {
		AbortWithError(c, newValidationError("household_id", "required", "household id is required"))
		return
	}

	alerts, err := s.alertSvc.List(c.Request.Context(), alertdomain.ListRequest{
		HouseholdID: householdID,
		Status:      strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) GetAlertByID(c *gin.Context) {
	alert, err := s.alertSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (s *Server) AcknowledgeAlert(c *gin.Context) {
	alert, err := s.alertSvc.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}
