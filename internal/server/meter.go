package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
)

func (s *Server) ListMeters(c *gin.Context) {
	householdID := strings.TrimSpace(c.Query("household_id"))
	if householdID == "" {
		AbortWithError(c, newValidationError("household_id", "required", "household id is required"))
		return
	}

	meters, err := s.meterSvc.List(c.Request.Context(), householdID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meters": meters})
}

func (s *Server) CreateMeter(c *gin.Context) {
	var req meterdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	meter, err := s.meterSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meter)
}

func (s *Server) GetMeterByID(c *gin.Context) {
	meter, err := s.meterSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, meter)
}

func (s *Server) UpdateMeter(c *gin.Context) {
	var req meterdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	meter, err := s.meterSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, meter)
}

func (s *Server) DeleteMeter(c *gin.Context) {
	if err := s.meterSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
