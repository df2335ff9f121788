package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
)

func (s *Server) ListGoals(c *gin.Context) {
	householdID := strings.TrimSpace(c.Query("household_id"))
	if householdID == "" {
		AbortWithError(c, newValidationError("household_id", "required", "household id is required"))
		return
	}

	goals, err := s.goalSvc.List(c.Request.Context(), householdID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (s *Server) CreateGoal(c *gin.Context) {
	var req goaldomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	goal, err := s.goalSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *Server) GetGoalByID(c *gin.Context) {
	goal, err := s.goalSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) UpdateGoal(c *gin.Context) {
	var req goaldomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	goal, err := s.goalSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *Server) DeleteGoal(c *gin.Context) {
	if err := s.goalSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
