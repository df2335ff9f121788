package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
)

type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) ListHouseholds(c *gin.Context) {
	households, err := s.householdSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"households": households})
}

func (s *Server) CreateHousehold(c *gin.Context) {
	var req householddomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	household, err := s.householdSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, household)
}

func (s *Server) GetHouseholdByID(c *gin.Context) {
	household, err := s.householdSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

func (s *Server) UpdateHousehold(c *gin.Context) {
	var req householddomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	household, err := s.householdSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

func (s *Server) DeleteHousehold(c *gin.Context) {
	if err := s.householdSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListHouseholdMembers(c *gin.Context) {
	members, err := s.householdSvc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) AddHouseholdMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user id is required"))
		return
	}

	if err := s.householdSvc.AddMember(c.Request.Context(), c.Param("id"), userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RemoveHouseholdMember(c *gin.Context) {
	if err := s.householdSvc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
