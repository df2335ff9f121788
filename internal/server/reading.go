package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
)

func (s *Server) ListMeterReadings(c *gin.Context) {
	req := readingdomain.ListRequest{
		MeterID: c.Param("id"),
	}

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_time", "from must be RFC 3339"))
			return
		}
		req.From = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_time", "to must be RFC 3339"))
			return
		}
		req.To = &to
	}
	req.PageToken = strings.TrimSpace(c.Query("page_token"))
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page size must be a positive integer"))
			return
		}
		req.PageSize = size
	}

	resp, err := s.readingSvc.ListByMeter(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateReading(c *gin.Context) {
	var req readingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reading, err := s.readingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reading)
}

func (s *Server) UpdateReading(c *gin.Context) {
	var req readingdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	reading, err := s.readingSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

func (s *Server) DeleteReading(c *gin.Context) {
	if err := s.readingSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
