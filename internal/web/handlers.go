package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/store"
)

type statusRequest struct {
	Path   string `json:"path" binding:"required"`
	Line   *int   `json:"line" binding:"required"`
	Status string `json:"status"`
}

type rescheduleRequest struct {
	Path string `json:"path" binding:"required"`
	Line *int   `json:"line" binding:"required"`
	Date string `json:"date" binding:"required"`
}

type refRequest struct {
	Path string `json:"path" binding:"required"`
	Line *int   `json:"line" binding:"required"`
}

// statusOf maps a service error to an HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrBadName),
		errors.Is(err, dashboard.ErrBadDate),
		errors.Is(err, store.ErrOutsideVault):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rewrite.ErrAborted):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// View handlers

type viewFunc func(ctx context.Context, name string) (*dashboard.View, error)

func (s *Server) serveView(c *gin.Context, view viewFunc) {
	v, err := view(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.ViewToResult(v),
	})
}

func (s *Server) handleDay(c *gin.Context) {
	s.serveView(c, s.service.Day)
}

func (s *Server) handleWeek(c *gin.Context) {
	s.serveView(c, s.service.Week)
}

func (s *Server) handleMonth(c *gin.Context) {
	s.serveView(c, s.service.Month)
}

func (s *Server) handleAgenda(c *gin.Context) {
	raw := c.Query("at")
	at := calendar.ParseInput(raw, s.service.Calendar().Location())
	if raw != "" && !at.Present() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "at must be YYYY-MM-DD, RFC 3339 or epoch milliseconds",
		})
		return
	}
	a, err := s.service.Agenda(c.Request.Context(), at)
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.AgendaToResult(a),
	})
}

func (s *Server) handleTask(c *gin.Context) {
	line, err := strconv.Atoi(c.Query("line"))
	if err != nil || c.Query("path") == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "path and line query parameters required",
		})
		return
	}
	t, err := s.service.Task(c.Request.Context(), dashboard.Ref{Path: c.Query("path"), Line: line})
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.TaskToInfo(t),
	})
}

// Action handlers

func (s *Server) handleStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	status, ok := dashboard.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "status must be open, done or cancelled",
		})
		return
	}
	t, err := s.service.SetStatus(c.Request.Context(), dashboard.Ref{Path: req.Path, Line: *req.Line}, status)
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.TaskToInfo(t),
	})
}

func (s *Server) handleToggle(c *gin.Context) {
	var req refRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	t, err := s.service.Toggle(c.Request.Context(), dashboard.Ref{Path: req.Path, Line: *req.Line})
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.TaskToInfo(t),
	})
}

func (s *Server) handleReschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	t, err := s.service.Reschedule(c.Request.Context(), dashboard.Ref{Path: req.Path, Line: *req.Line}, req.Date)
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard.TaskToInfo(t),
	})
}

func (s *Server) handleAssignID(c *gin.Context) {
	var req refRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	id, err := s.service.AssignID(c.Request.Context(), dashboard.Ref{Path: req.Path, Line: *req.Line})
	if err != nil {
		fail(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      id,
	})
}
