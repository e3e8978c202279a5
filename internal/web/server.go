// Package web serves the dashboard views and task actions as a JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinayprograms/kaal/internal/dashboard"
)

// Server is the kaal web server
type Server struct {
	service *dashboard.Service
	router  *gin.Engine
}

// NewServer creates a new web server. It panics if service is nil.
func NewServer(service *dashboard.Service) *Server {
	if service == nil {
		panic("web: nil service")
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		service: service,
		router:  router,
	}

	api := router.Group("/api")
	{
		api.GET("/day", s.handleDay)
		api.GET("/day/:name", s.handleDay)
		api.GET("/week", s.handleWeek)
		api.GET("/week/:name", s.handleWeek)
		api.GET("/month", s.handleMonth)
		api.GET("/month/:name", s.handleMonth)
		api.GET("/agenda", s.handleAgenda)
		api.GET("/task", s.handleTask)
		api.POST("/tasks/status", s.handleStatus)
		api.POST("/tasks/toggle", s.handleToggle)
		api.POST("/tasks/reschedule", s.handleReschedule)
		api.POST("/tasks/id", s.handleAssignID)
	}

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
