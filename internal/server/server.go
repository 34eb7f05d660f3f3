package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vigicrawl/vigicrawl/internal/database"
	"github.com/vigicrawl/vigicrawl/internal/orchestrator"
)

// Service is the orchestrator surface the HTTP layer needs.
type Service interface {
	Submit(ctx context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResponse, error)
	Status(ctx context.Context, jobID string) (*orchestrator.StatusResponse, error)
	Cancel(ctx context.Context, jobID string) error
	EraseAll(ctx context.Context) error
}

// Server wires the API routes to the orchestrator.
type Server struct {
	service Service
	engine  *gin.Engine
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server around the given service.
func New(service Service, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.health)
	api := engine.Group("/api")
	{
		api.POST("/crawls", s.submit)
		api.GET("/crawls/:id", s.status)
		api.POST("/crawls/:id/cancel", s.cancel)
		api.DELETE("/data", s.erase)
	}

	s.engine = engine
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submit(c *gin.Context) {
	var req orchestrator.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": orchestrator.ErrInvalidURL.Error()})
		return
	}

	resp, err := s.service.Submit(c.Request.Context(), req)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": orchestrator.ErrInvalidURL.Error()})
	case errors.Is(err, orchestrator.ErrOriginUnreachable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		s.logger.Error("submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusAccepted, resp)
	}
}

func (s *Server) status(c *gin.Context) {
	resp, err := s.service.Status(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, database.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown crawl job"})
	case err != nil:
		s.logger.Error("status lookup failed", "job_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) cancel(c *gin.Context) {
	err := s.service.Cancel(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, database.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown crawl job"})
	case errors.Is(err, database.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "job already finished"})
	case err != nil:
		s.logger.Error("cancel failed", "job_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) erase(c *gin.Context) {
	if err := s.service.EraseAll(c.Request.Context()); err != nil {
		s.logger.Error("bulk erase failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
