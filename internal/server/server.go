// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gostrag/internal/domain"
)

// Service is the subset of the rag system the handlers need.
type Service interface {
	Ready() bool
	Answer(ctx context.Context, question string) (*domain.Answer, error)
	Extract(ctx context.Context, className string) (*domain.Answer, error)
	Stats(ctx context.Context) (domain.SystemStats, error)
}

// Server handles HTTP requests against one rag system.
type Server struct {
	svc Service
	log *logrus.Logger
}

func New(svc Service, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{svc: svc, log: logger}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
	r.POST("/query", s.handleQuery)
	r.POST("/extract", s.handleExtract)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.WithField("addr", addr).Info("http server listening")
	return s.Router().Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// handleHealth reports degraded instead of failing when the system
// never finished initialization, so probes can tell the two states
// apart.
func (s *Server) handleHealth(c *gin.Context) {
	if !s.svc.Ready() {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "ready": true})
}

func (s *Server) handleStats(c *gin.Context) {
	if !s.svc.Ready() {
		s.notReady(c)
		return
	}
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuery(c *gin.Context) {
	if !s.svc.Ready() {
		s.notReady(c)
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, err := s.svc.Answer(c.Request.Context(), req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

type extractRequest struct {
	ClassName string `json:"class_name"`
}

func (s *Server) handleExtract(c *gin.Context) {
	if !s.svc.Ready() {
		s.notReady(c)
		return
	}
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, err := s.svc.Extract(c.Request.Context(), req.ClassName)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) notReady(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "system not initialized"})
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotReady):
		s.notReady(c)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
