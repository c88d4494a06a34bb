// Package httpapi is a thin gin wrapper exposing AlarmIngestor over HTTP:
// the cloud-provider pub/sub webhook and a health endpoint.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aegisops/sentinel/pkg/ingest"
)

// Ingestor is the subset of ingest.Ingestor the webhook handler needs.
type Ingestor interface {
	Handle(ctx context.Context, body []byte) (ingest.Result, error)
}

// HealthReporter supplies the values shown on GET /health.
type HealthReporter interface {
	HealthSnapshot() map[string]any
}

// Server wraps a gin.Engine around AlarmIngestor and a health reporter.
type Server struct {
	engine   *gin.Engine
	ingestor Ingestor
	health   HealthReporter
}

// NewServer builds the HTTP server and registers its routes.
func NewServer(ingestor Ingestor, health HealthReporter) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, ingestor: ingestor, health: health}
	s.setupRoutes()
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/alarm-webhook", s.handleAlarmWebhook)
}

func (s *Server) handleHealth(c *gin.Context) {
	snapshot := gin.H{"status": "ok"}
	if s.health != nil {
		for k, v := range s.health.HealthSnapshot() {
			snapshot[k] = v
		}
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleAlarmWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := s.ingestor.Handle(ctx, body)
	if err != nil {
		slog.Error("alarm webhook processing failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
