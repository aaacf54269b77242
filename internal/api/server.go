// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"salon-notifications/internal/common/config"
	"salon-notifications/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP surface of the dispatcher: the direct send API, channel
// settings management, the delivery webhook and operational endpoints.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger logger.Logger
}

func NewServer(cfg config.HTTPConfig, h *Handler, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", h.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	{
		v1.POST("/notifications", h.CreateNotification)
		v1.GET("/settings/channels/:channel", h.GetChannelSettings)
		v1.PUT("/settings/channels/:channel", h.UpsertChannelSettings)
		v1.POST("/webhooks/delivery", h.DeliveryWebhook)
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics" {
			return
		}
		log.Info("http request", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}
