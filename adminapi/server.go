// Package adminapi implements the admin control-plane HTTP surface for
// the definition service: reload/retire a named pipeline definition and
// inspect its status and tensor metadata. It is explicitly not the
// predict-serving data plane, which stays out of scope for this
// subsystem.
package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/pipelinedef/component"
	"github.com/kbukum/pipelinedef/definition"
	"github.com/kbukum/pipelinedef/logger"
)

// Server is the gin-backed admin HTTP surface, grounded on the toolkit's
// own server package conventions (engine construction, graceful
// shutdown) but scoped to this subsystem's routes only.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	service    *definition.Service
	log        *logger.Logger
}

// New builds a Server bound to addr, routing every request against the
// given definition.Service.
func New(addr string, service *definition.Service, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		service: service,
		log:     log.WithComponent("adminapi"),
	}

	engine.GET("/healthz", s.handleHealthz)
	defs := engine.Group("/definitions/:name")
	defs.POST("/reload", s.handleReload)
	defs.POST("/retire", s.handleRetire)
	defs.GET("/status", s.handleStatus)
	defs.GET("/metadata", s.handleMetadata)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Name implements component.Component.
func (s *Server) Name() string { return "adminapi" }

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting admin API", map[string]interface{}{"addr": s.httpServer.Addr})
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin API server error", map[string]interface{}{"error": err.Error()})
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("adminapi shutdown: %w", err)
	}
	return nil
}

// Health reports the server as healthy whenever it has been constructed;
// the underlying definition.Service is health-checked separately since it
// is registered as its own component.
func (s *Server) Health(_ context.Context) component.Health {
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

var _ component.Component = (*Server)(nil)
