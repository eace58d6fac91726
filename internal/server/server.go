// Package server exposes the reconciliation service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/reconcile/internal/service"
)

// Server routes HTTP requests to a service.Service.
type Server struct {
	svc    *service.Service
	log    zerolog.Logger
	engine *gin.Engine
}

// New builds the gin engine. allowedOrigins enables CORS for those origins;
// an empty list disables CORS.
func New(svc *service.Service, log zerolog.Logger, allowedOrigins []string) *Server {
	engine := gin.New()
	engine.Use(RequestID(), Logger(log), Recovery(log))
	if len(allowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", HeaderRequestID},
			ExposeHeaders: []string{"Content-Length", HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{svc: svc, log: log, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.POST("/actions", s.executeAction)

	tx := api.Group("/transactions")
	tx.GET("", s.listTransactions)
	tx.GET("/:id", s.getTransaction)
	tx.PATCH("/:id", s.updateTransaction)
	tx.GET("/:id/suggestion", s.suggest)
	tx.POST("/:id/match", s.autoMatch)
	tx.POST("/:id/process", s.processCategory)

	ledger := api.Group("/ledger")
	ledger.POST("/:type/:number/void", s.voidEntry)
	ledger.POST("/:type/:number/reopen", s.reopenEntry)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
