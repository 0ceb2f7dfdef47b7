// Package server exposes the record store over HTTP: user record upsert and
// reads, the OAuth code exchange, health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/indexkeeper/internal/identity"
	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Store is the record store as seen by the handlers.
type Store interface {
	Upsert(ctx context.Context, req types.ShareRequest) (types.UserRecord, error)
	GetOne(ctx context.Context, ownerID string) (types.UserRecord, error)
	GetAll(ctx context.Context) (map[string]types.UserRecord, error)
}

// Config holds the listener settings.
type Config struct {
	ListenAddr  string
	CORSOrigins []string
}

// DefaultListenAddr is used when Config.ListenAddr is empty.
const DefaultListenAddr = ":8080"

type Server struct {
	Engine *gin.Engine

	cfg       Config
	store     Store
	exchanger identity.Exchanger
	log       *logger.Logger
	metrics   *Metrics
}

// New builds the router. exchanger may be nil, in which case the token route
// answers 501.
func New(cfg Config, store Store, exchanger identity.Exchanger, log *logger.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		exchanger: exchanger,
		log:       logger.OrNop(log).With("component", "server"),
		metrics:   NewMetrics(),
	}
	s.Engine = s.router()
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(s.metrics.middleware())
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.GET("/healthcheck", s.healthCheck)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/users", s.upsertUser)
		api.GET("/users", s.getUsers)
		api.GET("/users/:ownerId", s.getUser)
		api.POST("/token", s.exchangeToken)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.ListenAddr
	if addr == "" {
		addr = DefaultListenAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("server stopped")
		return nil
	}
}
