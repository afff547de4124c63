// Package server is the demo host: an HTTP/WebSocket front for a single
// simulation session. It exists to exercise the embedding surface the way
// a game process would; the engine itself never depends on it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/skirmish/skirmish/internal/core/config"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/session"
)

// Config holds host settings. Simulation tuning lives in config.Config;
// this covers only the HTTP front.
type Config struct {
	ListenAddr        string        `json:"listen_addr" yaml:"listen_addr"`
	BroadcastInterval time.Duration `json:"broadcast_interval" yaml:"broadcast_interval"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultConfig returns host defaults: localhost, ~10 broadcast frames
// per second.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:8080",
		BroadcastInterval: 100 * time.Millisecond,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Server owns one session and the HTTP machinery around it.
type Server struct {
	cfg     Config
	sess    *session.Session
	hub     *hub
	httpSrv *http.Server
	logger  log.Log

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New builds a server around an existing session.
func New(cfg Config, sess *session.Session, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		cfg:    cfg,
		sess:   sess,
		logger: logger,
	}
	s.hub = newHub(sess, cfg.BroadcastInterval, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.routes(router)

	s.httpSrv = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}
	return s
}

// Start launches the tick loop, the broadcast hub, and the HTTP listener.
// It returns once the listener is running; failures surface through Stop.
func (s *Server) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.sess.StartTickLoop(runCtx)
	s.sess.SetWorldBounds(config.Default().WorldBounds)

	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group

	group.Go(func() error {
		s.hub.run(groupCtx)
		return nil
	})
	group.Go(func() error {
		s.logger.Info("http listener starting", log.String("addr", s.cfg.ListenAddr))
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return nil
}

// Stop shuts everything down in dependency order: listener, hub, tick
// loop.
func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpSrv.Shutdown(shutdownCtx)
	if s.cancel != nil {
		s.cancel()
	}
	if s.group != nil {
		if gerr := s.group.Wait(); gerr != nil && err == nil {
			err = gerr
		}
	}
	s.sess.StopTickLoop()
	s.logger.Info("server stopped")
	return err
}
