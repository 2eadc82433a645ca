package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/grove/internal/core/events/bus"
	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/snapshot"
	"github.com/zeusync/grove/internal/simulation"
)

// Source is the simulation the server observes.
type Source interface {
	Snapshot() snapshot.Snapshot
	Tick() uint64
	Bus() bus.EventBus
}

// Config holds server configuration
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	// ClientBuffer is the number of frames queued per websocket client
	// before further frames are dropped for it.
	ClientBuffer int
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:8080",
		ShutdownTimeout: 5 * time.Second,
		ClientBuffer:    16,
		WriteTimeout:    5 * time.Second,
	}
}

// Server is the read-only observer of a running simulation. It serves
// /healthz, /snapshot and a /ws stream with one frame per advance.
type Server struct {
	source Source
	config Config
	logger log.Log

	hub  *hub
	http *http.Server
	addr atomic.Pointer[string]
	sub  bus.Subscription

	running atomic.Bool
	closed  atomic.Bool
}

func NewServer(source Source, config Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	defaults := DefaultServerConfig()
	if config.ClientBuffer <= 0 {
		config.ClientBuffer = defaults.ClientBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		source: source,
		config: config,
		logger: logger.With(log.String("component", "server")),
	}
	s.hub = newHub(config.ClientBuffer, config.WriteTimeout, s.logger)
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	addr := ln.Addr().String()
	s.addr.Store(&addr)

	sub, err := s.source.Bus().Subscribe(simulation.EventAdvanced, s.onAdvanced)
	if err != nil {
		_ = ln.Close()
		s.running.Store(false)
		return err
	}
	s.sub = sub

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", addr))
	return nil
}

// Stop unsubscribes from the simulation, disconnects websocket clients and
// shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.closed.Store(true)
	s.logger.Info("Stopping server")

	if s.sub != nil {
		_ = s.sub.Cancel()
	}
	s.hub.closeAll()

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}

// Serve runs the server until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop(context.Background())
}

// Addr is the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if addr := s.addr.Load(); addr != nil {
		return *addr
	}
	return ""
}

// Clients is the number of connected websocket clients.
func (s *Server) Clients() int {
	return s.hub.len()
}

func (s *Server) onAdvanced(e bus.Event) error {
	adv, ok := e.Data().(simulation.Advanced)
	if !ok {
		return fmt.Errorf("unexpected %s payload %T", e.Type(), e.Data())
	}
	frame, err := json.Marshal(adv)
	if err != nil {
		return err
	}
	s.hub.broadcast(frame)
	return nil
}
