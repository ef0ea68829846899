package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/vehicore/internal/core/observability/log"
)

// SnapshotProvider returns the current observable state of the simulation.
// The result is encoded as JSON.
type SnapshotProvider func() any

// StatsSource contributes one named section to /healthz.
type StatsSource func(ctx context.Context) (any, error)

// Server exposes the simulation over HTTP: websocket change streams on /ws,
// a JSON snapshot on /snapshot and health stats on /healthz.
type Server struct {
	hub      *Hub
	snapshot SnapshotProvider
	http     *http.Server

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool
	started time.Time

	config Config
	logger log.Log

	sourcesMu sync.RWMutex
	sources   map[string]StatsSource

	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// Config holds server configuration
type Config struct {
	Addr            string
	MaxClients      int
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// HealthCheckInterval is how often idle clients are pinged. Zero disables it.
	HealthCheckInterval time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		Addr:                ":8080",
		MaxClients:          1000,
		WriteTimeout:        5 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		HealthCheckInterval: 30 * time.Second,
	}
}

// HubConfig derives the websocket limits from the server settings.
func (c Config) HubConfig() HubConfig {
	return HubConfig{
		MaxClients:   c.MaxClients,
		WriteTimeout: c.WriteTimeout,
		PingInterval: c.HealthCheckInterval,
	}
}

// NewServer creates a server around hub. snapshot may be nil, in which case
// /snapshot answers 404.
func NewServer(config Config, hub *Hub, snapshot SnapshotProvider, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		hub:      hub,
		snapshot: snapshot,
		config:   config,
		logger:   logger.With(log.String("component", "server")),
		sources:  make(map[string]StatsSource),
		stopChan: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	atomic.StoreInt32(&s.running, 1)
	s.started = time.Now()
	s.logger.Info("server listening", log.String("addr", ln.Addr().String()))

	if s.config.HealthCheckInterval > 0 {
		s.workerGroup.Add(1)
		go s.healthMonitor()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	err := s.http.Shutdown(shutdownCtx)
	s.stop()
	<-errCh
	s.logger.Info("server stopped")
	return err
}

func (s *Server) stop() {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.stopChan)
	}
	s.workerGroup.Wait()
	atomic.StoreInt32(&s.running, 0)
}

// IsRunning reports whether the server is serving requests.
func (s *Server) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// AddStatsSource registers a section of the /healthz report. The name
// "server" is reserved for the server's own Stats.
func (s *Server) AddStatsSource(name string, src StatsSource) {
	s.sourcesMu.Lock()
	s.sources[name] = src
	s.sourcesMu.Unlock()
}

// Stats holds server statistics
type Stats struct {
	Clients  int           `json:"clients"`
	Sent     uint64        `json:"sent"`
	Dropped  uint64        `json:"dropped"`
	Commands uint64        `json:"commands"`
	Rejected uint64        `json:"rejected"`
	Uptime   time.Duration `json:"uptime"`
}

func (s *Server) Stats() Stats {
	hs := s.hub.Stats()
	st := Stats{
		Clients:  hs.Clients,
		Sent:     hs.Sent,
		Dropped:  hs.Dropped,
		Commands: hs.Commands,
		Rejected: hs.Rejected,
	}
	if s.IsRunning() {
		st.Uptime = time.Since(s.started)
	}
	return st
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshot == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, s.snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := map[string]any{"server": s.Stats()}

	s.sourcesMu.RLock()
	defer s.sourcesMu.RUnlock()
	for name, src := range s.sources {
		if name == "server" {
			continue
		}
		section, err := src(r.Context())
		if err != nil {
			report[name] = map[string]string{"error": err.Error()}
			continue
		}
		report[name] = section
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// healthMonitor pings clients so dead connections are noticed even when the
// simulation is quiet.
func (s *Server) healthMonitor() {
	defer s.workerGroup.Done()

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.hub.Ping()
			s.logger.Debug("health check", log.Int("clients", s.hub.Clients()))
		}
	}
}
