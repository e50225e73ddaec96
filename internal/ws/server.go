// Package ws serves the event stream over websocket and exposes the
// health and status endpoints. Every connection gets its own fan-out
// subscription; a slow reader only loses its own frames.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/axstream/axstream/internal/bus"
	"github.com/axstream/axstream/internal/config"
	"github.com/axstream/axstream/internal/metrics"
	"github.com/axstream/axstream/internal/pipeline"
)

type Server struct {
	cfg     config.ServerConfig
	bus     *bus.Bus
	metrics metrics.Recorder
	log     *slog.Logger
	started time.Time

	queue  *pipeline.Queue
	caster *pipeline.Broadcaster

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(cfg config.ServerConfig, b *bus.Bus, rec metrics.Recorder, logger *slog.Logger) *Server {
	if rec == nil {
		rec = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:            cfg,
		bus:            b,
		metrics:        rec,
		log:            logger,
		started:        time.Now(),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetPipeline wires the ingest and broadcast counters into /api/status.
// Optional; the endpoint reports zero capture counters when unset.
func (s *Server) SetPipeline(q *pipeline.Queue, b *pipeline.Broadcaster) {
	s.queue = q
	s.caster = b
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogging)
	r.Use(s.recovery)
	r.Use(securityHeaders)

	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	// Upgrade writes the error response itself on failure.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := s.bus.Subscribe()
	sess := &session{
		conn:    conn,
		sub:     sub,
		log:     s.log.With("session", sub.ID(), "remote", r.RemoteAddr),
		metrics: s.metrics,
	}

	s.log.Info("client connected", "session", sub.ID(), "remote", r.RemoteAddr)
	sess.run()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statusResponse struct {
	Status                string `json:"status"`
	UptimeSeconds         int64  `json:"uptime_seconds"`
	Subscribers           int    `json:"subscribers"`
	EventsEnqueued        int64  `json:"events_enqueued"`
	EventsDropped         int64  `json:"events_dropped"`
	FramesPublished       int64  `json:"frames_published"`
	SerializationFailures int64  `json:"serialization_failures"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Subscribers:   s.bus.SubscriberCount(),
	}
	if s.queue != nil {
		resp.EventsEnqueued, resp.EventsDropped = s.queue.Stats()
	}
	if s.caster != nil {
		resp.FramesPublished = s.caster.Published()
		resp.SerializationFailures = s.caster.SerializationFailures()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// checkOrigin accepts non-browser clients (no Origin header), explicitly
// configured origins, and same-host or localhost browsers.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

// ListenAndServe blocks serving the stream until the process exits.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Routes())
}
