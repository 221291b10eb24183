// Package http exposes the read API over the pipeline's in-memory state:
// recent readings, latest classifications, herd statistics and alerts.
// All endpoints are GET; writes happen only through the bus.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/abhishekp4512/CattleNet/ingest"
	"github.com/abhishekp4512/CattleNet/pkg/cache"
	"github.com/abhishekp4512/CattleNet/store"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

const serviceLabel = "cattlenet"

// PipelineStats is the slice of pipeline state the gateway reads.
type PipelineStats interface {
	LatestPrediction() (telemetry.AnomalyResult, bool)
	MessageCount() int64
}

// SessionStats reports unique gate passings for the current sessions.
type SessionStats interface {
	UniqueEntries() int
	UniqueExits() int
}

// BusStatus is the slice of the bus client the gateway reads.
type BusStatus interface {
	IsHealthy() bool
	URL() string
}

// Options collects the gateway's collaborators. History and Registry are
// required; the rest may be nil and degrade to empty answers.
type Options struct {
	Port     int
	History  *store.History
	Registry *store.Registry
	Sessions SessionStats
	Pipeline PipelineStats
	Detector *ingest.Detector
	Bus      BusStatus
	Topics   []string
	Version  string
	Logger   *slog.Logger
}

// Server serves the read API.
type Server struct {
	port     int
	history  *store.History
	registry *store.Registry
	sessions SessionStats
	pipeline PipelineStats
	detector *ingest.Detector
	bus      BusStatus
	topics   []string
	version  string
	log      *slog.Logger

	server *http.Server

	// reports memoizes the aggregation endpoints; the herd statistics
	// re-score every buffered reading, which is too much work to repeat
	// for dashboards polling several times a second.
	reports *cache.TTL[map[string]any]

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64
}

// NewServer creates the gateway.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	detector := opts.Detector
	if detector == nil {
		detector = ingest.NewDetector(0)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	return &Server{
		port:     opts.Port,
		history:  opts.History,
		registry: opts.Registry,
		sessions: opts.Sessions,
		pipeline: opts.Pipeline,
		detector: detector,
		bus:      opts.Bus,
		topics:   opts.Topics,
		version:  version,
		log:      log.With("component", "gateway"),
		reports:  cache.NewTTL[map[string]any](context.Background(), 2*time.Second, 30*time.Second),
	}
}

// cachedReport returns the memoized report for key, building and
// storing it on a miss. The result is a shallow copy: writeJSON stamps
// envelope fields onto the map it is given, and the cached original
// must not be mutated under concurrent readers.
func (s *Server) cachedReport(key string, build func() map[string]any) map[string]any {
	report, ok := s.reports.Get(key)
	if !ok {
		report = build()
		s.reports.Set(key, report)
	}

	out := make(map[string]any, len(report)+2)
	for k, v := range report {
		out[k] = v
	}
	return out
}

// Handler builds the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.wrap(s.handleHealth))
	mux.HandleFunc("/api/data", s.wrap(s.handleData))
	mux.HandleFunc("/api/latest", s.wrap(s.handleLatest))
	mux.HandleFunc("/api/predict", s.wrap(s.handlePredict))
	mux.HandleFunc("/api/health-stats", s.wrap(s.handleHealthStats))
	mux.HandleFunc("/api/temperature", s.wrap(s.handleTemperature))
	mux.HandleFunc("/api/environment", s.wrap(s.handleEnvironment))
	mux.HandleFunc("/api/gate", s.wrap(s.handleGate))
	mux.HandleFunc("/api/gate/cattle/", s.wrap(s.handleCattleDetails))
	mux.HandleFunc("/api/feed-monitor", s.wrap(s.handleFeedMonitor))
	mux.HandleFunc("/api/bus-status", s.wrap(s.handleBusStatus))
	return mux
}

// Start begins serving. It returns once the listener goroutine is up.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("gateway server failed", "error", err)
		}
	}()

	s.log.Info("read api listening", "port", s.port)
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// wrap applies the per-request plumbing shared by every endpoint:
// request id propagation, CORS, and the GET-only rule.
func (s *Server) wrap(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requestsTotal.Add(1)
		w.Header().Set("X-Request-ID", requestID(r))
		applyCORS(w, r)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			s.requestsFailed.Add(1)
			s.writeError(w, http.StatusMethodNotAllowed,
				fmt.Sprintf("method %s not allowed", r.Method))
			return
		}

		handler(w, r)
	}
}

// requestID propagates X-Request-ID or mints 8 random bytes as hex.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON sends a success payload. The "status" and "bus_connected"
// fields are stamped onto every success response.
func (s *Server) writeJSON(w http.ResponseWriter, body map[string]any) {
	body["status"] = "success"
	body["bus_connected"] = s.busConnected()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.requestsFailed.Add(1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}

func (s *Server) busConnected() bool {
	return s.bus != nil && s.bus.IsHealthy()
}
