package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhishekp4512/CattleNet/errors"
	"github.com/abhishekp4512/CattleNet/metric"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// eventNames maps record kinds to the event names dashboard clients
// subscribe to.
var eventNames = map[telemetry.Kind]string{
	telemetry.KindSensor:      "sensor_update",
	telemetry.KindGate:        "gate_update",
	telemetry.KindEnvironment: "environmental_update",
	telemetry.KindFeed:        "feed_monitor_update",
}

type wsClient struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
	closeOnce  sync.Once
	closed     atomic.Bool
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()
	})
}

// writeJSON serializes writes per client so broadcast and ping goroutines
// never interleave frames.
func (c *wsClient) write(messageType int, data []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("client closed")
	}
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// WebSocketServer bridges telemetry events to dashboard clients. Frames
// are delivered at most once: a client that cannot keep up is dropped,
// never buffered.
type WebSocketServer struct {
	port       int
	maxClients int
	log        *slog.Logger

	upgrader websocket.Upgrader
	server   *http.Server

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}

	shutdown chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool

	clientsGauge      prometheus.Gauge
	framesSent        prometheus.Counter
	framesDropped     prometheus.Counter
	broadcastDuration prometheus.Histogram
}

// NewWebSocketServer creates the bridge. A nil registry disables metrics
// registration; the collectors still work unexported.
func NewWebSocketServer(port, maxClients int, registry *metric.MetricsRegistry, log *slog.Logger) *WebSocketServer {
	if log == nil {
		log = slog.Default()
	}
	if maxClients <= 0 {
		maxClients = 64
	}

	s := &WebSocketServer{
		port:       port,
		maxClients: maxClients,
		log:        log.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard may be served from any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:  make(map[*wsClient]struct{}),
		shutdown: make(chan struct{}),
		clientsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cattlenet",
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Number of connected dashboard clients",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cattlenet",
			Subsystem: "websocket",
			Name:      "frames_sent_total",
			Help:      "Total frames delivered to clients",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cattlenet",
			Subsystem: "websocket",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because a client write failed",
		}),
		broadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cattlenet",
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to fan one event out to all clients",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if registry != nil {
		registrations := []struct {
			name string
			err  error
		}{
			{"clients_connected", registry.RegisterGauge("websocket", "clients_connected", s.clientsGauge)},
			{"frames_sent_total", registry.RegisterCounter("websocket", "frames_sent_total", s.framesSent)},
			{"frames_dropped_total", registry.RegisterCounter("websocket", "frames_dropped_total", s.framesDropped)},
			{"broadcast_duration_seconds", registry.RegisterHistogram("websocket", "broadcast_duration_seconds", s.broadcastDuration)},
		}
		for _, reg := range registrations {
			if reg.err != nil {
				s.log.Warn("metric registration failed", "metric", reg.name, "error", reg.err)
			}
		}
	}

	return s
}

// Start begins listening for client connections and starts the keepalive
// loop.
func (s *WebSocketServer) Start(_ context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("websocket server already started")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleClient)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("websocket server failed", "error", err)
		}
	}()

	s.wg.Add(1)
	go s.keepaliveLoop()

	s.log.Info("websocket bridge listening", "port", s.port)
	return nil
}

// Stop closes the listener and all client connections.
func (s *WebSocketServer) Stop(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	close(s.shutdown)

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.close()
	}
	s.clients = make(map[*wsClient]struct{})
	s.clientsMu.Unlock()
	s.clientsGauge.Set(0)

	s.wg.Wait()
	if err != nil {
		return errors.WrapTransient(err, "WebSocketServer", "Stop", "shutdown http server")
	}
	return nil
}

// Publish broadcasts the event to every connected client. It satisfies
// Sink. Marshal failures are the only error; client write failures just
// drop that client.
func (s *WebSocketServer) Publish(_ context.Context, kind telemetry.Kind, payload any) error {
	event, ok := eventNames[kind]
	if !ok {
		return nil
	}

	frame, err := json.Marshal(map[string]any{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		return errors.WrapInvalid(err, "WebSocketServer", "Publish", "marshal frame")
	}

	start := time.Now()
	s.broadcast(frame)
	s.broadcastDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (s *WebSocketServer) broadcast(frame []byte) {
	s.clientsMu.RLock()
	snapshot := make([]*wsClient, 0, len(s.clients))
	for client := range s.clients {
		snapshot = append(snapshot, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range snapshot {
		if err := client.write(websocket.TextMessage, frame); err != nil {
			s.framesDropped.Inc()
			s.removeClient(client)
			continue
		}
		s.framesSent.Inc()
	}
}

func (s *WebSocketServer) handleClient(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	full := len(s.clients) >= s.maxClients
	s.clientsMu.RUnlock()
	if full {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &wsClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.clientsGauge.Set(float64(count))
	s.log.Info("dashboard client connected", "remote", r.RemoteAddr, "clients", count)

	// Read loop exists only to observe the close handshake; inbound
	// frames are discarded.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.removeClient(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *WebSocketServer) removeClient(client *wsClient) {
	client.close()
	s.clientsMu.Lock()
	_, present := s.clients[client]
	delete(s.clients, client)
	count := len(s.clients)
	s.clientsMu.Unlock()
	if present {
		s.clientsGauge.Set(float64(count))
		s.log.Debug("dashboard client removed", "clients", count)
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *WebSocketServer) keepaliveLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.clientsMu.RLock()
			snapshot := make([]*wsClient, 0, len(s.clients))
			for client := range s.clients {
				snapshot = append(snapshot, client)
			}
			s.clientsMu.RUnlock()

			for _, client := range snapshot {
				if err := client.write(websocket.PingMessage, nil); err != nil {
					s.removeClient(client)
				}
			}
		}
	}
}
