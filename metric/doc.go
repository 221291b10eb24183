// Package metric provides Prometheus-based metrics collection and an HTTP
// server for CattleNet monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, message processing, NATS health) and
// component-specific metrics. It includes an HTTP server exposing metrics in
// Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// Infrastructure concerns (core metrics) stay separate from domain concerns
// (ingest pipeline counters, history buffer gauges) while one endpoint serves
// them all.
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("ingest", 2)
//	coreMetrics.RecordMessageReceived("ingest", "sensor")
//	coreMetrics.RecordMessageDropped("ingest", "duplicate")
//
// The metrics server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// All core metrics use the namespace "cattlenet":
//
//   - cattlenet_service_status{service="..."}
//   - cattlenet_messages_received_total{service="...",type="..."}
//   - cattlenet_messages_processed_total{service="...",type="...",status="..."}
//   - cattlenet_messages_dropped_total{service="...",reason="..."}
//   - cattlenet_messages_published_total{service="...",subject="..."}
//   - cattlenet_processing_duration_seconds{service="...",operation="..."}
//   - cattlenet_errors_total{service="...",type="..."}
//   - cattlenet_health_status{service="..."}
//   - cattlenet_nats_connected / cattlenet_nats_rtt_milliseconds /
//     cattlenet_nats_reconnects_total
//
// Go runtime and process collectors are registered automatically.
//
// # Component Metrics
//
// Components register their own metrics through the MetricsRegistrar
// interface, keyed as "component.metric" to catch duplicate registrations
// early:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "cattlenet",
//	    Subsystem: "ingest",
//	    Name:      "gate_events_total",
//	    Help:      "Gate events classified",
//	})
//	if err := registry.RegisterCounter("ingest", "gate_events_total", counter); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Registration and unregistration are guarded by a mutex; recording uses
// Prometheus's own atomic types, so all record methods are safe for
// concurrent use.
package metric
