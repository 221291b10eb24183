// Package health provides health status tracking and aggregation for the
// CattleNet services.
//
// The health package defines a small, immutable Status model and a
// thread-safe Monitor that collects per-component statuses and rolls them
// up into a single system view. The HTTP gateway serves the aggregate on
// its /health endpoint.
//
// # Status Model
//
// A Status captures the health of one component at a point in time:
//
//	status := health.NewHealthy("ingest", "Processing messages")
//	status := health.NewDegraded("docstore", "Write latency elevated")
//	status := health.NewUnhealthy("bus", "Connection lost")
//
// Statuses are value types; the With* helpers return copies:
//
//	status = status.WithMetrics(&health.Metrics{
//	    Uptime:            time.Since(start),
//	    MessagesProcessed: processed,
//	})
//
// # Monitor
//
// The Monitor tracks many components and aggregates them:
//
//	monitor := health.NewMonitor()
//	monitor.UpdateHealthy("ingest", "Processing messages")
//	monitor.UpdateUnhealthy("bus", "Connection lost")
//
//	system := monitor.AggregateHealth("cattlenet")
//	// system.Status == "unhealthy" because one sub-status is unhealthy
//
// Aggregation rules:
//   - All sub-statuses healthy → aggregate healthy
//   - Any sub-status unhealthy → aggregate unhealthy
//   - Otherwise, any degraded → aggregate degraded
//
// # Building Status from Checks
//
// FromCheck converts a raw liveness check result into a Status and
// sanitizes the error message first:
//
//	status := health.FromCheck("bus", client.IsHealthy(), lastErr, metrics)
//
// Sanitization replaces URLs, file paths, IP addresses, ports, and
// credential-looking fragments before they can appear in health output:
//
//	"dial nats://10.0.0.5:4222 failed" → "dial [URL] failed"
//	"auth failed with token=abc123"    → "auth failed with [REDACTED]"
//
// # Thread Safety
//
// Monitor is safe for concurrent use. Status values are copied on read and
// the With* helpers never mutate their receiver, so statuses can be shared
// across goroutines freely.
package health
