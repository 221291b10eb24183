// Package retry provides exponential backoff for transient failures.
//
// The pipeline leans on it in two places: waiting for the NATS broker
// while a farm gateway boots, and re-running JetStream KV lookups that
// race bucket creation. Both are short-lived conditions where backing
// off and trying again is the whole story.
//
// # Core Functions
//
//   - Do: run a function with retry and exponential backoff
//   - DoWithResult: same, returning the function's result alongside the error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (process startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Connecting to the bus with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
// Opening a document bucket that may still be materializing:
//
//	bucket, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.KeyValue, error) {
//	    return js.KeyValue(ctx, "cattlenet_sensor_data")
//	})
//
// Custom configuration:
//
//	cfg := retry.Config{
//	    MaxAttempts:  5,
//	    InitialDelay: 200 * time.Millisecond,
//	    MaxDelay:     10 * time.Second,
//	    Multiplier:   2.0,
//	    AddJitter:    true,
//	}
//	err := retry.Do(ctx, cfg, operation)
//
// The package stays minimal on purpose: no circuit breakers, no metrics,
// no error classification. Callers decide what is worth retrying.
//
// All operations respect context cancellation, both while the function
// runs and during the backoff sleep. Jitter draws from a locked random
// source, so everything here is safe for concurrent use.
package retry
