package natsclient

import "time"

// Preset option bundles for the test tiers this repo runs.

// WithPubSubOnly configures the container for plain subject routing,
// the fastest startup for ingest-style tests that never touch JetStream.
func WithPubSubOnly() TestOption {
	return func(cfg *testConfig) {
		cfg.jetstream = false
		cfg.kv = false
		cfg.timeout = 1 * time.Second
		cfg.startTimeout = 5 * time.Second
	}
}

// WithDocStoreDefaults enables JetStream and KV with timeouts sized for
// document-store integration tests, where bucket creation adds a few
// seconds to container startup.
func WithDocStoreDefaults() TestOption {
	return func(cfg *testConfig) {
		cfg.timeout = 5 * time.Second
		cfg.startTimeout = 30 * time.Second
		cfg.jetstream = true
		cfg.kv = true
	}
}

// WithFullPipelineDefaults carries everything a whole-pipeline test
// needs, with timeouts generous enough for several services sharing one
// container.
func WithFullPipelineDefaults() TestOption {
	return func(cfg *testConfig) {
		cfg.timeout = 10 * time.Second
		cfg.startTimeout = 60 * time.Second
		cfg.jetstream = true
		cfg.kv = true
	}
}

// WithProductionLike mirrors a farm deployment: all features on, long
// timeouts, and the latest stable server instead of the pinned test
// version.
func WithProductionLike() TestOption {
	return func(cfg *testConfig) {
		cfg.timeout = 30 * time.Second
		cfg.startTimeout = 60 * time.Second
		cfg.jetstream = true
		cfg.kv = true
		cfg.natsVersion = "latest"
	}
}
