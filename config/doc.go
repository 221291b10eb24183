// Package config provides configuration management for the CattleNet
// services.
//
// This package handles loading, validation, and thread-safe access to
// configuration from JSON files and environment variables.
//
// # Core Components
//
// Config: Main configuration structure covering service identity, NATS
// connection details, ingest pipeline behavior (topics, sensor aliases,
// deduplication, gate direction rules), history buffer capacities, document
// store settings, fan-out, gateway, metrics, and logging.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to prevent
// concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides) and
// environment variable substitution for flexible deployment scenarios.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	# Override the service name
//	export CATTLENET_SERVICE_NAME="barn7-ingest"
//
//	# Override NATS URLs (comma-separated)
//	export CATTLENET_NATS_URLS="nats://server1:4222,nats://server2:4222"
//
//	# Override the gate classification time zone
//	export CATTLENET_GATE_TIMEZONE="Europe/Berlin"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"service": {"name": "dev-ingest", "environment": "dev"}}
//
//	production.json:
//	  {"service": {"name": "prod-ingest"}}
//
//	Result:
//	  {"service": {"name": "prod-ingest", "environment": "dev"}}
//
// Duration fields accept Go duration strings ("2s", "750ms") and a "d"
// suffix for days ("14d").
//
// # Security
//
// The package includes input validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
package config
