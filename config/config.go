package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config represents the complete service configuration.
type Config struct {
	Service  ServiceConfig  `json:"service"`
	NATS     NATSConfig     `json:"nats"`
	Ingest   IngestConfig   `json:"ingest"`
	History  HistoryConfig  `json:"history"`
	DocStore DocStoreConfig `json:"docstore"`
	Fanout   FanoutConfig   `json:"fanout"`
	Gateway  GatewayConfig  `json:"gateway"`
	Metrics  MetricsConfig  `json:"metrics"`
	Logging  LoggingConfig  `json:"logging"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// JSON round-trip for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// ServiceConfig defines service identity
type ServiceConfig struct {
	Name        string `json:"name"`
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string        `json:"urls,omitempty"`
	MaxReconnects int             `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration   `json:"reconnect_wait,omitempty"`
	Username      string          `json:"username,omitempty"`
	Password      string          `json:"password,omitempty"`
	Token         string          `json:"token,omitempty"`
	JetStream     JetStreamConfig `json:"jetstream,omitempty"`
}

// JetStreamConfig for JetStream settings
type JetStreamConfig struct {
	Enabled bool   `json:"enabled"`
	Domain  string `json:"domain,omitempty"`
}

// UnmarshalJSON accepts reconnect_wait as a duration string ("2s") or
// nanoseconds, matching what the layered loader produces.
func (n *NATSConfig) UnmarshalJSON(data []byte) error {
	type Alias NATSConfig
	aux := &struct {
		ReconnectWait any `json:"reconnect_wait"`
		*Alias
	}{
		Alias: (*Alias)(n),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch v := aux.ReconnectWait.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		n.ReconnectWait = d
	case float64:
		n.ReconnectWait = time.Duration(v)
	}

	return nil
}

// TopicConfig names the bus topics the pipeline subscribes to.
// Sensors may list any number of per-collar topics.
type TopicConfig struct {
	Environment string   `json:"environment,omitempty"`
	Gate        string   `json:"gate,omitempty"`
	FeedMonitor string   `json:"feed_monitor,omitempty"`
	Sensors     []string `json:"sensors,omitempty"`
	Health      []string `json:"health,omitempty"`
}

// All returns every configured topic for subscription, skipping blanks.
func (t TopicConfig) All() []string {
	topics := make([]string, 0, 3+len(t.Sensors)+len(t.Health))
	for _, topic := range []string{t.Environment, t.Gate, t.FeedMonitor} {
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	topics = append(topics, t.Sensors...)
	topics = append(topics, t.Health...)
	return topics
}

// GateConfig controls direction classification.
type GateConfig struct {
	Timezone string `json:"timezone,omitempty"` // IANA name, e.g. "Asia/Kolkata"
	// Hours [EntryStart, EntryEnd) count as "in"; everything else is "out".
	EntryStartHour int `json:"entry_start_hour"`
	EntryEndHour   int `json:"entry_end_hour"`
}

// AnomalyConfig controls the rule-based scorer.
type AnomalyConfig struct {
	// Seed for the jitter source. 0 means seed from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// IngestConfig defines pipeline behavior
type IngestConfig struct {
	Topics        TopicConfig       `json:"topics"`
	SensorAliases map[string]string `json:"sensor_aliases,omitempty"`
	DedupCapacity int               `json:"dedup_capacity,omitempty"`
	Gate          GateConfig        `json:"gate"`
	Anomaly       AnomalyConfig     `json:"anomaly,omitempty"`
}

// HistoryConfig sets ring buffer capacities per stream.
type HistoryConfig struct {
	SensorCapacity      int `json:"sensor_capacity,omitempty"`
	EnvironmentCapacity int `json:"environment_capacity,omitempty"`
	GateCapacity        int `json:"gate_capacity,omitempty"`
	FeedCapacity        int `json:"feed_capacity,omitempty"`
	WeightHistoryDepth  int `json:"weight_history_depth,omitempty"`
}

// DocStoreConfig controls best-effort document persistence.
type DocStoreConfig struct {
	Enabled      bool          `json:"enabled"`
	BucketPrefix string        `json:"bucket_prefix,omitempty"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty"`
}

// UnmarshalJSON accepts write_timeout as a duration string or nanoseconds.
func (d *DocStoreConfig) UnmarshalJSON(data []byte) error {
	type Alias DocStoreConfig
	aux := &struct {
		WriteTimeout any `json:"write_timeout"`
		*Alias
	}{
		Alias: (*Alias)(d),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch v := aux.WriteTimeout.(type) {
	case string:
		dur, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		d.WriteTimeout = dur
	case float64:
		d.WriteTimeout = time.Duration(v)
	}

	return nil
}

// FanoutConfig controls downstream event publication.
type FanoutConfig struct {
	SubjectPrefix string          `json:"subject_prefix,omitempty"`
	WebSocket     WebSocketConfig `json:"websocket"`
}

// WebSocketConfig for the live event bridge.
type WebSocketConfig struct {
	Enabled    bool `json:"enabled"`
	Port       int  `json:"port,omitempty"`
	MaxClients int  `json:"max_clients,omitempty"`
}

// GatewayConfig for the HTTP read API.
type GatewayConfig struct {
	Port int `json:"port,omitempty"`
}

// MetricsConfig for the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LoggingConfig for structured log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // json, text
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service.name is required")
	}

	if len(c.NATS.URLs) == 0 {
		return errors.New("nats.urls is required")
	}

	if len(c.Ingest.Topics.All()) == 0 {
		return errors.New("ingest.topics must name at least one topic")
	}

	if c.Ingest.DedupCapacity < 0 {
		return errors.New("ingest.dedup_capacity cannot be negative")
	}

	if c.Ingest.Gate.EntryStartHour < 0 || c.Ingest.Gate.EntryStartHour > 23 {
		return fmt.Errorf("ingest.gate.entry_start_hour %d out of range [0,23]", c.Ingest.Gate.EntryStartHour)
	}
	if c.Ingest.Gate.EntryEndHour < 0 || c.Ingest.Gate.EntryEndHour > 24 {
		return fmt.Errorf("ingest.gate.entry_end_hour %d out of range [0,24]", c.Ingest.Gate.EntryEndHour)
	}
	if c.Ingest.Gate.EntryEndHour <= c.Ingest.Gate.EntryStartHour {
		return errors.New("ingest.gate.entry_end_hour must be after entry_start_hour")
	}

	if c.Ingest.Gate.Timezone != "" {
		if _, err := time.LoadLocation(c.Ingest.Gate.Timezone); err != nil {
			return fmt.Errorf("ingest.gate.timezone: %w", err)
		}
	}

	for _, cap := range []struct {
		name  string
		value int
	}{
		{"history.sensor_capacity", c.History.SensorCapacity},
		{"history.environment_capacity", c.History.EnvironmentCapacity},
		{"history.gate_capacity", c.History.GateCapacity},
		{"history.feed_capacity", c.History.FeedCapacity},
		{"history.weight_history_depth", c.History.WeightHistoryDepth},
	} {
		if cap.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", cap.name, cap.value)
		}
	}

	if c.DocStore.Enabled && !c.NATS.JetStream.Enabled {
		return errors.New("docstore requires nats.jetstream.enabled")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not json or text", c.Logging.Format)
	}

	return nil
}

// GateLocation resolves the configured time zone, defaulting to UTC on a
// blank name. Validate has already rejected unknown names.
func (c *Config) GateLocation() *time.Location {
	if c.Ingest.Gate.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Ingest.Gate.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "CATTLENET",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := l.getDefaults()

	// Load each layer and merge using map-based approach
	for _, path := range l.layers {
		rawConfig, err := l.loadRawJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	// Apply environment overrides
	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration
func (l *Loader) getDefaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "cattlenet",
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			JetStream: JetStreamConfig{
				Enabled: true,
			},
		},
		Ingest: IngestConfig{
			Topics: TopicConfig{
				Environment: "farm/environment",
				Gate:        "farm/gate",
				FeedMonitor: "farm/feed_monitor",
				Sensors:     []string{"farm/sensor1"},
				Health:      []string{"cattle/health"},
			},
			SensorAliases: map[string]string{
				"sensor1": "E3882528",
			},
			DedupCapacity: 500,
			Gate: GateConfig{
				Timezone:       "Asia/Kolkata",
				EntryStartHour: 5,
				EntryEndHour:   16,
			},
		},
		History: HistoryConfig{
			SensorCapacity:      100,
			EnvironmentCapacity: 50,
			GateCapacity:        200,
			FeedCapacity:        100,
			WeightHistoryDepth:  10,
		},
		DocStore: DocStoreConfig{
			Enabled:      true,
			BucketPrefix: "cattlenet",
			WriteTimeout: 2 * time.Second,
		},
		Fanout: FanoutConfig{
			SubjectPrefix: "cattlenet.events",
			WebSocket: WebSocketConfig{
				Enabled:    true,
				Port:       8765,
				MaxClients: 64,
			},
		},
		Gateway: GatewayConfig{
			Port: 5000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadRawJSON loads configuration from a JSON file as a map
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, err
	}

	// Convert duration strings
	l.parseDurations(rawConfig)

	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields
// present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	mergedMap := l.deepMergeMaps(baseMap, override)

	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// parseDurations converts duration strings to nanoseconds for json
// unmarshaling
func (l *Loader) parseDurations(data map[string]any) {
	if nats, ok := data["nats"].(map[string]any); ok {
		parseDurationField(nats, "reconnect_wait")
	}
	if docstore, ok := data["docstore"].(map[string]any); ok {
		parseDurationField(docstore, "write_timeout")
	}
}

func parseDurationField(section map[string]any, key string) {
	if raw, ok := section[key].(string); ok {
		if d, err := parseDurationWithDays(raw); err == nil {
			section[key] = d.Nanoseconds()
		}
	}
}

// parseDurationWithDays parses durations that may include days (e.g., "14d")
func parseDurationWithDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := l.env("SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := l.env("ENVIRONMENT"); val != "" {
		cfg.Service.Environment = val
	}

	if val := l.env("NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := l.env("NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := l.env("NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := l.env("NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}

	if val := l.env("GATE_TIMEZONE"); val != "" {
		cfg.Ingest.Gate.Timezone = val
	}
	if val := l.env("GATEWAY_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if val := l.env("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// env reads a prefixed environment variable, discarding unusable values.
func (l *Loader) env(suffix string) string {
	key := l.envPrefix + "_" + suffix
	val := os.Getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return ""
	}
	return val
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
