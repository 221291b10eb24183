// Package main implements a telemetry simulator for local development.
// It publishes collar, gate, environment, and feed station payloads to
// the bus so the pipeline and dashboards have data to chew on.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishekp4512/CattleNet/natsclient"
	"github.com/abhishekp4512/CattleNet/pkg/timestamp"
)

type simConfig struct {
	natsURL  string
	interval time.Duration
	seed     int64
	count    int
}

func main() {
	cfg := parseFlags()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("service", "cattlenet-sim")
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("Simulator failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() simConfig {
	cfg := simConfig{}
	flag.StringVar(&cfg.natsURL, "nats-url", envOr("CATTLENET_NATS_URLS", "nats://localhost:4222"),
		"Bus URL (env: CATTLENET_NATS_URLS)")
	flag.DurationVar(&cfg.interval, "interval", 2*time.Second, "Delay between publish rounds")
	flag.Int64Var(&cfg.seed, "seed", 0, "Random seed, 0 for clock")
	flag.IntVar(&cfg.count, "count", 0, "Number of rounds to publish, 0 for unlimited")
	flag.Parse()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cfg simConfig) error {
	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := natsclient.NewClient(cfg.natsURL, natsclient.WithName("cattlenet-sim"))
	if err != nil {
		return fmt.Errorf("create bus client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer client.Close(context.Background())

	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connCancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("bus connection timeout: %w", err)
	}

	sim := &simulator{rng: rng, client: client}
	slog.Info("Publishing telemetry", "url", cfg.natsURL, "interval", cfg.interval, "seed", seed)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	round := 0
	for {
		round++
		if err := sim.publishRound(ctx); err != nil {
			slog.Warn("Publish round failed", "round", round, "error", err)
		}
		if cfg.count > 0 && round >= cfg.count {
			slog.Info("Done", "rounds", round)
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("Stopping", "rounds", round)
			return nil
		case <-ticker.C:
		}
	}
}

type simulator struct {
	rng    *rand.Rand
	client *natsclient.Client
}

var rfidTags = []string{"RFID_A001", "RFID_B002", "RFID_C003", "RFID_D004", "RFID_E005"}

// publishRound emits one payload per station plus a collar reading.
func (s *simulator) publishRound(ctx context.Context) error {
	now := timestamp.Display(timestamp.Now())

	// Roughly one round in five simulates a distressed animal.
	accBase, gyroBase := s.rng.Float64()*0.9+0.1, s.rng.Float64()*0.4+0.1
	if s.rng.Float64() < 0.2 {
		accBase, gyroBase = s.rng.Float64()*2.0+2.0, s.rng.Float64()*2.0+1.0
	}
	sensor := map[string]any{
		"acc_x":       s.symmetric(accBase),
		"acc_y":       s.symmetric(accBase),
		"acc_z":       s.symmetric(accBase),
		"gyro_x":      s.symmetric(gyroBase),
		"gyro_y":      s.symmetric(gyroBase),
		"gyro_z":      s.symmetric(gyroBase),
		"temperature": round1(37.5 + s.rng.Float64()*2.0),
		"timestamp":   now,
	}
	if err := s.publish(ctx, "farm/sensor1", sensor); err != nil {
		return err
	}

	gate := map[string]any{
		"rfidTag":    rfidTags[s.rng.Intn(len(rfidTags))],
		"weight":     round1(350 + s.rng.Float64()*350),
		"gateStatus": []string{"active", "reading", "idle"}[s.rng.Intn(3)],
		"timestamp":  now,
	}
	if err := s.publish(ctx, "farm/gate", gate); err != nil {
		return err
	}

	env := map[string]any{
		"ldr_value":   s.rng.Intn(1024),
		"temperature": round1(25 + s.rng.Float64()*7),
		"humidity":    round1(60 + s.rng.Float64()*20),
		"motion":      s.rng.Float64() > 0.5,
		"timestamp":   now,
	}
	if err := s.publish(ctx, "farm/environment", env); err != nil {
		return err
	}

	cow := rfidTags[s.rng.Intn(len(rfidTags))]
	feed := map[string]any{
		"cattle_id":     cow,
		"rfid_tag":      cow,
		"feed_consumed": round2(0.5 + s.rng.Float64()*4.5),
		"water_present": s.rng.Float64() > 0.1,
		"timestamp":     time.Now().Format(time.RFC3339),
	}
	return s.publish(ctx, "farm/feed_monitor", feed)
}

func (s *simulator) publish(ctx context.Context, topic string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	slog.Debug("Published", "topic", topic)
	return nil
}

// symmetric returns a uniform draw from [-bound, bound].
func (s *simulator) symmetric(bound float64) float64 {
	return round2((s.rng.Float64()*2 - 1) * bound)
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
