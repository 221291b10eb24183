package ingest

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Feature weights for the movement score, in canonical feature order.
// Accelerometer axes dominate; gyro readings arrive in a smaller unit
// range and are rescaled before weighting.
var featureWeights = [6]float64{0.35, 0.20, 0.15, 0.12, 0.10, 0.08}

const gyroScale = 10.0

// Detector scores movement readings with a weighted-magnitude rule and a
// small random jitter so steady synthetic feeds still produce a natural
// spread of confidences. Seed the source for deterministic output in
// tests.
type Detector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDetector creates a Detector. A zero seed uses the current time.
func NewDetector(seed int64) *Detector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Detector{rng: rand.New(rand.NewSource(seed))}
}

// Detect classifies a feature vector. The weighted magnitude is jittered
// by a factor in [0.8, 1.2) and compared against fixed bands: above 600 is
// an anomaly, 400 to 600 is a borderline zone that flags roughly a third
// of readings, and at or below 400 is normal. The result carries the three
// strongest weighted contributions and a 2-decimal activity level.
func (d *Detector) Detect(features [6]float64) telemetry.AnomalyResult {
	d.mu.Lock()
	jitter := 0.8 + d.rng.Float64()*0.4
	borderlineRoll := d.rng.Float64()
	borderlineConf := 60 + d.rng.Float64()*15
	normalConf := 65 + d.rng.Float64()*20
	d.mu.Unlock()

	contributions := make([]float64, len(features))
	magnitude := 0.0
	for i, v := range features {
		c := math.Abs(v) * featureWeights[i]
		if i >= 3 {
			c *= gyroScale
		}
		contributions[i] = c
		magnitude += c
	}
	magnitude *= jitter

	var prediction string
	var confidence float64
	switch {
	case magnitude > 600:
		prediction = "Anomaly"
		confidence = math.Min(95, 70+(magnitude-600)/10)
	case magnitude > 400:
		if borderlineRoll < 0.3 {
			prediction = "Anomaly"
			confidence = borderlineConf
		} else {
			prediction = "Normal"
			confidence = normalConf
		}
	default:
		prediction = "Normal"
		confidence = math.Min(98, 80+(200-magnitude)/20)
	}

	order := []int{0, 1, 2, 3, 4, 5}
	sort.SliceStable(order, func(a, b int) bool {
		return contributions[order[a]] > contributions[order[b]]
	})
	top := make([]string, 0, 3)
	for _, idx := range order[:3] {
		top = append(top, telemetry.FeatureNames[idx])
	}

	return telemetry.AnomalyResult{
		Prediction:        prediction,
		Confidence:        round2(confidence),
		ImportantFeatures: top,
		ActivityLevel:     round2(magnitude),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
