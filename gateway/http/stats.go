package http

import (
	"fmt"
	"math"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Body temperature band considered healthy for collar readings.
var normalTemperatureRange = map[string]float64{"min": 25.0, "max": 30.0}

// herdStats aggregates the sensor, gate and feed buffers into the herd
// overview the dashboard renders.
func (s *Server) herdStats() map[string]any {
	readings := s.history.SensorSnapshot()
	if len(readings) == 0 {
		return map[string]any{
			"total_samples":      0,
			"normal_count":       0,
			"anomaly_count":      0,
			"anomaly_percentage": 0,
			"activity_levels":    map[string]any{"average": 0, "maximum": 0, "minimum": 0},
		}
	}

	unique := make(map[string]struct{})
	for _, r := range readings {
		if r.CattleID != "" {
			unique[r.CattleID] = struct{}{}
		}
	}
	for _, e := range s.history.GateSnapshot() {
		id := e.RFIDTag
		if id == "" {
			id = e.CattleID
		}
		if id != "" && id != "unknown" {
			unique[id] = struct{}{}
		}
	}
	for _, report := range s.history.FeedSnapshot() {
		for _, activity := range report.RecentActivity {
			id := activity.CattleID
			if id == "" {
				id = activity.RFID
			}
			if id != "" && id != "unknown" {
				unique[id] = struct{}{}
			}
		}
	}
	totalCattle := len(unique)

	// One classification per animal, from its first buffered reading.
	status := make(map[string]string)
	for _, r := range readings {
		if r.CattleID == "" {
			continue
		}
		if _, seen := status[r.CattleID]; seen {
			continue
		}
		status[r.CattleID] = s.detector.Detect(r.Features()).Prediction
	}

	healthy := 0
	for _, prediction := range status {
		if prediction == "Normal" {
			healthy++
		}
	}
	// Animals known only from gate or feed readings count against the
	// healthy share; no movement data means no evidence of health.
	anomalies := totalCattle - healthy

	healthyPct := 0.0
	if totalCattle > 0 {
		healthyPct = round1(float64(healthy) / float64(totalCattle) * 100)
	}

	tempSum, tempCount := 0.0, 0
	for _, r := range readings {
		if r.Temperature > 0 {
			tempSum += r.Temperature
			tempCount++
		}
	}
	avgTemp := 0.0
	if tempCount > 0 {
		avgTemp = round1(tempSum / float64(tempCount))
	}

	activitySum := 0.0
	for _, r := range readings {
		activitySum += (math.Abs(r.AccX) + math.Abs(r.AccY) + math.Abs(r.AccZ)) * 10
	}
	activityScore := int(activitySum / float64(len(readings)))
	if activityScore > 100 {
		activityScore = 100
	}

	return map[string]any{
		"total_samples": len(readings),
		"health_metrics": map[string]any{
			"total_cattle":       totalCattle,
			"healthy_percentage": healthyPct,
			"average_temp":       avgTemp,
			"activity_score":     activityScore,
		},
		"cattle_distribution": []map[string]any{
			{"name": "Healthy", "value": healthy, "color": "#10B981"},
			{"name": "Anomaly", "value": anomalies, "color": "#EF4444"},
		},
		"activity_levels": []map[string]any{
			{"period": "Recent", "normal": healthy, "anomaly": anomalies},
		},
	}
}

// temperatureStats builds overall and per-animal body temperature views.
// The second return is false when no reading has a usable temperature.
func (s *Server) temperatureStats() (map[string]any, bool) {
	var all []float64
	perCattle := make(map[string][]float64)

	for _, r := range s.history.SensorSnapshot() {
		if r.Temperature <= 0 {
			continue
		}
		all = append(all, r.Temperature)
		id := r.CattleID
		if id == "" {
			id = "unknown"
		}
		perCattle[id] = append(perCattle[id], r.Temperature)
	}
	if len(all) == 0 {
		return nil, false
	}

	stats := make(map[string]any, len(perCattle))
	alerts := make([]map[string]any, 0)
	for id, temps := range perCattle {
		current := round2(temps[len(temps)-1])
		stats[id] = map[string]any{
			"current":        current,
			"average":        round2(mean(temps)),
			"min":            round2(minOf(temps)),
			"max":            round2(maxOf(temps)),
			"readings_count": len(temps),
		}
		switch {
		case current < normalTemperatureRange["min"]:
			alerts = append(alerts, map[string]any{
				"cattle_id": id,
				"type":      "low_temperature",
				"message":   fmt.Sprintf("Low temperature detected: %v°C", current),
			})
		case current > normalTemperatureRange["max"]:
			alerts = append(alerts, map[string]any{
				"cattle_id": id,
				"type":      "high_temperature",
				"message":   fmt.Sprintf("High temperature detected: %v°C", current),
			})
		}
	}

	return map[string]any{
		"overall_stats": map[string]any{
			"average":        round2(mean(all)),
			"minimum":        round2(minOf(all)),
			"maximum":        round2(maxOf(all)),
			"total_readings": len(all),
		},
		"cattle_stats": stats,
		"normal_range": normalTemperatureRange,
		"alerts":       alerts,
	}, true
}

func (s *Server) environmentReport() map[string]any {
	readings := s.history.EnvironmentSnapshot()
	latest, _ := s.history.LatestEnvironment()

	var ldr []float64
	var temps, humidity []float64
	for _, r := range readings {
		ldr = append(ldr, float64(r.LDRValue))
		if r.EnvTemperature > 0 {
			temps = append(temps, r.EnvTemperature)
		}
		if r.Humidity > 0 {
			humidity = append(humidity, r.Humidity)
		}
	}

	// Day/night from the rolling average of the last five light readings,
	// so one cloud passing over the sensor does not flip the status.
	recent := ldr
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	avgLDR := 0.0
	if len(recent) > 0 {
		avgLDR = mean(recent)
	}
	dayNight := "night"
	if avgLDR > 500 {
		dayNight = "day"
	}

	stats := map[string]any{
		"current_ldr":      latest.LDRValue,
		"current_env_temp": latest.EnvTemperature,
		"current_humidity": latest.Humidity,
		"current_presence": latest.CattlePresence,
		"day_night_status": dayNight,
		"avg_ldr":          round2(avgLDR),
		"avg_env_temp":     0.0,
		"avg_humidity":     0.0,
		"readings_count":   len(readings),
	}
	if len(temps) > 0 {
		stats["avg_env_temp"] = round2(mean(temps))
	}
	if len(humidity) > 0 {
		stats["avg_humidity"] = round2(mean(humidity))
	}

	alerts := make([]map[string]any, 0)
	switch {
	case latest.EnvTemperature > 35:
		alerts = append(alerts, map[string]any{
			"type":    "high_env_temperature",
			"message": fmt.Sprintf("High environmental temperature: %v°C", latest.EnvTemperature),
		})
	case latest.EnvTemperature < 10:
		alerts = append(alerts, map[string]any{
			"type":    "low_env_temperature",
			"message": fmt.Sprintf("Low environmental temperature: %v°C", latest.EnvTemperature),
		})
	}
	switch {
	case latest.Humidity > 80:
		alerts = append(alerts, map[string]any{
			"type":    "high_humidity",
			"message": fmt.Sprintf("High humidity detected: %v%%", latest.Humidity),
		})
	case latest.Humidity < 30:
		alerts = append(alerts, map[string]any{
			"type":    "low_humidity",
			"message": fmt.Sprintf("Low humidity detected: %v%%", latest.Humidity),
		})
	}

	historical := readings
	if len(historical) > 10 {
		historical = historical[len(historical)-10:]
	}

	return map[string]any{
		"latest_data":     latest,
		"statistics":      stats,
		"alerts":          alerts,
		"historical_data": historical,
	}
}

func (s *Server) gateReport() map[string]any {
	events := s.history.GateSnapshot()
	latest, _ := s.history.LatestGate()

	entries, exits := 0, 0
	if s.sessions != nil {
		entries = s.sessions.UniqueEntries()
		exits = s.sessions.UniqueExits()
	}

	var weights []float64
	for _, e := range events {
		if e.Weight > 0 {
			weights = append(weights, e.Weight)
		}
	}
	weightStats := map[string]any{}
	if len(weights) > 0 {
		weightStats = map[string]any{
			"average":        round2(mean(weights)),
			"minimum":        round2(minOf(weights)),
			"maximum":        round2(maxOf(weights)),
			"total_readings": len(weights),
		}
	}

	alerts := make([]map[string]any, 0)
	switch {
	case latest.Weight > 800:
		alerts = append(alerts, map[string]any{
			"type":    "heavy_cattle",
			"message": fmt.Sprintf("Heavy cattle detected: %vkg", latest.Weight),
		})
	case latest.Weight > 0 && latest.Weight < 200:
		alerts = append(alerts, map[string]any{
			"type":    "light_cattle",
			"message": fmt.Sprintf("Unusually light reading: %vkg", latest.Weight),
		})
	}

	recent := events
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	return map[string]any{
		"latest_data": latest,
		"statistics": map[string]any{
			"total_entries":  entries,
			"total_exits":    exits,
			"total_readings": len(events),
			"weight_stats":   weightStats,
		},
		"cattle_registry": s.registry.All(),
		"recent_activity": recent,
		"alerts":          alerts,
	}
}

func (s *Server) feedReport() map[string]any {
	reports := s.history.RecentFeed(20)

	totalFeed, totalWater := 0.0, 0.0
	for _, r := range reports {
		totalFeed += r.TotalFeed
		totalWater += r.TotalWater
	}

	latest := map[string]any{
		"total_feed":           0.0,
		"total_water":          0.0,
		"avg_feed_per_cattle":  0.0,
		"avg_water_per_cattle": 0.0,
		"recent_activity":      []telemetry.FeedReport{},
	}
	if len(reports) > 0 {
		count := float64(len(reports))
		latest = map[string]any{
			"total_feed":           round2(totalFeed),
			"total_water":          round2(totalWater),
			"avg_feed_per_cattle":  round2(totalFeed / count),
			"avg_water_per_cattle": round2(totalWater / count),
			"recent_activity":      reports,
		}
	}

	return map[string]any{
		"latest_data": latest,
		"statistics": map[string]any{
			"total_readings": len(reports),
		},
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
