package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/abhishekp4512/CattleNet/pkg/timestamp"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{
		"timestamp": timestamp.Display(timestamp.Now()),
		"version":   s.version,
		"service":   serviceLabel,
	})
}

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	recent := s.history.RecentSensors(10)
	if recent == nil {
		recent = []telemetry.SensorReading{}
	}
	s.writeJSON(w, map[string]any{
		"data":          recent,
		"total_records": s.history.SensorCount(),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.history.LatestSensor()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no data available yet")
		return
	}

	result := s.detector.Detect(latest.Features())
	s.writeJSON(w, map[string]any{
		"data":               latest,
		"prediction":         result.Prediction,
		"confidence":         result.Confidence,
		"important_features": result.ImportantFeatures,
		"explanation":        explanation(result),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.history.LatestSensor()
	if !ok {
		// Dashboards poll this before the first reading lands; answer
		// with a quiet zero state instead of an error.
		s.writeJSON(w, map[string]any{
			"latest_data":        telemetry.SensorReading{},
			"prediction":         "Normal",
			"confidence":         0,
			"activity_level":     0,
			"important_features": []string{},
			"explanation":        "Waiting for sensor data...",
		})
		return
	}

	result := s.detector.Detect(latest.Features())
	s.writeJSON(w, map[string]any{
		"latest_data":        latest,
		"prediction":         result.Prediction,
		"confidence":         result.Confidence,
		"activity_level":     result.ActivityLevel,
		"important_features": result.ImportantFeatures,
		"explanation":        explanation(result),
	})
}

func (s *Server) handleHealthStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{
		"health_stats": s.cachedReport("health-stats", s.herdStats),
	})
}

func (s *Server) handleTemperature(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.temperatureStats()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no valid temperature data available")
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleEnvironment(w http.ResponseWriter, _ *http.Request) {
	if s.history.EnvironmentCount() == 0 {
		s.writeError(w, http.StatusNotFound, "no environmental data available")
		return
	}
	s.writeJSON(w, s.cachedReport("environment", s.environmentReport))
}

func (s *Server) handleGate(w http.ResponseWriter, _ *http.Request) {
	if s.history.GateCount() == 0 {
		s.writeError(w, http.StatusNotFound, "no gate data available")
		return
	}
	s.writeJSON(w, s.cachedReport("gate", s.gateReport))
}

func (s *Server) handleCattleDetails(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimPrefix(r.URL.Path, "/api/gate/cattle/")
	if tag == "" || strings.Contains(tag, "/") {
		s.writeError(w, http.StatusBadRequest, "rfid tag required")
		return
	}

	profile, ok := s.registry.Get(tag)
	if !ok {
		s.writeError(w, http.StatusNotFound,
			fmt.Sprintf("no data found for rfid tag: %s", tag))
		return
	}

	activities := make([]telemetry.GateEvent, 0)
	for _, event := range s.history.GateSnapshot() {
		if event.RFIDTag == tag {
			activities = append(activities, event)
		}
	}
	total := len(activities)
	if total > 20 {
		activities = activities[total-20:]
	}

	s.writeJSON(w, map[string]any{
		"cattle_info":    profile,
		"activities":     activities,
		"activity_count": total,
	})
}

func (s *Server) handleFeedMonitor(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.cachedReport("feed-monitor", s.feedReport))
}

func (s *Server) handleBusStatus(w http.ResponseWriter, _ *http.Request) {
	broker := ""
	if s.bus != nil {
		broker = s.bus.URL()
	}

	var count int64
	if s.pipeline != nil {
		count = s.pipeline.MessageCount()
	}

	s.writeJSON(w, map[string]any{
		"broker":     broker,
		"topics":     s.topics,
		"data_count": count,
	})
}

func explanation(result telemetry.AnomalyResult) string {
	return fmt.Sprintf(
		"The model is %v%% confident in its prediction. The most important factors were %s.",
		result.Confidence, strings.Join(result.ImportantFeatures, ", "))
}
