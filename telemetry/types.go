// Package telemetry defines the canonical record types flowing through the
// CattleNet pipeline. Field names match the documents the farm dashboards
// and stored collections already use.
package telemetry

// Kind identifies which stream a record belongs to.
type Kind string

const (
	KindSensor      Kind = "sensor"
	KindEnvironment Kind = "environment"
	KindGate        Kind = "gate"
	KindFeed        Kind = "feed"
	KindHealth      Kind = "health"
)

// String returns the kind as a plain string.
func (k Kind) String() string { return string(k) }

// FeatureNames lists the movement features in canonical order. Anomaly
// scoring and feature attribution both rely on this ordering.
var FeatureNames = [6]string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"}

// SensorReading is a normalized movement reading from a collar or ear tag.
type SensorReading struct {
	Timestamp   string  `json:"timestamp"`
	CattleID    string  `json:"cattle_id"`
	AccX        float64 `json:"acc_x"`
	AccY        float64 `json:"acc_y"`
	AccZ        float64 `json:"acc_z"`
	GyroX       float64 `json:"gyro_x"`
	GyroY       float64 `json:"gyro_y"`
	GyroZ       float64 `json:"gyro_z"`
	Temperature float64 `json:"temperature"`
}

// Features returns the movement features in canonical order.
func (r SensorReading) Features() [6]float64 {
	return [6]float64{r.AccX, r.AccY, r.AccZ, r.GyroX, r.GyroY, r.GyroZ}
}

// EnvironmentalReading is a normalized barn-environment reading.
type EnvironmentalReading struct {
	Timestamp      string  `json:"timestamp"`
	LDRValue       int     `json:"ldr_value"`
	EnvTemperature float64 `json:"env_temperature"`
	Humidity       float64 `json:"humidity"`
	CattlePresence bool    `json:"cattle_presence"`
	DayNight       string  `json:"day_night"`
	Zone           string  `json:"zone,omitempty"`
}

// GateEvent is a normalized RFID gate passing with the classified direction.
type GateEvent struct {
	Timestamp  string  `json:"timestamp"`
	RFIDTag    string  `json:"rfid_tag"`
	Weight     float64 `json:"weight"`
	GateStatus string  `json:"gate_status"`
	Direction  string  `json:"direction"`
	CattleID   string  `json:"cattle_id"`
}

// FeedActivity is one animal's visit to the feed station.
type FeedActivity struct {
	CattleID     string  `json:"cattle_id"`
	RFID         string  `json:"rfid"`
	FeedConsumed float64 `json:"feed_consumed"`
	WaterPresent bool    `json:"water_present"`
	Timestamp    string  `json:"timestamp"`
}

// FeedReport aggregates feed-station activity. Single-visit payloads are
// folded into a report with one activity entry.
type FeedReport struct {
	Timestamp         string         `json:"timestamp"`
	TotalFeed         float64        `json:"total_feed"`
	TotalWater        float64        `json:"total_water"`
	AvgFeedPerCattle  float64        `json:"avg_feed_per_cattle"`
	AvgWaterPerCattle float64        `json:"avg_water_per_cattle"`
	RecentActivity    []FeedActivity `json:"recent_activity"`
}

// WeightSample is one weigh-in kept in an animal's weight history.
type WeightSample struct {
	Weight    float64 `json:"weight"`
	Timestamp string  `json:"timestamp"`
}

// CattleProfile is the registry entry for one animal, keyed by RFID tag.
type CattleProfile struct {
	RFIDTag       string         `json:"rfid_tag"`
	LatestWeight  float64        `json:"latest_weight"`
	WeightHistory []WeightSample `json:"weight_history"`
	FirstSeen     string         `json:"first_seen"`
	LastSeen      string         `json:"last_seen"`
	TotalEntries  int            `json:"total_entries"`
	TotalExits    int            `json:"total_exits"`
}

// AnomalyResult is the outcome of scoring one sensor reading.
type AnomalyResult struct {
	Prediction        string   `json:"prediction"`
	Confidence        float64  `json:"confidence"`
	ImportantFeatures []string `json:"important_features"`
	ActivityLevel     float64  `json:"activity_level"`
}

// IsAnomaly reports whether the reading was classified as anomalous.
func (r AnomalyResult) IsAnomaly() bool { return r.Prediction == "Anomaly" }

// Event is a processed record headed for fan-out, paired with the stream it
// came from and any enrichment computed during processing.
type Event struct {
	Kind    Kind `json:"kind"`
	Payload any  `json:"payload"`
}

// SensorUpdate pairs a sensor reading with its anomaly score for fan-out.
type SensorUpdate struct {
	Data              SensorReading `json:"data"`
	Prediction        string        `json:"prediction"`
	Confidence        float64       `json:"confidence"`
	ImportantFeatures []string      `json:"important_features"`
	ActivityLevel     float64       `json:"activity_level"`
}

// GateUpdate pairs a gate event with the animal's registry entry for fan-out.
type GateUpdate struct {
	Data     GateEvent      `json:"data"`
	Registry *CattleProfile `json:"registry,omitempty"`
}

// EnvironmentUpdate wraps an environmental reading for fan-out.
type EnvironmentUpdate struct {
	Data EnvironmentalReading `json:"data"`
}

// FeedUpdate wraps a feed report for fan-out.
type FeedUpdate struct {
	Data FeedReport `json:"data"`
}
