// Package cattlenet is a livestock telemetry pipeline.
//
// CattleNet subscribes to farm telemetry on a NATS bus, normalizes the
// loosely-typed payloads the field devices emit, and turns them into a
// live picture of the herd:
//
//   - Collar readings (accelerometer, gyroscope, body temperature) are
//     scored by a rule-based anomaly detector.
//   - RFID gate passings are classified as entries or exits by the gate
//     schedule and folded into per-animal profiles.
//   - Environment and feed station reports are filtered, deduplicated,
//     and aggregated.
//
// Results are fanned out on bus subjects and a WebSocket bridge,
// persisted best-effort into JetStream KV buckets, and served to
// dashboards through an HTTP read API.
//
// The pipeline lives in the ingest package; bounded in-memory state in
// store; delivery in fanout and docstore; the read API in gateway/http.
// cmd/cattlenet runs the service and cmd/cattlenet-sim feeds it
// synthetic telemetry for development.
package cattlenet
