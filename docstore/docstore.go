// Package docstore persists normalized telemetry documents. Writes are
// best effort: the pipeline's in-memory state is authoritative and a
// failed write never blocks ingestion.
package docstore

import "context"

// Store writes documents into named collections.
type Store interface {
	Insert(ctx context.Context, collection string, doc any) error
}
