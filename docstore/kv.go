package docstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/abhishekp4512/CattleNet/errors"
	"github.com/abhishekp4512/CattleNet/natsclient"
	"github.com/abhishekp4512/CattleNet/pkg/timestamp"
)

// metaKey holds per-collection bookkeeping, updated with a CAS loop so
// concurrent writers never lose counts.
const metaKey = "meta"

// KVWriter stores documents in JetStream KV, one bucket per collection
// named "<prefix>_<collection>". Each document gets a random UUID key;
// the meta document tracks insert count and last write time.
type KVWriter struct {
	client *natsclient.Client
	prefix string
	log    *slog.Logger

	mu      sync.Mutex
	buckets map[string]*natsclient.KVStore
}

// NewKVWriter creates a writer over the given connected client. Buckets
// are created lazily on first insert into a collection.
func NewKVWriter(client *natsclient.Client, prefix string, log *slog.Logger) *KVWriter {
	if prefix == "" {
		prefix = "cattlenet"
	}
	if log == nil {
		log = slog.Default()
	}
	return &KVWriter{
		client:  client,
		prefix:  prefix,
		log:     log.With("component", "docstore"),
		buckets: make(map[string]*natsclient.KVStore),
	}
}

// Insert writes the document under a fresh UUID key and bumps the
// collection's meta document.
func (w *KVWriter) Insert(ctx context.Context, collection string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.WrapInvalid(err, "KVWriter", "Insert", "marshal document")
	}

	kv, err := w.bucket(ctx, collection)
	if err != nil {
		return err
	}

	key := uuid.NewString()
	if _, err := kv.Put(ctx, key, data); err != nil {
		return errors.WrapTransient(err, "KVWriter", "Insert", "put document")
	}

	if err := w.bumpMeta(ctx, kv); err != nil {
		// The document is stored; stale bookkeeping is tolerable.
		w.log.Debug("meta update failed", "collection", collection, "error", err)
	}
	return nil
}

func (w *KVWriter) bumpMeta(ctx context.Context, kv *natsclient.KVStore) error {
	return kv.UpdateJSON(ctx, metaKey, func(current map[string]any) error {
		count, _ := current["insert_count"].(float64)
		current["insert_count"] = count + 1
		current["last_insert"] = timestamp.Display(timestamp.Now())
		return nil
	})
}

// bucket returns the KVStore for a collection, creating the backing
// bucket on first use.
func (w *KVWriter) bucket(ctx context.Context, collection string) (*natsclient.KVStore, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if kv, ok := w.buckets[collection]; ok {
		return kv, nil
	}

	name := w.prefix + "_" + collection
	bucket, err := w.client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "CattleNet telemetry documents",
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "KVWriter", "bucket", "create bucket "+name)
	}

	kv := w.client.NewKVStore(bucket)
	w.buckets[collection] = kv
	w.log.Info("document bucket ready", "bucket", name)
	return kv, nil
}
