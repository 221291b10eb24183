// Package natsclient provides a managed NATS client with automatic
// reconnection and JetStream KV support for the CattleNet services.
//
// The natsclient package wraps the standard NATS Go client with connection
// lifecycle management, health monitoring, and proper context propagation
// throughout all operations. It carries every message between the barn
// sensors, the ingest pipeline, and downstream consumers.
//
// # Core Features
//
// Connection Lifecycle Management: Handles connection states automatically
// through the lifecycle: Disconnected → Connecting → Connected → Reconnecting
// → Connected. The client manages all transitions with configurable callbacks
// for state changes.
//
// Topic-Aware Subscriptions: SubscribeTopic delivers the subject alongside
// the payload, which the ingest router uses to classify readings by topic.
//
// KVStore Abstraction: High-level abstraction over JetStream KV providing
// automatic CAS (Compare-And-Swap) retry logic, JSON helpers, and consistent
// error handling. The document store keeps its collections in KV buckets
// through this layer.
//
// # Basic Usage
//
// Creating and connecting to NATS:
//
//	client, err := natsclient.NewClient("nats://localhost:4222")
//	if err != nil {
//	    return err
//	}
//
//	ctx := context.Background()
//	err = client.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	// Publish a message
//	err = client.Publish(ctx, "cattlenet.events.sensor", []byte("message data"))
//
//	// Subscribe to messages
//	err = client.Subscribe(ctx, "farm/gate", func(msgCtx context.Context, data []byte) {
//	    // Handle message with context (30s timeout per message)
//	    fmt.Printf("Received: %s\n", string(data))
//	})
//
//	// Subscribe with the topic delivered to the handler
//	err = client.SubscribeTopic(ctx, "farm/sensor1", func(msgCtx context.Context, topic string, data []byte) {
//	    fmt.Printf("%s: %s\n", topic, string(data))
//	})
//
// # Advanced Configuration
//
// Creating client with options:
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithMaxReconnects(-1),  // Infinite reconnects
//	    natsclient.WithReconnectWait(2*time.Second),
//	    natsclient.WithDisconnectCallback(func(err error) {
//	        log.Printf("Disconnected: %v", err)
//	    }),
//	    natsclient.WithReconnectCallback(func() {
//	        log.Println("Reconnected successfully")
//	    }),
//	)
//
// # Key-Value Store
//
// Using KVStore for document persistence with atomic updates:
//
//	// Create or get KV bucket
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
//	    Bucket:  "cattlenet_gate_logs",
//	    History: 5,
//	})
//
//	// Create KVStore wrapper
//	kvStore := client.NewKVStore(bucket)
//
//	// Simple write
//	rev, err := kvStore.Put(ctx, docID, payload)
//
//	// Atomic JSON update with automatic CAS retry
//	err = kvStore.UpdateJSON(ctx, "meta", func(meta map[string]any) error {
//	    // This function may be called multiple times on conflict
//	    meta["documents"] = docCount
//	    return nil
//	})
//
// # Connection Status and Health
//
// Monitoring connection health:
//
//	// Check current status
//	status := client.Status()
//	switch status {
//	case natsclient.StatusConnected:
//	    // Healthy and ready
//	case natsclient.StatusReconnecting:
//	    // Temporarily disconnected, reconnecting
//	case natsclient.StatusDisconnected:
//	    // Not connected
//	}
//
//	// Get detailed status
//	statusInfo := client.GetStatus()
//	log.Printf("Status: %v, Failures: %d, RTT: %v",
//	    statusInfo.Status,
//	    statusInfo.FailureCount,
//	    statusInfo.RTT)
//
//	// Wait for connection
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	err := client.WaitForConnection(ctx)
//
// Health monitoring with callbacks:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithHealthInterval(10*time.Second),
//	    natsclient.WithHealthChangeCallback(func(healthy bool) {
//	        if healthy {
//	            log.Println("Connection restored")
//	        } else {
//	            log.Println("Connection lost")
//	        }
//	    }),
//	)
//
// # Error Handling
//
// The package defines specific error types for different failure scenarios:
//
//	var (
//	    ErrNotConnected       = errors.New("not connected to NATS")
//	    ErrConnectionTimeout  = errors.New("connection timeout")
//	)
//
// KV-specific error handling:
//
//	err := kvStore.UpdateJSON(ctx, key, updateFn)
//	if err != nil {
//	    // Check for key not found
//	    if natsclient.IsKVNotFoundError(err) {
//	        // Key doesn't exist, create it
//	    }
//
//	    // Check for conflict (CAS failed after retries)
//	    if natsclient.IsKVConflictError(err) {
//	        // Too many concurrent updates
//	    }
//	}
//
// # Authentication
//
// Username/password authentication:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithCredentials("username", "password"),
//	)
//
// Token authentication:
//
//	client, err := natsclient.NewClient(url,
//	    natsclient.WithToken("auth-token"),
//	)
//
// Note: Credentials are cleared from memory when the client is closed.
//
// # Testing
//
// The package provides test utilities for integration testing:
//
//	func TestMyService(t *testing.T) {
//	    // Create test client with real NATS via testcontainers
//	    testClient := natsclient.NewTestClient(t,
//	        natsclient.WithJetStream(),
//	        natsclient.WithKV(),
//	    )
//
//	    client := testClient.Client
//
//	    // Test with real NATS server
//	    err := client.Publish(ctx, "test.subject", []byte("test data"))
//	    assert.NoError(t, err)
//	}
//
// Testing patterns:
//   - Uses real NATS server via testcontainers (no mocks)
//   - Tests actual behavior including connection lifecycle
//   - Thread-safe testing with proper synchronization
//
// # Thread Safety
//
// The Client type is thread-safe and can be used concurrently from multiple
// goroutines:
//   - All public methods are safe for concurrent use
//   - Connection state is managed with atomic operations and mutexes
//   - Subscriptions can be created from any goroutine
//   - Close() can only be called once (subsequent calls are no-ops)
//
// # Design Decisions
//
// Context-First API: Every I/O operation requires context.Context as first
// parameter for proper cancellation and timeout support.
//
// KVStore Abstraction: High-level KV abstraction with built-in CAS retry
// logic centralizes revision conflict handling for the document store.
//
// Testcontainers over Mocks: Integration tests use a real NATS server via
// testcontainers to catch actual integration issues. Mock-based testing can
// miss edge cases in the NATS protocol implementation.
package natsclient
