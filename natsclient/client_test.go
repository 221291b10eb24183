package natsclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Test basic client creation
func TestNewClient(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	assert.NoError(t, err)

	assert.NotNil(t, client)
	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.False(t, client.IsHealthy())
}

// Test status transitions
func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		name           string
		initialStatus  ConnectionStatus
		action         func(*Client)
		expectedStatus ConnectionStatus
	}{
		{
			name:          "disconnected to connecting",
			initialStatus: StatusDisconnected,
			action: func(m *Client) {
				m.setStatus(StatusConnecting)
			},
			expectedStatus: StatusConnecting,
		},
		{
			name:          "connecting to connected",
			initialStatus: StatusConnecting,
			action: func(m *Client) {
				m.setStatus(StatusConnected)
			},
			expectedStatus: StatusConnected,
		},
		{
			name:          "connected to reconnecting",
			initialStatus: StatusConnected,
			action: func(m *Client) {
				m.setStatus(StatusReconnecting)
			},
			expectedStatus: StatusReconnecting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient("nats://localhost:4222")
			assert.NoError(t, err)
			client.setStatus(tt.initialStatus)

			tt.action(client)

			assert.Equal(t, tt.expectedStatus, client.Status())
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "reconnecting", StatusReconnecting.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

// Test concurrent safety
func TestConcurrentSafety(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	assert.NoError(t, err)

	var wg sync.WaitGroup
	iterations := 100

	// Concurrent status updates
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.setStatus(StatusConnecting)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.setStatus(StatusConnected)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			_ = client.Status()
		}
	}()

	// Concurrent failure recording
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			client.recordFailure()
		}
	}()

	wg.Wait()

	// Should not panic and should have valid state
	status := client.Status()
	assert.Contains(t, []ConnectionStatus{
		StatusDisconnected,
		StatusConnecting,
		StatusConnected,
		StatusReconnecting,
	}, status)
	assert.Equal(t, int32(iterations), client.Failures())
}

// Test IsHealthy logic
func TestIsHealthy(t *testing.T) {
	tests := []struct {
		name     string
		status   ConnectionStatus
		expected bool
	}{
		{"connected is healthy", StatusConnected, true},
		{"disconnected is not healthy", StatusDisconnected, false},
		{"connecting is not healthy", StatusConnecting, false},
		{"reconnecting is not healthy", StatusReconnecting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient("nats://localhost:4222")
			assert.NoError(t, err)
			client.setStatus(tt.status)
			assert.Equal(t, tt.expected, client.IsHealthy())
		})
	}
}

// Test WaitForConnection with timeout
func TestWaitForConnection(t *testing.T) {
	t.Run("times out when not connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		assert.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err = client.WaitForConnection(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("returns immediately when connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		assert.NoError(t, err)
		client.setStatus(StatusConnected)

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		start := time.Now()
		err = client.WaitForConnection(ctx)
		elapsed := time.Since(start)

		assert.NoError(t, err)
		assert.Less(t, elapsed, 100*time.Millisecond)
	})

	t.Run("returns when becomes connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		assert.NoError(t, err)

		// Simulate connection after delay
		go func() {
			time.Sleep(50 * time.Millisecond)
			client.setStatus(StatusConnected)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		err = client.WaitForConnection(ctx)
		assert.NoError(t, err)
		assert.Equal(t, StatusConnected, client.Status())
	})
}

// Test KeyValue bucket operations
func TestKeyValueBuckets(t *testing.T) {
	t.Run("operations return error when not connected", func(t *testing.T) {
		client, err := NewClient("nats://localhost:4222")
		assert.NoError(t, err)
		ctx := context.Background()

		cfg := jetstream.KeyValueConfig{Bucket: "test"}
		_, err = client.CreateKeyValueBucket(ctx, cfg)
		assert.Equal(t, ErrNotConnected, err)

		_, err = client.GetKeyValueBucket(ctx, "test")
		assert.Equal(t, ErrNotConnected, err)

		err = client.DeleteKeyValueBucket(ctx, "test")
		assert.Equal(t, ErrNotConnected, err)

		_, err = client.ListKeyValueBuckets(ctx)
		assert.Equal(t, ErrNotConnected, err)
	})

	t.Run("operations work with real KV server", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping integration test in short mode")
		}

		ctx := context.Background()
		natsContainer, natsURL := startTestNATSContainerWithJS(ctx, t)
		defer natsContainer.Terminate(ctx)

		client, err := NewClient(natsURL,
			WithMaxReconnects(0), // No reconnects in tests
		)
		require.NoError(t, err)

		err = client.Connect(ctx)
		require.NoError(t, err)
		defer client.Close(ctx)

		cfg := jetstream.KeyValueConfig{Bucket: "unit_test_bucket"}

		kv, err := client.CreateKeyValueBucket(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, kv)

		_, err = kv.Put(ctx, "test-key", []byte("test-value"))
		require.NoError(t, err)

		entry, err := kv.Get(ctx, "test-key")
		require.NoError(t, err)
		assert.Equal(t, []byte("test-value"), entry.Value())

		retrievedKV, err := client.GetKeyValueBucket(ctx, "unit_test_bucket")
		require.NoError(t, err)
		require.NotNil(t, retrievedKV)

		entry2, err := retrievedKV.Get(ctx, "test-key")
		require.NoError(t, err)
		assert.Equal(t, []byte("test-value"), entry2.Value())

		buckets, err := client.ListKeyValueBuckets(ctx)
		require.NoError(t, err)

		found := false
		for _, bucketName := range buckets {
			if bucketName == "unit_test_bucket" {
				found = true
				break
			}
		}
		assert.True(t, found, "Should find our unit_test_bucket in list")

		err = client.DeleteKeyValueBucket(ctx, "unit_test_bucket")
		require.NoError(t, err)

		_, err = client.GetKeyValueBucket(ctx, "unit_test_bucket")
		assert.Error(t, err) // Should fail to get deleted bucket
	})
}

// Test context-aware methods
func TestContextAwareMethods(t *testing.T) {
	t.Run("with invalid host", func(t *testing.T) {
		client, err := NewClient("nats://invalid-host:4222")
		assert.NoError(t, err)

		ctx := context.Background()

		// These will fail because no actual NATS server, but we can test the API
		err = client.Connect(ctx)
		assert.Error(t, err) // Should fail due to no server

		err = client.Close(ctx)
		assert.NoError(t, err) // Should succeed even when not connected

		err = client.Publish(ctx, "test.subject", []byte("data"))
		assert.Equal(t, ErrNotConnected, err)

		err = client.Subscribe(ctx, "test.subject", func(_ context.Context, _ []byte) {})
		assert.Equal(t, ErrNotConnected, err)

		err = client.SubscribeTopic(ctx, "test.subject", func(_ context.Context, _ string, _ []byte) {})
		assert.Equal(t, ErrNotConnected, err)
	})

	t.Run("with real NATS server", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping integration test in short mode")
		}

		ctx := context.Background()
		natsContainer, natsURL := startTestNATSContainer(ctx, t)
		defer natsContainer.Terminate(ctx)

		client, err := NewClient(natsURL,
			WithMaxReconnects(0), // No reconnects in tests
		)
		require.NoError(t, err)

		err = client.Connect(ctx)
		require.NoError(t, err)
		defer client.Close(ctx)

		assert.True(t, client.IsHealthy())

		err = client.Publish(ctx, "test.subject", []byte("data"))
		assert.NoError(t, err)

		received := make(chan []byte, 1)
		err = client.Subscribe(ctx, "test.reply", func(_ context.Context, data []byte) {
			received <- data
		})
		assert.NoError(t, err)

		err = client.Publish(ctx, "test.reply", []byte("response"))
		assert.NoError(t, err)

		select {
		case data := <-received:
			assert.Equal(t, []byte("response"), data)
		case <-time.After(1 * time.Second):
			t.Fatal("Message not received")
		}

		// SubscribeTopic delivers the subject alongside the payload
		type topicMsg struct {
			topic string
			data  []byte
		}
		topicReceived := make(chan topicMsg, 1)
		err = client.SubscribeTopic(ctx, "farm/gate", func(_ context.Context, topic string, data []byte) {
			topicReceived <- topicMsg{topic: topic, data: data}
		})
		assert.NoError(t, err)

		err = client.Publish(ctx, "farm/gate", []byte(`{"rfidTag":"E3882528"}`))
		assert.NoError(t, err)

		select {
		case msg := <-topicReceived:
			assert.Equal(t, "farm/gate", msg.topic)
			assert.Contains(t, string(msg.data), "E3882528")
		case <-time.After(1 * time.Second):
			t.Fatal("Topic message not received")
		}
	})
}

// Test JetStream access before connecting
func TestJetStream_NotInitialized(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	assert.NoError(t, err)

	_, err = client.JetStream()
	assert.Error(t, err)
}

// Test connection options
func TestConnectionOptions(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithMaxReconnects(10),
		WithReconnectWait(5*time.Second),
		WithPingInterval(30*time.Second),
	)
	assert.NoError(t, err)

	opts := client.ConnectionOptions()
	assert.NotNil(t, opts)

	assert.Equal(t, 10, client.MaxReconnects())
	assert.Equal(t, 5*time.Second, client.ReconnectWait())
	assert.Equal(t, 30*time.Second, client.PingInterval())
}

// Test status reporting
func TestGetStatus(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		client.recordFailure()
	}

	status := client.GetStatus()
	assert.NotNil(t, status)
	assert.Equal(t, int32(3), status.FailureCount)
	assert.Equal(t, StatusDisconnected, status.Status)
	assert.NotZero(t, status.LastFailureTime)
}

// Test graceful KV bucket already exists handling
func TestCreateKeyValueBucket_AlreadyExists(t *testing.T) {
	t.Run("isAlreadyExistsError recognizes error patterns", func(t *testing.T) {
		testCases := []struct {
			name     string
			err      error
			expected bool
		}{
			{"bucket name already in use", errors.New("nats: bucket name already in use"), true},
			{"already exists", errors.New("bucket already exists"), true},
			{"stream name already in use", errors.New("nats: stream name already in use"), true},
			{"other error", errors.New("connection failed"), false},
			{"nil error", nil, false},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				result := isAlreadyExistsError(tc.err)
				assert.Equal(t, tc.expected, result)
			})
		}
	})
}

// Helper function to start NATS container for unit tests
func startTestNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	natsURL := fmt.Sprintf("nats://%s:%s", host, port.Port())
	return natsContainer, natsURL
}

// Helper function to start NATS container with JetStream for unit tests
func startTestNATSContainerWithJS(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          []string{"--js"}, // Enable JetStream
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	natsURL := fmt.Sprintf("nats://%s:%s", host, port.Port())
	return natsContainer, natsURL
}
