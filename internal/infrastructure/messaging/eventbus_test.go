package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

func TestInMemoryEventBus_SubscribePublish(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	var got []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventPathGenerated, func(e shared.Event) error {
		got = append(got, e)
		return nil
	}))

	event := shared.NewPathGeneratedEvent("path-1", "u1", "math", "beginner", 15)
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, "path-1", got[0].AggregateID())

	// Other event types do not reach the handler.
	require.NoError(t, bus.Publish(shared.NewPathUpdatedEvent("path-1", "u1", "c1", 0.8, false)))
	assert.Len(t, got, 1)
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPathGeneratedEvent("p", "u", "math", "beginner", 15)))
	require.NoError(t, bus.Publish(shared.NewPathUpdatedEvent("p", "u", "c", 0.8, false)))
	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.Subscribe(shared.EventPathUpdated, func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewPathUpdatedEvent("p", "u", "c", 0.8, false)))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	second := false
	require.NoError(t, bus.Subscribe(shared.EventPathGenerated, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventPathGenerated, func(shared.Event) error {
		second = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPathGeneratedEvent("p", "u", "math", "beginner", 15)))
	assert.True(t, second)
}

func TestInMemoryEventBus_ClosedRejectsOperations(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewPathGeneratedEvent("p", "u", "math", "beginner", 15)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventPathGenerated, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Closing twice is fine.
	assert.NoError(t, bus.Close())
}

func TestInMemoryEventBus_NilChecks(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventPathGenerated, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

func TestInMemoryEventBus_Metrics(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventPathGenerated, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(shared.NewPathGeneratedEvent("p", "u", "math", "beginner", 15)))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

// ─── redis bus ───────────────────────────────────────────────────────────────

// fakeRedisClient implements RedisClient against an in-process channel.
type fakeRedisClient struct {
	mu        sync.Mutex
	published []string
	incoming  chan RedisMessage
	closed    bool
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{incoming: make(chan RedisMessage, 16)}
}

func (c *fakeRedisClient) Publish(_ context.Context, _ string, message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, message.(string))
	return nil
}

func (c *fakeRedisClient) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	return c.incoming, nil
}

func (c *fakeRedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.incoming)
	}
	return nil
}

func (c *fakeRedisClient) publishedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

func TestRedisEventBus_PublishesToRedisAndLocally(t *testing.T) {
	client := newFakeRedisClient()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)
	defer bus.Close()

	local := 0
	require.NoError(t, bus.Subscribe(shared.EventPathGenerated, func(shared.Event) error {
		local++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPathGeneratedEvent("path-1", "u1", "math", "beginner", 15)))

	assert.Equal(t, 1, local)
	require.Equal(t, 1, client.publishedCount())

	var envelope struct {
		InstanceID  string           `json:"instance_id"`
		EventType   shared.EventType `json:"event_type"`
		AggregateID string           `json:"aggregate_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(client.published[0]), &envelope))
	assert.Equal(t, "instance-a", envelope.InstanceID)
	assert.Equal(t, shared.EventPathGenerated, envelope.EventType)
	assert.Equal(t, "path-1", envelope.AggregateID)
}

func TestRedisEventBus_DeliversRemoteEvents(t *testing.T) {
	client := newFakeRedisClient()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)
	defer bus.Close()

	var mu sync.Mutex
	var got []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventMilestoneAchieved, func(e shared.Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		return nil
	}))

	remote, _ := json.Marshal(map[string]interface{}{
		"instance_id":  "instance-b",
		"event_type":   string(shared.EventMilestoneAchieved),
		"aggregate_id": "path-9",
		"occurred_at":  time.Now().UTC(),
		"payload":      map[string]interface{}{"user_id": "u9"},
	})
	client.incoming <- RedisMessage{Channel: "path-engine:events", Payload: string(remote)}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "path-9", got[0].AggregateID())
	assert.Equal(t, "u9", got[0].Payload()["user_id"])
}

func TestRedisEventBus_FiltersOwnEvents(t *testing.T) {
	client := newFakeRedisClient()
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "instance-a",
		LocalBusConfig: InMemoryEventBusConfig{AsyncMode: false},
	})
	require.NoError(t, err)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	// An envelope from this same instance must be skipped: it was already
	// processed locally at publish time.
	own, _ := json.Marshal(map[string]interface{}{
		"instance_id":  "instance-a",
		"event_type":   string(shared.EventPathUpdated),
		"aggregate_id": "path-1",
		"occurred_at":  time.Now().UTC(),
		"payload":      map[string]interface{}{},
	})
	client.incoming <- RedisMessage{Payload: string(own)}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}
