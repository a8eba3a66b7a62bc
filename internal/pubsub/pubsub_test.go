package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatsubs/internal/pipeline"
)

func TestWatermillBridge_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(nil)
	defer bridge.Close()

	got := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "chat.topic", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "chat.topic",
		RunID:    "abc",
		Payload:  []byte("hello"),
		Metadata: map[string]string{"source": "test", metaKeyTopic: "spoofed"},
	}))

	select {
	case msg := <-got:
		assert.Equal(t, "chat.topic", msg.Topic, "reserved keys cannot be overridden by metadata")
		assert.Equal(t, "abc", msg.RunID)
		assert.Equal(t, []byte("hello"), []byte(msg.Payload))
		assert.Equal(t, map[string]string{"source": "test"}, msg.Metadata)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestWatermillBridge_HandlerErrorKeepsSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(nil)
	defer bridge.Close()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, bridge.Subscribe(ctx, "t", func(context.Context, Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("boom")
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "t"}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "t"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)
}

func TestTypedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(nil)
	defer bridge.Close()

	type ping struct {
		N int `json:"n"`
	}
	event := NewEvent[ping]("ping.sent", "test pings")
	assert.Equal(t, "ping.sent", event.Name())
	assert.Equal(t, "test pings", event.Description())

	got := make(chan ping, 1)
	require.NoError(t, Subscribe(ctx, bridge, event, func(_ context.Context, runID string, p ping) error {
		assert.Equal(t, "r1", runID)
		got <- p
		return nil
	}))
	require.NoError(t, Publish(ctx, bridge, event, "r1", ping{N: 7}))

	select {
	case p := <-got:
		assert.Equal(t, 7, p.N)
	case <-time.After(time.Second):
		t.Fatal("typed event was not delivered")
	}
}

func TestProgressObserver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(nil)
	defer bridge.Close()

	var mu sync.Mutex
	var updates []ProgressEvent
	completed := make(chan ProgressEvent, 1)

	require.NoError(t, Subscribe(ctx, bridge, ProgressUpdated, func(_ context.Context, _ string, p ProgressEvent) error {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, p)
		return nil
	}))
	require.NoError(t, Subscribe(ctx, bridge, ProgressCompleted, func(_ context.Context, runID string, p ProgressEvent) error {
		assert.Equal(t, "run-42", runID)
		completed <- p
		return nil
	}))

	obs := NewProgressObserver(ctx, bridge, "run-42", nil)
	obs.Progress(pipeline.Progress{Processed: 10, Total: 20})
	obs.Done(pipeline.Progress{Processed: 20, Discarded: 2, Total: 20, Cues: 15})

	select {
	case p := <-completed:
		assert.Equal(t, ProgressEvent{Processed: 20, Discarded: 2, Total: 20, Cues: 15, Final: true}, p)
	case <-time.After(time.Second):
		t.Fatal("completion was not published")
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) == 1 && updates[0].Processed == 10 && !updates[0].Final
	}, time.Second, 5*time.Millisecond)
}
