package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	bridge := NewWatermillBridge(tp.Tracer("test"))
	defer bridge.Close()

	handled := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		handled <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:   "test.topic",
		RunID:   "run-1",
		Payload: []byte(`{"processed": 10}`),
	}))

	select {
	case msg := <-handled:
		assert.Equal(t, "run-1", msg.RunID)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}

	require.Eventually(t, func() bool {
		names := map[string]bool{}
		for _, s := range recorder.Ended() {
			names[s.Name()] = true
		}
		return names["pubsub.publish.test.topic"] && names["pubsub.process.test.topic"]
	}, time.Second, 5*time.Millisecond)
}

func TestSetupOTel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, cleanup, err := SetupOTel(ctx, TracingConfig{Enabled: false})
		require.NoError(t, err)
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "test")
		span.End()
		cleanup()
	})

	t.Run("enabled tracing", func(t *testing.T) {
		config := DefaultTracingConfig()
		config.Enabled = true
		config.ZipkinURL = "http://invalid-url:9411/api/v2/spans"

		tracer, cleanup, err := SetupOTel(ctx, config)
		require.NoError(t, err)
		require.NotNil(t, tracer)
		cleanup()
	})
}

func TestLoadTracingConfigFromEnv(t *testing.T) {
	t.Setenv("CHATSUBS_TRACING_ENABLED", "true")
	t.Setenv("CHATSUBS_TRACING_SERVICE_NAME", "subs-test")

	config := LoadTracingConfigFromEnv()
	assert.True(t, config.Enabled)
	assert.Equal(t, "subs-test", config.ServiceName)
	assert.Equal(t, DefaultTracingConfig().ZipkinURL, config.ZipkinURL)
}
