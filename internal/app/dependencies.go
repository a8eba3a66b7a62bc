package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/nfrund/chatsubs/internal/config"
	"github.com/nfrund/chatsubs/internal/pubsub"
	"github.com/nfrund/chatsubs/internal/storage"
)

// Dependencies holds the core services a conversion needs.
// This struct is built once by the entrypoint and shared by every run.
type Dependencies struct {
	Config *config.Config
	Store  storage.Store
	// Publisher receives progress events; nil disables them.
	Publisher pubsub.Publisher
	// Stdout is the sink used when the output path is "-".
	Stdout io.Writer
	Logger *slog.Logger
}

// Services bundles Dependencies with the bus so callers can subscribe to
// progress events.
type Services struct {
	Dependencies
	Bus *pubsub.WatermillBridge
}

// NewServices wires the production services: the OS filesystem, the
// in-memory progress bus and, when enabled in the environment, tracing of
// bus traffic. The returned cleanup function releases them.
func NewServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, func(), error) {
	tracer, shutdownTracing, err := pubsub.SetupOTel(ctx, pubsub.LoadTracingConfigFromEnv())
	if err != nil {
		return nil, nil, err
	}
	bus := pubsub.NewWatermillBridge(tracer)

	cleanup := func() {
		if err := bus.Close(); err != nil {
			logger.Warn("Failed to close progress bus", "error", err)
		}
		shutdownTracing()
	}

	return &Services{
		Dependencies: Dependencies{
			Config:    cfg,
			Store:     storage.NewAferoStore(afero.NewOsFs()),
			Publisher: bus,
			Stdout:    os.Stdout,
			Logger:    logger,
		},
		Bus: bus,
	}, cleanup, nil
}
