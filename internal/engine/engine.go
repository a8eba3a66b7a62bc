// Package engine holds the rendering strategies that turn normalized chat
// messages into subtitle cues: instant captions, scrolling chat,
// accumulating chat and the plain transcript.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/layout"
)

// Sink receives finalized cue batches in output order. Cues handed to a
// sink are never touched by the engine again.
type Sink interface {
	Submit(ctx context.Context, cues []*caption.Cue) error
}

// Engine is the contract shared by every strategy. It matches the consumer
// side of the ingestion pipeline.
type Engine interface {
	// Consume takes the next messages in time order.
	Consume(ctx context.Context, msgs []caption.Message) error
	// Finish flushes every remaining cue.
	Finish(ctx context.Context) error
	// CueCount is the number of cues handed to the sink so far.
	CueCount() int
}

// Options configure an engine.
type Options struct {
	Strategy domain.Strategy
	// FlushThreshold is the number of pending cues that triggers a flush.
	FlushThreshold int
	// CueDuration is how long an instant caption stays up and how long the
	// last accumulated cue or a transcript line lasts.
	CueDuration time.Duration
	// StepDuration is the time one scrolling step stays on screen.
	StepDuration time.Duration
	Direction    domain.Direction
	Geometry     layout.Geometry
	Logger       *slog.Logger
}

// New creates the engine for opts.Strategy writing to sink.
func New(opts Options, sink Sink) (Engine, error) {
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = 200
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	b := &base{sink: sink, threshold: opts.FlushThreshold, logger: opts.Logger}

	switch opts.Strategy {
	case domain.StrategyInstant:
		if opts.CueDuration <= 0 {
			return nil, fmt.Errorf("%w: cue duration must be positive", domain.ErrInvalidSettings)
		}
		return newInstant(b, opts.CueDuration), nil
	case domain.StrategyScroll:
		if opts.StepDuration <= 0 {
			return nil, fmt.Errorf("%w: step duration must be positive", domain.ErrInvalidSettings)
		}
		if opts.Geometry.Rows <= 0 {
			return nil, fmt.Errorf("%w: chat area has no rows", domain.ErrInvalidSettings)
		}
		return newScrolling(b, opts.Geometry, opts.Direction, opts.StepDuration), nil
	case domain.StrategyAccumulate:
		if opts.CueDuration <= 0 {
			return nil, fmt.Errorf("%w: cue duration must be positive", domain.ErrInvalidSettings)
		}
		if opts.Geometry.Rows <= 0 {
			return nil, fmt.Errorf("%w: chat area has no rows", domain.ErrInvalidSettings)
		}
		return newAccumulating(b, opts.Geometry, opts.Direction, opts.CueDuration), nil
	case domain.StrategyTranscript:
		return newTranscript(b, opts.CueDuration), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, opts.Strategy)
	}
}

// base carries the sink bookkeeping every engine shares.
type base struct {
	sink      Sink
	threshold int
	emitted   int
	logger    *slog.Logger
}

func (b *base) CueCount() int {
	return b.emitted
}

func (b *base) emit(ctx context.Context, cues []*caption.Cue) error {
	if len(cues) == 0 {
		return nil
	}
	if err := b.sink.Submit(ctx, cues); err != nil {
		return fmt.Errorf("failed to submit %d cues: %w", len(cues), err)
	}
	b.emitted += len(cues)
	b.logger.Debug("Cues flushed", "count", len(cues), "total", b.emitted)
	return nil
}
