package engine

import (
	"context"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
)

// transcript writes one cue per message in input order.
type transcript struct {
	*base
	hold    time.Duration
	pending []*caption.Cue
}

func newTranscript(b *base, hold time.Duration) *transcript {
	return &transcript{base: b, hold: hold}
}

func (e *transcript) Consume(ctx context.Context, msgs []caption.Message) error {
	for _, m := range msgs {
		e.pending = append(e.pending, caption.NewCue(m.Offset, m.Offset+e.hold, 0, m))
	}
	if len(e.pending) < e.threshold {
		return nil
	}
	return e.Finish(ctx)
}

func (e *transcript) Finish(ctx context.Context) error {
	ready := e.pending
	e.pending = nil
	return e.emit(ctx, ready)
}
