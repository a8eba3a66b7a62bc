package engine

import (
	"context"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
)

// instant shows every message for a fixed duration starting at its
// timestamp. Messages sharing a timestamp share a cue, and overlapping cues
// are merged into disjoint ones before they are written.
type instant struct {
	*base
	duration time.Duration

	pending []*caption.Cue
	byShow  map[time.Duration]*caption.Cue
	latest  time.Duration
}

func newInstant(b *base, d time.Duration) *instant {
	return &instant{
		base:     b,
		duration: d,
		byShow:   make(map[time.Duration]*caption.Cue),
	}
}

func (e *instant) Consume(ctx context.Context, msgs []caption.Message) error {
	for _, m := range msgs {
		e.latest = max(e.latest, m.Offset)
		if c, ok := e.byShow[m.Offset]; ok {
			c.Append(m)
			continue
		}
		c := caption.NewCue(m.Offset, m.Offset+e.duration, 0, m)
		e.pending = append(e.pending, c)
		e.byShow[m.Offset] = c
	}
	if len(e.pending) < e.threshold {
		return nil
	}
	return e.flush(ctx, false)
}

func (e *instant) Finish(ctx context.Context) error {
	return e.flush(ctx, true)
}

// flush writes the merged cues that end by the latest timestamp seen.
// Later messages start at or after that timestamp, so those cues can no
// longer change. Cues still showing at that point are kept, clipped to start
// there, so merging them again with later cues cuts and fills the rest of
// the run exactly as a single merge at the end would.
func (e *instant) flush(ctx context.Context, final bool) error {
	SortByShow(e.pending)
	merged := Merge(e.pending)
	if final {
		e.pending = nil
		clear(e.byShow)
		return e.emit(ctx, merged)
	}

	n := 0
	for n < len(merged) && merged[n].HideTime <= e.latest {
		n++
	}
	if n == 0 {
		return nil
	}

	kept := make([]*caption.Cue, 0, len(e.pending))
	clear(e.byShow)
	for _, c := range e.pending {
		if c.HideTime <= e.latest {
			continue
		}
		if c.ShowTime < e.latest {
			c = c.Clone()
			c.ShowTime = e.latest
		} else {
			e.byShow[c.ShowTime] = c
		}
		kept = append(kept, c)
	}
	e.pending = kept
	return e.emit(ctx, merged[:n])
}
