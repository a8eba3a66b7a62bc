package engine

import (
	"context"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/layout"
)

// accumulating keeps a static stack of the most recent chat lines. Every new
// timestamp starts a cue holding the previous stack plus the new message and
// closes the previous cue, so the timeline has no gaps.
type accumulating struct {
	*base
	geom layout.Geometry
	dir  domain.Direction
	hold time.Duration

	open    *caption.Cue
	pending []*caption.Cue
}

func newAccumulating(b *base, geom layout.Geometry, dir domain.Direction, hold time.Duration) *accumulating {
	if dir != domain.TopToBottom {
		dir = domain.BottomToTop
	}
	return &accumulating{base: b, geom: geom, dir: dir, hold: hold}
}

func (e *accumulating) Consume(ctx context.Context, msgs []caption.Message) error {
	for _, m := range msgs {
		e.add(m)
	}
	if len(e.pending) < e.threshold {
		return nil
	}
	return e.flush(ctx)
}

func (e *accumulating) Finish(ctx context.Context) error {
	if e.open != nil {
		e.open.HideTime = e.open.ShowTime + e.hold
		e.pending = append(e.pending, e.open)
		e.open = nil
	}
	return e.flush(ctx)
}

func (e *accumulating) add(m caption.Message) {
	if m.LineCount() == 0 {
		return
	}

	c := e.open
	switch {
	case c == nil:
		c = caption.NewCue(m.Offset, m.Offset+e.hold, 0)
	case m.Offset > c.ShowTime:
		next := c.Clone()
		next.ShowTime = m.Offset
		next.HideTime = m.Offset + e.hold
		c.HideTime = m.Offset
		e.pending = append(e.pending, c)
		c = next
	}
	// A message stamped at or before the open cue's show time joins it.

	if e.dir == domain.BottomToTop {
		c.Append(m)
		c.KeepBottom(e.geom.Rows)
		c.Row = e.geom.StackRow(c.LineCount())
	} else {
		c.Prepend(m)
		c.KeepTop(e.geom.Rows)
		c.Row = e.geom.TopRow
	}
	e.open = c
}

func (e *accumulating) flush(ctx context.Context) error {
	ready := e.pending
	e.pending = nil
	return e.emit(ctx, ready)
}
