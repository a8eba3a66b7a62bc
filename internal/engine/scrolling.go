package engine

import (
	"context"
	"sort"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/layout"
)

// scrolling rolls each message line by line across the chat area. A message
// of L lines on a screen of R rows takes R+L-1 steps of one step duration
// each: it rolls in from the entering edge, then out over the leaving edge.
type scrolling struct {
	*base
	geom layout.Geometry
	dir  domain.Direction
	step time.Duration

	// nextSlot is the earliest time the next message may start rolling in.
	// Every step shown before it is final.
	nextSlot time.Duration
	pending  []*caption.Cue
}

func newScrolling(b *base, geom layout.Geometry, dir domain.Direction, step time.Duration) *scrolling {
	if dir != domain.TopToBottom {
		dir = domain.BottomToTop
	}
	return &scrolling{base: b, geom: geom, dir: dir, step: step}
}

func (e *scrolling) Consume(ctx context.Context, msgs []caption.Message) error {
	for _, m := range msgs {
		if err := e.add(m); err != nil {
			return err
		}
	}
	if len(e.pending) < e.threshold {
		return nil
	}
	return e.flush(ctx, false)
}

func (e *scrolling) Finish(ctx context.Context) error {
	return e.flush(ctx, true)
}

func (e *scrolling) add(m caption.Message) error {
	lines := m.LineCount()
	if lines == 0 {
		return nil
	}
	rows := e.geom.Rows
	t0 := max(m.Offset, e.nextSlot)

	for n := 1; n <= rows+lines-1; n++ {
		lo, hi, slot := e.visible(n, lines)
		show := t0 + time.Duration(n-1)*e.step
		c := caption.NewCue(show, show+e.step, e.geom.SlotRow(slot), m)

		if e.dir == domain.BottomToTop {
			c.KeepTop(hi)
			c.ShaveTop(lo)
		} else {
			c.KeepBottom(lines - lo)
			c.ShaveBottom(lines - hi)
		}

		if err := e.check(c, m, n, hi-lo); err != nil {
			return err
		}
		e.pending = append(e.pending, c)
	}

	e.nextSlot = t0 + time.Duration(lines)*e.step
	return nil
}

// visible returns the message lines [lo, hi) on screen at step n and the
// slot of line lo, counting slots from the top.
func (e *scrolling) visible(n, lines int) (lo, hi, slot int) {
	rows := e.geom.Rows
	if e.dir == domain.BottomToTop {
		// Line i sits at slot rows-n+i.
		lo, hi = max(0, n-rows), min(lines, n)
		return lo, hi, rows - n + lo
	}
	// Line i sits at slot n-lines+i.
	lo, hi = max(0, lines-n), min(lines, rows+lines-n)
	return lo, hi, n - lines + lo
}

func (e *scrolling) check(c *caption.Cue, m caption.Message, n, want int) error {
	reason := ""
	switch {
	case want <= 0:
		reason = "step has no visible lines"
	case c.Len() == 0:
		reason = "step cue is empty"
	case c.EmptySlots() > 0:
		reason = "step cue holds a consumed message"
	case c.LineCount() != want:
		reason = "step cue has the wrong number of lines"
	default:
		return nil
	}
	return &domain.LayoutError{
		Author:       m.Author,
		Body:         m.Body,
		Offset:       m.Offset,
		Direction:    e.dir,
		Lines:        m.LineCount(),
		Rows:         e.geom.Rows,
		Step:         n,
		StepDuration: e.step,
		Pitch:        e.geom.Pitch,
		Want:         want,
		Got:          c.LineCount(),
		Reason:       reason,
	}
}

// flush writes the steps shown before nextSlot, in paint order: by show time
// and then by row, top row first when scrolling up.
func (e *scrolling) flush(ctx context.Context, final bool) error {
	up := e.dir == domain.BottomToTop
	sort.SliceStable(e.pending, func(i, j int) bool {
		a, b := e.pending[i], e.pending[j]
		if a.ShowTime != b.ShowTime {
			return a.ShowTime < b.ShowTime
		}
		if up {
			return a.Row < b.Row
		}
		return a.Row > b.Row
	})

	n := len(e.pending)
	if !final {
		n = sort.Search(len(e.pending), func(i int) bool {
			return e.pending[i].ShowTime >= e.nextSlot
		})
	}
	ready := e.pending[:n]
	e.pending = append([]*caption.Cue(nil), e.pending[n:]...)
	return e.emit(ctx, ready)
}
