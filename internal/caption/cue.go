package caption

import "time"

// Cue is one subtitle block: an ordered list of messages (top to bottom)
// shown between ShowTime and HideTime with its top line at Row.
type Cue struct {
	ShowTime time.Duration
	HideTime time.Duration
	Row      int

	messages []Message
	// lines caches LineCount; -1 means stale.
	lines int
}

// NewCue creates a cue holding msgs in display order.
func NewCue(show, hide time.Duration, row int, msgs ...Message) *Cue {
	c := &Cue{
		ShowTime: show,
		HideTime: hide,
		Row:      row,
		messages: append([]Message(nil), msgs...),
		lines:    -1,
	}
	return c
}

// Messages returns a copy of the cue's messages in display order.
func (c *Cue) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// Len returns the number of message slots.
func (c *Cue) Len() int {
	return len(c.messages)
}

// Append adds m below the existing messages.
func (c *Cue) Append(m Message) {
	c.messages = append(c.messages, m)
	c.lines = -1
}

// Prepend adds m above the existing messages.
func (c *Cue) Prepend(m Message) {
	c.messages = append([]Message{m}, c.messages...)
	c.lines = -1
}

// LineCount returns the sum of the contained messages' line counts.
func (c *Cue) LineCount() int {
	if c.lines < 0 {
		n := 0
		for _, m := range c.messages {
			n += m.LineCount()
		}
		c.lines = n
	}
	return c.lines
}

// Duration is HideTime - ShowTime.
func (c *Cue) Duration() time.Duration {
	return c.HideTime - c.ShowTime
}

// Overlaps reports whether the half-open intervals [ShowTime, HideTime) intersect.
func (c *Cue) Overlaps(o *Cue) bool {
	return c.ShowTime < o.HideTime && o.ShowTime < c.HideTime
}

// Clone returns a deep copy that can be shaved independently.
func (c *Cue) Clone() *Cue {
	return &Cue{
		ShowTime: c.ShowTime,
		HideTime: c.HideTime,
		Row:      c.Row,
		messages: append([]Message(nil), c.messages...),
		lines:    c.lines,
	}
}

// EmptySlots counts message slots that hold no lines.
func (c *Cue) EmptySlots() int {
	n := 0
	for _, m := range c.messages {
		if m.LineCount() == 0 {
			n++
		}
	}
	return n
}

// ShaveTop removes the first n display lines, dropping whole messages while
// n covers them and splitting the boundary message.
func (c *Cue) ShaveTop(n int) {
	if n <= 0 {
		return
	}
	c.lines = -1
	for n > 0 && len(c.messages) > 0 {
		head := c.messages[0]
		if lc := head.LineCount(); n >= lc {
			c.messages = c.messages[1:]
			n -= lc
			continue
		}
		r := head.ShaveTop(n)
		if r.Present() {
			c.messages[0] = r.Message
		} else {
			c.messages = c.messages[1:]
		}
		n = 0
	}
}

// ShaveBottom removes the last n display lines.
func (c *Cue) ShaveBottom(n int) {
	if n <= 0 {
		return
	}
	c.lines = -1
	for n > 0 && len(c.messages) > 0 {
		last := len(c.messages) - 1
		tail := c.messages[last]
		if lc := tail.LineCount(); n >= lc {
			c.messages = c.messages[:last]
			n -= lc
			continue
		}
		r := tail.ShaveBottom(n)
		if r.Present() {
			c.messages[last] = r.Message
		} else {
			c.messages = c.messages[:last]
		}
		n = 0
	}
}

// KeepTop keeps only the first n display lines.
func (c *Cue) KeepTop(n int) {
	c.ShaveBottom(c.LineCount() - n)
}

// KeepBottom keeps only the last n display lines.
func (c *Cue) KeepBottom(n int) {
	c.ShaveTop(c.LineCount() - n)
}
