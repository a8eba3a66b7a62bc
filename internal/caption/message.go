// Package caption holds the chat line and subtitle cue model shared by the
// rendering engines, together with the line algebra (shave/keep) the
// scrolling and accumulating layouts are computed with.
package caption

import (
	"strings"
	"time"
)

// LineBreak is the hard-newline marker inside a message body.
const LineBreak = "\n"

// Message is one normalized chat line. It is a value: shaving returns a new
// Message and never touches the receiver.
type Message struct {
	Offset    time.Duration
	Author    string
	Moderator bool
	Color     string
	Body      string
	// Braille marks braille art. Art is drawn below a separate author line.
	Braille bool
}

// LineCount returns the number of display lines the message occupies.
func (m Message) LineCount() int {
	if m.Author == "" && m.Body == "" {
		return 0
	}
	n := strings.Count(m.Body, LineBreak) + 1
	if m.hasAuthorLine() {
		n++
	}
	return n
}

// BodyLines splits the body at its hard newlines.
func (m Message) BodyLines() []string {
	if m.Body == "" {
		return nil
	}
	return strings.Split(m.Body, LineBreak)
}

func (m Message) hasAuthorLine() bool {
	return m.Author != "" && m.Braille
}

// ShaveKind tells the three outcomes of a shave apart.
type ShaveKind int

const (
	// Remainder means some lines survived.
	Remainder ShaveKind = iota
	// Empty means the message is still present but holds no text.
	Empty
	// Consumed means every line was removed.
	Consumed
)

func (k ShaveKind) String() string {
	switch k {
	case Remainder:
		return "remainder"
	case Empty:
		return "empty"
	case Consumed:
		return "consumed"
	}
	return "unknown"
}

// ShaveResult is the outcome of Message.ShaveTop or Message.ShaveBottom.
// Message is the zero value when Kind is Consumed.
type ShaveResult struct {
	Kind    ShaveKind
	Message Message
}

// Present reports whether a message slot survived the shave.
func (r ShaveResult) Present() bool {
	return r.Kind != Consumed
}

func consumed() ShaveResult {
	return ShaveResult{Kind: Consumed}
}

func survivor(m Message) ShaveResult {
	if m.Author == "" && m.Body == "" {
		return ShaveResult{Kind: Empty, Message: m}
	}
	return ShaveResult{Kind: Remainder, Message: m}
}

// ShaveTop removes the first n display lines.
func (m Message) ShaveTop(n int) ShaveResult {
	if n <= 0 {
		return survivor(m)
	}
	if n >= m.LineCount() {
		return consumed()
	}

	out := m
	if m.hasAuthorLine() {
		out.Author = ""
		n--
		if n == 0 {
			return survivor(out)
		}
	} else {
		// The author prefix is drawn on the first body line.
		out.Author = ""
	}

	idx := nthIndex(out.Body, n)
	out.Body = out.Body[idx+len(LineBreak):]
	return survivor(out)
}

// ShaveBottom removes the last n display lines.
func (m Message) ShaveBottom(n int) ShaveResult {
	if n <= 0 {
		return survivor(m)
	}
	if n >= m.LineCount() {
		return consumed()
	}

	out := m
	bodyLines := strings.Count(m.Body, LineBreak) + 1
	if n >= bodyLines {
		// Only the separate author line of a braille message is left.
		out.Body = ""
		out.Braille = false
		return survivor(out)
	}

	idx := nthLastIndex(out.Body, n)
	out.Body = out.Body[:idx]
	return survivor(out)
}

// nthIndex returns the byte offset of the n-th LineBreak counted from the start.
func nthIndex(s string, n int) int {
	pos := -len(LineBreak)
	for i := 0; i < n; i++ {
		next := strings.Index(s[pos+len(LineBreak):], LineBreak)
		if next < 0 {
			return len(s)
		}
		pos += len(LineBreak) + next
	}
	return pos
}

// nthLastIndex returns the byte offset of the n-th LineBreak counted from the end.
func nthLastIndex(s string, n int) int {
	end := len(s)
	pos := end
	for i := 0; i < n; i++ {
		pos = strings.LastIndex(s[:end], LineBreak)
		if pos < 0 {
			return 0
		}
		end = pos
	}
	return pos
}
