package domain

import (
	"strings"
	"time"
)

// Fragment is one run of a chat message body as classified by the log parser.
// Emoticon fragments carry the emoticon's name as their text.
type Fragment struct {
	Text     string `json:"text"`
	Emoticon bool   `json:"emoticon,omitempty"`
}

// ChatEvent is a single entry of a chat replay log. Events are produced once
// by the log reader and never modified afterwards.
type ChatEvent struct {
	// Offset is the time since stream start. Negative offsets are discarded.
	Offset    time.Duration
	Author    string
	Moderator bool
	// Color is the author's display color as "#rrggbb", empty when unknown.
	Color string
	// Body is the raw message text.
	Body string
	// Fragments holds the parser's split of Body into text and emoticon runs.
	Fragments []Fragment
}

// TextOnly rebuilds the body from the non-emoticon fragments only.
// Events without fragments return Body unchanged.
func (e ChatEvent) TextOnly() string {
	if len(e.Fragments) == 0 {
		return e.Body
	}
	var b strings.Builder
	for _, f := range e.Fragments {
		if !f.Emoticon {
			b.WriteString(f.Text)
		}
	}
	return b.String()
}

// EmoticonNames returns the names of the emoticon fragments in order.
func (e ChatEvent) EmoticonNames() []string {
	var names []string
	for _, f := range e.Fragments {
		if f.Emoticon {
			names = append(names, strings.TrimSpace(f.Text))
		}
	}
	return names
}
