package writer

import (
	"bytes"
	"strings"

	"github.com/nfrund/chatsubs/internal/caption"
)

// transcriptEncoder writes one "clock author: text" line per message.
// Braille art keeps its own lines below the author.
type transcriptEncoder struct{}

func (transcriptEncoder) Header(*bytes.Buffer) {}

func (transcriptEncoder) Encode(buf *bytes.Buffer, seq int, c *caption.Cue) int {
	for _, m := range c.Messages() {
		buf.WriteString(caption.FormatClock(m.Offset))
		buf.WriteByte(' ')
		if m.Author != "" {
			buf.WriteString(m.Author)
			buf.WriteString(": ")
		}
		if m.Braille {
			buf.WriteByte('\n')
			buf.WriteString(m.Body)
		} else {
			buf.WriteString(strings.ReplaceAll(m.Body, caption.LineBreak, " "))
		}
		buf.WriteByte('\n')
		seq++
	}
	return seq
}
