package writer

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
)

// WebVTT has no font element; colored mentions fall back to plain text.
var fontTag = regexp.MustCompile(`</?font[^>]*>`)

type vttEncoder struct {
	style Style
}

func (e *vttEncoder) Header(buf *bytes.Buffer) {
	buf.WriteString("WEBVTT\n\n")
}

func (e *vttEncoder) Encode(buf *bytes.Buffer, seq int, c *caption.Cue) int {
	lines := e.style.cueLines(c, e.name)
	if len(lines) == 0 {
		return seq
	}
	for i, l := range lines {
		lines[i] = fontTag.ReplaceAllString(l, "")
	}

	buf.WriteString(strconv.Itoa(seq))
	buf.WriteByte('\n')
	buf.WriteString(vttTimestamp(c.ShowTime))
	buf.WriteString(" --> ")
	buf.WriteString(vttTimestamp(c.HideTime))
	if e.style.Positioned {
		buf.WriteString(e.settings(c.Row))
	}
	buf.WriteByte('\n')
	joinLines(buf, lines)
	buf.WriteByte('\n')
	return seq + 1
}

func (e *vttEncoder) name(m caption.Message) string {
	return bold(m.Author, e.style.Bold)
}

func (e *vttEncoder) settings(row int) string {
	line, pos := 0, 0
	if e.style.FrameHeight > 0 {
		line = row * 100 / e.style.FrameHeight
	}
	if e.style.FrameWidth > 0 {
		pos = e.style.X * 100 / e.style.FrameWidth
	}
	return fmt.Sprintf(" line:%d%% position:%d%% align:start", line, pos)
}

func vttTimestamp(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
