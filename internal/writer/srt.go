package writer

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/nfrund/chatsubs/internal/caption"
)

type srtEncoder struct {
	style Style
}

func (e *srtEncoder) Header(*bytes.Buffer) {}

func (e *srtEncoder) Encode(buf *bytes.Buffer, seq int, c *caption.Cue) int {
	lines := e.style.cueLines(c, e.name)
	if len(lines) == 0 {
		return seq
	}
	if e.style.Positioned {
		lines[0] = fmt.Sprintf(`{\an7\pos(%d,%d)}`, e.style.X, c.Row) + lines[0]
	}

	buf.WriteString(strconv.Itoa(seq))
	buf.WriteByte('\n')
	buf.WriteString(srtTimestamp(c.ShowTime))
	buf.WriteString(" --> ")
	buf.WriteString(srtTimestamp(c.HideTime))
	buf.WriteByte('\n')
	joinLines(buf, lines)
	buf.WriteByte('\n')
	return seq + 1
}

func (e *srtEncoder) name(m caption.Message) string {
	name := bold(m.Author, e.style.Bold)
	if color := e.style.authorColor(m); color != "" {
		name = `<font color="` + color + `">` + name + `</font>`
	}
	return name
}

// srtTimestamp formats d as HH:MM:SS,mmm. Hours grow past two digits.
func srtTimestamp(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func clockParts(d time.Duration) (h, m, s, ms int64) {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	ms = total % 1000
	total /= 1000
	return total / 3600, (total % 3600) / 60, total % 60, ms
}
