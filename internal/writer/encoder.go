package writer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
)

// Encoder serializes cues into a buffer.
type Encoder interface {
	// Header writes the output preamble, if the format has one.
	Header(buf *bytes.Buffer)
	// Encode appends c numbered seq and returns the next sequence number.
	Encode(buf *bytes.Buffer, seq int, c *caption.Cue) int
}

// Style holds the presentation settings shared by the encoders.
type Style struct {
	ShowTimestamp  bool
	DefaultColor   string
	ModeratorColor string
	Bold           bool
	// Positioned places each cue at its row; instant captions and
	// transcripts leave placement to the player.
	Positioned bool
	X          int
	// FrameWidth and FrameHeight convert pixel positions to percentages.
	FrameWidth  int
	FrameHeight int
}

// NewEncoder returns the encoder for format.
func NewEncoder(format domain.Format, style Style) (Encoder, error) {
	switch format {
	case domain.FormatSRT:
		return &srtEncoder{style: style}, nil
	case domain.FormatVTT:
		return &vttEncoder{style: style}, nil
	case domain.FormatTranscript:
		return &transcriptEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
	}
}

// authorColor picks the color an author's name is drawn in.
func (s Style) authorColor(m caption.Message) string {
	switch {
	case m.Moderator && s.ModeratorColor != "":
		return s.ModeratorColor
	case m.Color != "":
		return m.Color
	default:
		return s.DefaultColor
	}
}

// lines renders m as display lines. name styles the author name.
func (s Style) lines(m caption.Message, name func(caption.Message) string) []string {
	body := m.BodyLines()
	if m.Author == "" {
		return body
	}

	author := name(m)
	clock := ""
	if s.ShowTimestamp {
		clock = caption.FormatClock(m.Offset) + " "
	}
	if m.Braille {
		return append([]string{clock + author + ":"}, body...)
	}
	if len(body) == 0 {
		return []string{clock + author + ":"}
	}
	out := append([]string(nil), body...)
	out[0] = clock + author + ": " + out[0]
	return out
}

func (s Style) cueLines(c *caption.Cue, name func(caption.Message) string) []string {
	var out []string
	for _, m := range c.Messages() {
		out = append(out, s.lines(m, name)...)
	}
	return out
}

func bold(text string, on bool) string {
	if !on {
		return text
	}
	return "<b>" + text + "</b>"
}

func joinLines(buf *bytes.Buffer, lines []string) {
	buf.WriteString(strings.Join(lines, "\n"))
	buf.WriteByte('\n')
}
