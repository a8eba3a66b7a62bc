package writer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
)

type failingWriter struct {
	okWrites int
	buf      bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.okWrites == 0 {
		return 0, errors.New("disk full")
	}
	w.okWrites--
	return w.buf.Write(p)
}

func cue(show, hide time.Duration, row int, msgs ...caption.Message) *caption.Cue {
	return caption.NewCue(show, hide, row, msgs...)
}

func TestSRTTimestamp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01,500"},
		{time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, "01:02:03,004"},
		{101 * time.Hour, "101:00:00,000"},
		{-time.Second, "00:00:00,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, srtTimestamp(tt.in))
	}
	assert.Equal(t, "01:02:03.004", vttTimestamp(time.Hour+2*time.Minute+3*time.Second+4*time.Millisecond))
}

func TestSRTEncoder(t *testing.T) {
	enc, err := NewEncoder(domain.FormatSRT, Style{
		DefaultColor:   "#ffffff",
		ModeratorColor: "#00ff00",
		Bold:           true,
		Positioned:     true,
		X:              20,
	})
	require.NoError(t, err)

	c := cue(time.Second, 3*time.Second, 110,
		caption.Message{Author: "alice", Body: "hello\nworld", Color: "#ff0000"},
		caption.Message{Author: "mod", Moderator: true, Color: "#ff0000", Body: "behave"},
		caption.Message{Body: "tail line"},
	)
	var buf bytes.Buffer
	next := enc.Encode(&buf, 7, c)

	assert.Equal(t, 8, next)
	want := "7\n" +
		"00:00:01,000 --> 00:00:03,000\n" +
		`{\an7\pos(20,110)}<font color="#ff0000"><b>alice</b></font>: hello` + "\n" +
		"world\n" +
		`<font color="#00ff00"><b>mod</b></font>: behave` + "\n" +
		"tail line\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestSRTEncoder_BrailleAndTimestamps(t *testing.T) {
	enc, err := NewEncoder(domain.FormatSRT, Style{ShowTimestamp: true})
	require.NoError(t, err)

	c := cue(0, time.Second, 0,
		caption.Message{Offset: 65 * time.Second, Author: "artist", Body: "⣿⣿\n⣀⣀", Braille: true},
	)
	var buf bytes.Buffer
	enc.Encode(&buf, 1, c)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,000\n1:05 artist:\n⣿⣿\n⣀⣀\n\n", buf.String())
}

func TestVTTEncoder(t *testing.T) {
	enc, err := NewEncoder(domain.FormatVTT, Style{
		Positioned:  true,
		X:           960,
		FrameWidth:  1920,
		FrameHeight: 1000,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	enc.Header(&buf)
	enc.Encode(&buf, 1, cue(0, 1500*time.Millisecond, 250,
		caption.Message{Author: "a", Color: "#123456", Body: `hi <font color="#00ff00">bob</font>`}))

	assert.Equal(t, "WEBVTT\n\n1\n00:00:00.000 --> 00:00:01.500 line:25% position:50% align:start\na: hi bob\n\n", buf.String())
}

func TestTranscriptEncoder(t *testing.T) {
	enc, err := NewEncoder(domain.FormatTranscript, Style{})
	require.NoError(t, err)

	var buf bytes.Buffer
	next := enc.Encode(&buf, 1, cue(0, 0, 0,
		caption.Message{Offset: 3723 * time.Second, Author: "bob", Body: "wrapped\nline"},
		caption.Message{Offset: 5 * time.Second, Body: "system notice"},
	))
	assert.Equal(t, 3, next)
	assert.Equal(t, "1:02:03 bob: wrapped line\n0:05 system notice\n", buf.String())
}

func TestNewEncoder_Unknown(t *testing.T) {
	_, err := NewEncoder("ass", Style{})
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestStreamWriter_OrderAndSequence(t *testing.T) {
	enc, err := NewEncoder(domain.FormatSRT, Style{})
	require.NoError(t, err)

	var out bytes.Buffer
	w := New(&out, enc, 2, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		show := time.Duration(i) * time.Second
		require.NoError(t, w.Submit(ctx, []*caption.Cue{
			cue(show, show+time.Second, 0, caption.Message{Body: "a"}),
			cue(show, show+time.Second, 0, caption.Message{Body: "b"}),
		}))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 10, w.Written())

	blocks := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n\n"))
	require.Len(t, blocks, 10)
	for i, b := range blocks {
		assert.True(t, bytes.HasPrefix(b, []byte(strconv.Itoa(i+1)+"\n")), "block %d: %q", i, b)
	}

	assert.ErrorIs(t, w.Submit(ctx, nil), domain.ErrWriterClosed)
	assert.ErrorIs(t, w.Close(), domain.ErrWriterClosed)
}

func TestStreamWriter_WrittenSkipsEmptyCues(t *testing.T) {
	for _, format := range []domain.Format{domain.FormatSRT, domain.FormatVTT, domain.FormatTranscript} {
		t.Run(string(format), func(t *testing.T) {
			enc, err := NewEncoder(format, Style{})
			require.NoError(t, err)

			var out bytes.Buffer
			w := New(&out, enc, 1, nil)
			require.NoError(t, w.Submit(context.Background(), []*caption.Cue{
				cue(0, time.Second, 0, caption.Message{Author: "a", Body: "one"}),
				cue(time.Second, 2*time.Second, 0),
				cue(2*time.Second, 3*time.Second, 0, caption.Message{Author: "b", Body: "two"}),
			}))
			require.NoError(t, w.Close())

			assert.Equal(t, 2, w.Written(), "the cue without lines is not written")
			assert.Contains(t, out.String(), "one")
			assert.Contains(t, out.String(), "two")
		})
	}
}

func TestStreamWriter_WriteFailure(t *testing.T) {
	enc, err := NewEncoder(domain.FormatTranscript, Style{})
	require.NoError(t, err)

	sink := &failingWriter{okWrites: 1}
	w := New(sink, enc, 1, nil)
	ctx := context.Background()

	require.NoError(t, w.Submit(ctx, []*caption.Cue{cue(0, 0, 0, caption.Message{Body: "first"})}))
	_ = w.Submit(ctx, []*caption.Cue{cue(0, 0, 0, caption.Message{Body: "second"})})
	_ = w.Submit(ctx, []*caption.Cue{cue(0, 0, 0, caption.Message{Body: "third"})})

	err = w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "0:00 first\n", sink.buf.String(), "nothing after the failed batch is written")
	assert.Equal(t, 1, w.Written())
}

func TestStreamWriter_ReportsEarlierFailure(t *testing.T) {
	enc, err := NewEncoder(domain.FormatVTT, Style{})
	require.NoError(t, err)

	w := New(&failingWriter{}, enc, 1, nil)
	require.Eventually(t, func() bool { return w.failure() != nil }, time.Second, time.Millisecond,
		"the header write fails immediately")

	err = w.Submit(context.Background(), []*caption.Cue{cue(0, 1, 0, caption.Message{Body: "x"})})
	assert.ErrorContains(t, err, "failed to write header")
	assert.Error(t, w.Close())
}

func TestStreamWriter_FlushesBufferedOutput(t *testing.T) {
	enc, err := NewEncoder(domain.FormatTranscript, Style{})
	require.NoError(t, err)

	var out bytes.Buffer
	buffered := bufio.NewWriter(&out)
	w := New(buffered, enc, 1, nil)
	require.NoError(t, w.Submit(context.Background(), []*caption.Cue{cue(0, 0, 0, caption.Message{Author: "a", Body: "x"})}))
	require.NoError(t, w.Close())
	assert.Equal(t, "0:00 a: x\n", out.String())
}

func TestStreamWriter_SubmitHonorsContext(t *testing.T) {
	enc, err := NewEncoder(domain.FormatTranscript, Style{})
	require.NoError(t, err)

	block := make(chan struct{})
	w := New(blockingWriter{block}, enc, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	batch := []*caption.Cue{cue(0, 0, 0, caption.Message{Body: "x"})}
	require.NoError(t, w.Submit(ctx, batch)) // taken by the write goroutine, blocks in Write
	require.Eventually(t, func() bool { return len(w.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, w.Submit(ctx, batch)) // fills the queue

	cancel()
	assert.ErrorIs(t, w.Submit(ctx, batch), context.Canceled)

	close(block)
	require.NoError(t, w.Close())
}

type blockingWriter struct{ block chan struct{} }

func (b blockingWriter) Write(p []byte) (int, error) {
	<-b.block
	return len(p), nil
}
