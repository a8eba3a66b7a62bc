// Package writer serializes finalized cue batches to the output sink on a
// background goroutine so that rendering never waits on the disk.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
)

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// StreamWriter writes cue batches in submission order. Batches queue up to
// a fixed depth; when the queue is full Submit blocks. Each batch is encoded
// in full before any of it reaches the sink, so a failing batch never leaves
// a partial cue behind, and once a write fails nothing more is written.
type StreamWriter struct {
	out    io.Writer
	enc    Encoder
	logger *slog.Logger

	queue chan []*caption.Cue
	done  chan struct{}

	// mu guards closed; Submit holds it shared while sending so Close
	// cannot close the queue under it.
	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error

	// Owned by the write goroutine until done is closed.
	seq     int
	written int
}

// New starts a StreamWriter on out. The encoder's header is written first.
func New(out io.Writer, enc Encoder, queueSize int, logger *slog.Logger) *StreamWriter {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &StreamWriter{
		out:    out,
		enc:    enc,
		logger: logger,
		queue:  make(chan []*caption.Cue, queueSize),
		done:   make(chan struct{}),
		seq:    1,
	}
	go w.loop()
	return w
}

// Submit queues a batch for writing. It returns the error of an earlier
// failed write, if any, so the caller can stop producing output.
func (w *StreamWriter) Submit(ctx context.Context, cues []*caption.Cue) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return domain.ErrWriterClosed
	}
	if err := w.failure(); err != nil {
		return err
	}
	select {
	case w.queue <- cues:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for every queued batch to be written and returns the first
// write error.
func (w *StreamWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.ErrWriterClosed
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
	return w.failure()
}

// Written returns the number of cues written. It is only meaningful after
// Close has returned.
func (w *StreamWriter) Written() int {
	<-w.done
	return w.written
}

func (w *StreamWriter) loop() {
	defer close(w.done)

	var buf bytes.Buffer
	w.enc.Header(&buf)
	if buf.Len() > 0 {
		if _, err := w.out.Write(buf.Bytes()); err != nil {
			w.fail(fmt.Errorf("failed to write header: %w", err))
		}
	}

	for batch := range w.queue {
		if w.failure() != nil {
			// Drain so blocked submitters are released.
			continue
		}
		buf.Reset()
		seq, n := w.seq, 0
		for _, c := range batch {
			size := buf.Len()
			seq = w.enc.Encode(&buf, seq, c)
			if buf.Len() > size {
				n++
			}
		}
		if _, err := w.out.Write(buf.Bytes()); err != nil {
			w.fail(fmt.Errorf("failed to write %d cues: %w", n, err))
			continue
		}
		w.seq = seq
		w.written += n
	}

	if f, ok := w.out.(flusher); ok && w.failure() == nil {
		if err := f.Flush(); err != nil {
			w.fail(fmt.Errorf("failed to flush output: %w", err))
		}
	}
}

func (w *StreamWriter) fail(err error) {
	w.logger.Error("Cue writer failed", "error", err)
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *StreamWriter) failure() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
