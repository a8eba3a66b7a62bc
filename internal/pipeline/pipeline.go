// Package pipeline streams chat events through the text normalizer in
// fixed-size chunks and hands the normalized messages, in input order, to a
// rendering engine. Normalization of the next chunk overlaps with the
// engine's work on the current one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nfrund/chatsubs/internal/caption"
	"github.com/nfrund/chatsubs/internal/domain"
)

// Source yields chat events in time order and returns io.EOF when exhausted.
type Source interface {
	Next() (domain.ChatEvent, error)
	// Total is the number of events the source will yield, or -1 if unknown.
	Total() int
}

// Normalizer converts one event into a message; ok is false for discards.
type Normalizer interface {
	Normalize(ev domain.ChatEvent) (msg caption.Message, ok bool)
}

// Consumer is the rendering engine fed by the pipeline.
type Consumer interface {
	Consume(ctx context.Context, msgs []caption.Message) error
	Finish(ctx context.Context) error
	CueCount() int
}

// Filter decides whether an event takes part in the run. Events it rejects
// are counted as discarded.
type Filter func(ev domain.ChatEvent) (keep bool, err error)

// Options tune chunking and concurrency.
type Options struct {
	ChunkSize int
	// Workers bounds the goroutines normalizing one chunk; they are only used
	// for chunks of at least ParallelThreshold events.
	Workers           int
	ParallelThreshold int
	ProgressInterval  time.Duration
	Filter            Filter
	Observer          Observer
	Logger            *slog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ChunkSize:         2000,
		Workers:           4,
		ParallelThreshold: 512,
		ProgressInterval:  250 * time.Millisecond,
	}
}

// Result summarizes a run.
type Result struct {
	Progress
	// Canceled is set when the run stopped because its context was canceled.
	Canceled bool
}

// Pipeline runs sources through a normalizer into a consumer.
type Pipeline struct {
	opts       Options
	normalizer Normalizer
	logger     *slog.Logger
}

// New creates a Pipeline.
func New(normalizer Normalizer, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = def.ParallelThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:       opts,
		normalizer: normalizer,
		logger:     logger,
	}
}

// chunk is one normalized slice of the input.
type chunk struct {
	index     int
	read      int
	discarded int
	messages  []caption.Message
}

// Run drives src through the normalizer into consumer. Cancellation of ctx
// is not an error: it ends the run early with Result.Canceled set. Any other
// failure cancels the remaining work and is returned.
func (p *Pipeline) Run(ctx context.Context, src Source, consumer Consumer) (Result, error) {
	rep := newReporter(p.opts.Observer, p.opts.ProgressInterval)
	progress := Progress{Total: src.Total()}

	g, gctx := errgroup.WithContext(ctx)
	// Unbuffered: the producer normalizes chunk k+1 while the consumer works
	// on chunk k and cannot get further ahead than that.
	chunks := make(chan chunk)

	g.Go(func() error {
		// The channel is only closed on success; on failure the consumer
		// stops on the canceled group context and never calls Finish.
		if err := p.produce(gctx, src, chunks); err != nil {
			return err
		}
		close(chunks)
		return nil
	})

	g.Go(func() error {
		for {
			var c chunk
			var ok bool
			select {
			case c, ok = <-chunks:
			case <-gctx.Done():
				return gctx.Err()
			}
			if !ok {
				if err := gctx.Err(); err != nil {
					return err
				}
				return consumer.Finish(gctx)
			}

			if err := consumer.Consume(gctx, c.messages); err != nil {
				return err
			}
			progress.Processed += c.read
			progress.Discarded += c.discarded
			progress.Cues = consumer.CueCount()
			if progress.Total >= 0 && progress.Processed > progress.Total {
				progress.Total = progress.Processed
			}
			rep.post(progress)
			p.logger.Debug("Chunk consumed",
				"chunk", c.index,
				"processed", progress.Processed,
				"discarded", progress.Discarded,
				"cues", progress.Cues,
			)
		}
	})

	err := g.Wait()
	progress.Cues = consumer.CueCount()
	if progress.Total < 0 {
		progress.Total = progress.Processed
	}
	rep.finish(progress)

	result := Result{Progress: progress}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			p.logger.Info("Pipeline canceled", "processed", progress.Processed)
			result.Canceled = true
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// produce reads, filters and normalizes chunks until the source is drained.
func (p *Pipeline) produce(ctx context.Context, src Source, out chan<- chunk) error {
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		events, eof, err := p.readChunk(src)
		if err != nil {
			return err
		}

		c := chunk{index: index, read: len(events)}
		kept := events[:0]
		for _, ev := range events {
			if ev.Offset < 0 {
				c.discarded++
				continue
			}
			if p.opts.Filter != nil {
				keep, err := p.opts.Filter(ev)
				if err != nil {
					return fmt.Errorf("failed to filter event at %s: %w", ev.Offset, err)
				}
				if !keep {
					c.discarded++
					continue
				}
			}
			kept = append(kept, ev)
		}

		msgs, err := p.normalize(ctx, kept)
		if err != nil {
			return err
		}
		c.discarded += len(kept) - len(msgs)
		c.messages = msgs

		if c.read > 0 {
			select {
			case out <- c:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if eof {
			return nil
		}
	}
}

func (p *Pipeline) readChunk(src Source) (events []domain.ChatEvent, eof bool, err error) {
	events = make([]domain.ChatEvent, 0, p.opts.ChunkSize)
	for len(events) < p.opts.ChunkSize {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return events, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read chat event: %w", err)
		}
		events = append(events, ev)
	}
	return events, false, nil
}

// normalize converts events in order. Large chunks are split into one batch
// per worker; each batch writes to its own slots so order is preserved.
func (p *Pipeline) normalize(ctx context.Context, events []domain.ChatEvent) ([]caption.Message, error) {
	type slot struct {
		msg caption.Message
		ok  bool
	}
	slots := make([]slot, len(events))

	workers := p.opts.Workers
	if len(events) < p.opts.ParallelThreshold || workers < 2 {
		workers = 1
	}
	size := (len(events) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(events); start += size {
		end := min(start+size, len(events))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				slots[i].msg, slots[i].ok = p.normalizer.Normalize(events[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	msgs := make([]caption.Message, 0, len(events))
	for _, s := range slots {
		if s.ok {
			msgs = append(msgs, s.msg)
		}
	}
	return msgs, nil
}
