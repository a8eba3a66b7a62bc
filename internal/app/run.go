// Package app wires the conversion pipeline: it loads the inputs, builds the
// normalizer, engine and writer for the chosen style, and runs them.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nfrund/chatsubs/internal/chatlog"
	"github.com/nfrund/chatsubs/internal/config"
	"github.com/nfrund/chatsubs/internal/domain"
	"github.com/nfrund/chatsubs/internal/engine"
	"github.com/nfrund/chatsubs/internal/pipeline"
	"github.com/nfrund/chatsubs/internal/pubsub"
	"github.com/nfrund/chatsubs/internal/script"
	"github.com/nfrund/chatsubs/internal/storage"
	"github.com/nfrund/chatsubs/internal/textnorm"
	"github.com/nfrund/chatsubs/internal/writer"
)

// StdoutPath selects standard output as the destination.
const StdoutPath = "-"

// Job describes one conversion.
type Job struct {
	Input  string
	Output string
	// RunID identifies the run in logs and progress events; one is
	// generated when empty.
	RunID          string
	EmoticonsPath  string
	UserColorsPath string
	FilterPath     string
	Settings       config.Settings
}

// Report is the outcome of a conversion.
type Report struct {
	RunID string
	pipeline.Result
	// Written is the number of cues that reached the output.
	Written int
}

// Run performs job. The output file only appears once the whole conversion
// succeeded; a failed or canceled run leaves any previous file in place.
func Run(ctx context.Context, deps Dependencies, job Job) (Report, error) {
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	report := Report{RunID: job.RunID}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", job.RunID)

	cfg := deps.Config
	if cfg == nil {
		cfg = config.FromEnv(func(string) string { return "" })
	}

	settings := job.Settings
	if err := settings.Validate(); err != nil {
		return report, err
	}
	geom, err := settings.Geometry()
	if err != nil {
		return report, err
	}
	format, err := domain.ParseFormat(settings.Format)
	if err != nil {
		return report, err
	}

	catalog, err := chatlog.LoadCatalog(ctx, deps.Store, job.EmoticonsPath)
	if err != nil {
		return report, fmt.Errorf("failed to load emoticons: %w", err)
	}
	users, err := chatlog.LoadUserColors(ctx, deps.Store, job.UserColorsPath)
	if err != nil {
		return report, fmt.Errorf("failed to load user colors: %w", err)
	}

	var filter pipeline.Filter
	if job.FilterPath != "" {
		src, err := deps.Store.ReadFile(ctx, job.FilterPath)
		if err != nil {
			return report, fmt.Errorf("failed to load filter: %w", err)
		}
		f, err := script.Compile(job.FilterPath, src, script.DefaultSecurityLimits, logger)
		if err != nil {
			return report, err
		}
		filter = f.Keep
	}

	enc, err := writer.NewEncoder(format, settings.WriterStyle(geom))
	if err != nil {
		return report, err
	}

	reader, err := chatlog.Open(ctx, deps.Store, job.Input)
	if err != nil {
		return report, err
	}
	defer reader.Close()

	out, err := openOutput(ctx, deps, job.Output)
	if err != nil {
		return report, err
	}

	logger.Info("Conversion started",
		"input", job.Input,
		"output", job.Output,
		"strategy", settings.Strategy,
		"format", settings.Format,
		"events", reader.Total(),
		"rows", geom.Rows,
	)

	bw := bufio.NewWriterSize(out, 64*1024)
	sw := writer.New(bw, enc, cfg.WriteQueue, logger)

	engOpts := settings.EngineOptions(geom, cfg.FlushThreshold)
	engOpts.Logger = logger
	eng, err := engine.New(engOpts, sw)
	if err != nil {
		_ = sw.Close()
		_ = out.Abort()
		return report, err
	}

	opts := pipeline.Options{
		ChunkSize:         cfg.ChunkSize,
		Workers:           cfg.NormalizeWorkers,
		ParallelThreshold: cfg.ParallelThreshold,
		ProgressInterval:  cfg.ProgressInterval,
		Filter:            filter,
		Logger:            logger,
	}
	if deps.Publisher != nil {
		opts.Observer = pubsub.NewProgressObserver(ctx, deps.Publisher, job.RunID, logger)
	}
	normalizer := textnorm.New(settings.NormalizerOptions(), catalog, users)

	result, runErr := pipeline.New(normalizer, opts).Run(ctx, reader, eng)
	closeErr := sw.Close()
	report.Result = result
	report.Written = sw.Written()

	if err := errors.Join(runErr, closeErr); err != nil || result.Canceled {
		if abortErr := out.Abort(); abortErr != nil {
			logger.Warn("Failed to discard output", "error", abortErr)
		}
		if err != nil {
			return report, fmt.Errorf("conversion failed: %w", err)
		}
		logger.Info("Conversion canceled", "processed", result.Processed)
		return report, nil
	}
	if err := out.Commit(); err != nil {
		return report, err
	}

	logger.Info("Conversion finished",
		"processed", result.Processed,
		"discarded", result.Discarded,
		"cues", report.Written,
	)
	return report, nil
}

// output is a destination that can be kept or thrown away at the end of a run.
type output interface {
	io.Writer
	Commit() error
	Abort() error
}

func openOutput(ctx context.Context, deps Dependencies, path string) (output, error) {
	if path == StdoutPath {
		if deps.Stdout == nil {
			return nil, fmt.Errorf("no standard output available")
		}
		return streamOutput{deps.Stdout}, nil
	}
	o, err := deps.Store.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// streamOutput writes straight through; there is nothing to undo.
type streamOutput struct {
	io.Writer
}

func (streamOutput) Commit() error { return nil }
func (streamOutput) Abort() error  { return nil }

var _ output = (*storage.Output)(nil)
