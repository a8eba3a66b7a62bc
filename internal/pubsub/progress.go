package pubsub

import (
	"context"
	"log/slog"

	"github.com/nfrund/chatsubs/internal/pipeline"
)

// ProgressEvent is the payload of the progress topics.
type ProgressEvent struct {
	Processed int  `json:"processed"`
	Discarded int  `json:"discarded"`
	Total     int  `json:"total"`
	Cues      int  `json:"cues"`
	Final     bool `json:"final"`
}

var (
	// ProgressUpdated is published after chunks are consumed, throttled.
	ProgressUpdated = NewEvent[ProgressEvent]("progress.updated", "Cumulative counts of a running conversion")
	// ProgressCompleted is published once when a conversion ends.
	ProgressCompleted = NewEvent[ProgressEvent]("progress.completed", "Final counts of a finished conversion")
)

// ProgressObserver publishes pipeline progress on the bus.
type ProgressObserver struct {
	pub    Publisher
	runID  string
	ctx    context.Context
	logger *slog.Logger
}

// NewProgressObserver creates an observer publishing for the run runID.
func NewProgressObserver(ctx context.Context, pub Publisher, runID string, logger *slog.Logger) *ProgressObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressObserver{pub: pub, runID: runID, ctx: ctx, logger: logger}
}

func (o *ProgressObserver) Progress(p pipeline.Progress) {
	o.publish(ProgressUpdated, p, false)
}

func (o *ProgressObserver) Done(p pipeline.Progress) {
	o.publish(ProgressCompleted, p, true)
}

func (o *ProgressObserver) publish(event Event[ProgressEvent], p pipeline.Progress, final bool) {
	payload := ProgressEvent{
		Processed: p.Processed,
		Discarded: p.Discarded,
		Total:     p.Total,
		Cues:      p.Cues,
		Final:     final,
	}
	// Progress is advisory; a failed publish never stops the run.
	if err := Publish(context.WithoutCancel(o.ctx), o.pub, event, o.runID, payload); err != nil {
		o.logger.Warn("Failed to publish progress", "topic", event.Name(), "error", err)
	}
}
