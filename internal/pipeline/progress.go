package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Progress is the cumulative state of a run.
type Progress struct {
	Processed int `json:"processed"`
	Discarded int `json:"discarded"`
	Total     int `json:"total"`
	Cues      int `json:"cues"`
}

// Observer receives progress reports. Progress is called from a dedicated
// goroutine and may be slow without holding the pipeline up; Done is called
// exactly once with the final counts.
type Observer interface {
	Progress(p Progress)
	Done(p Progress)
}

type nopObserver struct{}

func (nopObserver) Progress(Progress) {}
func (nopObserver) Done(Progress)     {}

// reporter hands progress to the observer through a one-slot mailbox. A newer
// report replaces an undelivered one, so posting never blocks.
type reporter struct {
	obs     Observer
	limiter *rate.Limiter
	updates chan Progress
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func newReporter(obs Observer, interval time.Duration) *reporter {
	if obs == nil {
		obs = nopObserver{}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &reporter{
		obs:     obs,
		limiter: rate.NewLimiter(limit, 1),
		updates: make(chan Progress, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *reporter) loop() {
	defer close(r.done)
	for p := range r.updates {
		if err := r.limiter.Wait(r.ctx); err != nil {
			return
		}
		r.obs.Progress(p)
	}
}

// post queues p for delivery, replacing any report not yet delivered.
func (r *reporter) post(p Progress) {
	for {
		select {
		case r.updates <- p:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}

// finish stops delivery and reports the final counts. It must not be called
// concurrently with post.
func (r *reporter) finish(final Progress) {
	r.cancel()
	close(r.updates)
	<-r.done
	r.obs.Done(final)
}
