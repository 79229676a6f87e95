package cmd

import (
	"context"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/dshills/flowdag/observability"
)

// progressEmitter advances a progress bar on every completed line and
// forwards every event to next, so it can wrap any other Emitter without
// swallowing it.
type progressEmitter struct {
	bar  *progressbar.ProgressBar
	next observability.Emitter
}

func newProgressEmitter(total int, next observability.Emitter) *progressEmitter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("running lines"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progressEmitter{bar: bar, next: next}
}

func (p *progressEmitter) Emit(event observability.Event) {
	if event.Msg == "line finished" {
		_ = p.bar.Add(1)
	}
	if p.next != nil {
		p.next.Emit(event)
	}
}

func (p *progressEmitter) EmitBatch(ctx context.Context, events []observability.Event) error {
	for _, e := range events {
		p.Emit(e)
	}
	if p.next != nil {
		return p.next.EmitBatch(ctx, events)
	}
	return nil
}

func (p *progressEmitter) Flush(ctx context.Context) error {
	_ = p.bar.Finish()
	if p.next != nil {
		return p.next.Flush(ctx)
	}
	return nil
}
