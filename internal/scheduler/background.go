package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Background runs RefreshIfStale periodically and on manual trigger.
// Ticks honor the TTLs; manual triggers force both sources.
type Background struct {
	refresher     *Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBackground creates a background refresher
func NewBackground(
	refresher *Refresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Background {
	return &Background{
		refresher:     refresher,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs a first pass, then refreshes in the background until ctx is
// done or Stop is called. A failing first pass is logged, not returned:
// queries keep answering from the cached document.
func (b *Background) Start(ctx context.Context) {
	b.run(ctx, false)

	// a zero interval leaves only manual triggers
	var tick <-chan time.Time
	var ticker *time.Ticker
	if b.interval > 0 {
		ticker = time.NewTicker(b.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				b.run(ctx, false)
			case <-b.manualTrigger:
				b.logger.Info("manual refresh triggered")
				b.run(ctx, true)
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the background loop
func (b *Background) Stop() {
	close(b.stopCh)
}

func (b *Background) run(ctx context.Context, force bool) {
	rep := b.refresher.RefreshIfStale(ctx, force)
	for _, f := range rep.Failures() {
		b.logger.Warn("refresh failure",
			logger.String("code", f.Code),
			logger.String("source", f.Source),
			logger.String("message", f.Message))
	}
}
