package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/cachestore"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/navigation"
)

const (
	// DefaultGCThreshold is how long launch stats of an orphaned
	// navigation are kept
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// GarbageCollector prunes persisted navigation stats whose owning app or
// friend is gone. The stats survive a threshold so a reinstalled game or
// a re-added friend gets them back.
type GarbageCollector struct {
	store     *cachestore.Store
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
	now       func() time.Time
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	store *cachestore.Store,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) {
	// Run immediately on start
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect deletes orphaned navigation records last launched more than
// threshold ago and returns how many were deleted.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	if len(gc.orphans(gc.store.Snapshot(), gc.now())) == 0 {
		gc.logger.Debug("no navigation records to garbage collect")
		return 0, nil
	}

	var deleted []string
	_, err := gc.store.Update(ctx, func(c *domain.Cache) error {
		deleted = gc.orphans(c, gc.now())
		for _, id := range deleted {
			delete(c.Navigations, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(deleted) > 0 {
		gc.logger.Info("garbage collected orphaned navigations",
			logger.Int("deleted", len(deleted)),
			logger.Strings("ids", deleted))
	}
	return len(deleted), nil
}

// orphans lists the navigation records eligible for deletion.
func (gc *GarbageCollector) orphans(c *domain.Cache, now time.Time) []string {
	var out []string
	for id, nav := range c.Navigations {
		kind, ownerID, ok := navigation.OwnerOf(id)
		if !ok {
			continue
		}
		switch kind {
		case domain.KindApp:
			if _, alive := c.Apps[ownerID]; alive {
				continue
			}
		case domain.KindFriend:
			if _, alive := c.Friends[ownerID]; alive {
				continue
			}
		}
		if now.Sub(nav.Launched.LastLaunchedAt) < gc.threshold {
			continue
		}
		out = append(out, id)
	}
	return out
}
