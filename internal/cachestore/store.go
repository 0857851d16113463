package cachestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Options tunes a Store.
type Options struct {
	Indent      int           // JSON indent of the persisted document, 0 = compact
	LockTimeout time.Duration // bound on waiting for the writer lock
	Blacklists  Blacklists    // applied on every committed update
}

// CommitHook runs after a new snapshot is published.
type CommitHook func(c *domain.Cache)

// Store is the single writer of the cache. Readers use Snapshot, which
// is never mutated after publication.
type Store struct {
	persister Persister
	opts      Options
	logger    logger.Logger

	mu       sync.Mutex // serializes writers inside the process
	snapshot atomic.Pointer[domain.Cache]

	hooksMu sync.RWMutex
	hooks   []CommitHook
}

// New creates a store with an empty snapshot. Call Load to read the
// persisted document.
func New(p Persister, opts Options, log logger.Logger) *Store {
	s := &Store{
		persister: p,
		opts:      opts,
		logger:    log,
	}
	s.snapshot.Store(domain.NewCache())
	return s
}

// OnCommit registers a hook. Hooks run synchronously, in order.
func (s *Store) OnCommit(h CommitHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Snapshot returns the last committed cache. Callers must not modify it.
func (s *Store) Snapshot() *domain.Cache {
	return s.snapshot.Load()
}

// Blacklists returns the blacklists applied on every update.
func (s *Store) Blacklists() Blacklists {
	return s.opts.Blacklists
}

// Load reads the persisted document without taking the writer lock and
// publishes it. A corrupt document is replaced by an empty cache; the
// ErrCacheCorrupt error is still returned so callers can report it.
func (s *Store) Load(ctx context.Context) error {
	c, err := s.read(ctx)
	if err != nil && !errors.Is(err, domain.ErrCacheCorrupt) {
		return err
	}
	s.publish(c)
	return err
}

// read loads and decodes the document. On corruption it returns an empty
// cache together with the error.
func (s *Store) read(ctx context.Context) (*domain.Cache, error) {
	data, err := s.persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cache from %s: %w", s.persister.Describe(), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewCache(), nil
	}

	c, err := domain.DecodeCache(data)
	if err != nil {
		s.logger.Warn("cache document is corrupt, starting from an empty cache",
			logger.String("location", s.persister.Describe()),
			logger.Error(err))
		return domain.NewCache(), err
	}
	return c, nil
}

// Update runs fn on a private copy of the latest persisted cache while
// holding the writer lock, then persists and publishes the result.
// Blacklists are applied after fn. Nothing is written when fn fails or
// leaves the document unchanged.
func (s *Store) Update(ctx context.Context, fn func(c *domain.Cache) error) (*domain.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx := ctx
	if s.opts.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.opts.LockTimeout)
		defer cancel()
	}
	release, err := s.persister.Lock(lockCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrLockTimeout, s.persister.Describe())
		}
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			s.logger.Warn("failed to release cache lock",
				logger.String("location", s.persister.Describe()),
				logger.Error(err))
		}
	}()

	// Another process may have written since our last read.
	base, readErr := s.read(ctx)
	if base == nil {
		return nil, readErr
	}
	before, err := domain.EncodeCache(base, s.opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}

	next := base.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	ApplyBlacklists(next, s.opts.Blacklists)

	after, err := domain.EncodeCache(next, s.opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}

	// A corrupt document is always rewritten.
	if readErr != nil || !bytes.Equal(before, after) {
		if err := s.persister.Save(ctx, after); err != nil {
			return nil, fmt.Errorf("save cache to %s: %w", s.persister.Describe(), err)
		}
		s.logger.Debug("cache persisted",
			logger.String("location", s.persister.Describe()),
			logger.Int("bytes", len(after)))
	}

	s.publish(next)
	return next, nil
}

// RecordLaunch bumps the launch stats of one item. Navigation and action
// records are created on first launch; entities must exist.
func (s *Store) RecordLaunch(ctx context.Context, kind domain.Kind, id string, at time.Time) error {
	_, err := s.Update(ctx, func(c *domain.Cache) error {
		var stats *domain.LaunchStats
		switch kind {
		case domain.KindApp:
			if a, ok := c.Apps[id]; ok {
				stats = &a.Launched
			}
		case domain.KindNonSteamApp:
			if a, ok := c.NonSteamApps[id]; ok {
				stats = &a.Launched
			}
		case domain.KindFriend:
			if f, ok := c.Friends[id]; ok {
				stats = &f.Launched
			}
		case domain.KindGroup:
			if g, ok := c.Groups[id]; ok {
				stats = &g.Launched
			}
		case domain.KindNavigation, domain.KindAction:
			n, ok := c.Navigations[id]
			if !ok {
				n = &domain.NavigationEntry{ID: id}
				c.Navigations[id] = n
			}
			stats = &n.Launched
		}
		if stats == nil {
			return fmt.Errorf("%w: %s", domain.ErrUnknownItem, domain.ItemKey(kind, id))
		}
		stats.Record(at)
		return nil
	})
	return err
}

// Clear resets the cache to an empty document. Refresh timestamps go
// with it, so the next query refreshes both sources.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.Update(ctx, func(c *domain.Cache) error {
		*c = *domain.NewCache()
		return nil
	})
	if err == nil {
		s.logger.Info("cache cleared", logger.String("location", s.persister.Describe()))
	}
	return err
}

func (s *Store) publish(c *domain.Cache) {
	s.snapshot.Store(c)

	s.hooksMu.RLock()
	hooks := append([]CommitHook(nil), s.hooks...)
	s.hooksMu.RUnlock()

	for _, h := range hooks {
		h(c)
	}
}
