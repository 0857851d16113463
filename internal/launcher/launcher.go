// Package launcher answers queries and launch events on top of the cache
// store, the search engine and the refresher.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/cachestore"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/navigation"
	"github.com/MrSnakeDoc/steamjump/internal/scheduler"
)

// Searcher ranks items for a scope and query text.
type Searcher interface {
	Search(scope domain.Scope, text string) []domain.Result
}

// Index resolves item keys.
type Index interface {
	Get(key string) (*domain.Item, bool)
}

// Refresher brings stale sources up to date.
type Refresher interface {
	RefreshIfStale(ctx context.Context, force bool) scheduler.Report
}

// Response is the answer to one query. Failures never replace Items.
type Response struct {
	Scope    domain.Scope     `json:"scope"`
	Query    string           `json:"query"`
	Items    []domain.Result  `json:"items"`
	Failures []domain.Failure `json:"failures,omitempty"`
}

// LaunchResult tells the caller what to execute. Action is a steam://
// URI, or the ID of an extension action that was already run.
type LaunchResult struct {
	Key      string           `json:"key"`
	Kind     domain.Kind      `json:"kind"`
	Action   string           `json:"action"`
	Handled  bool             `json:"handled"`
	Failures []domain.Failure `json:"failures,omitempty"`
}

// Options configures a Launcher.
type Options struct {
	// RefreshOnQuery runs RefreshIfStale before every search. One-shot
	// CLI calls need it; the server relies on the background loop.
	RefreshOnQuery bool
}

// Launcher is the query facade.
type Launcher struct {
	store     *cachestore.Store
	index     Index
	engine    Searcher
	refresher Refresher
	opts      Options
	logger    logger.Logger
	now       func() time.Time
}

// New creates a launcher
func New(store *cachestore.Store, idx Index, engine Searcher, refresher Refresher, opts Options, log logger.Logger) *Launcher {
	return &Launcher{
		store:     store,
		index:     idx,
		engine:    engine,
		refresher: refresher,
		opts:      opts,
		logger:    log,
		now:       time.Now,
	}
}

// Search refreshes stale sources when configured to, then ranks the
// indexed items. It always answers from the best available cache.
func (l *Launcher) Search(ctx context.Context, scope domain.Scope, text string) Response {
	resp := Response{Scope: scope, Query: text}

	if l.opts.RefreshOnQuery {
		rep := l.refresher.RefreshIfStale(ctx, false)
		resp.Failures = rep.Failures()
	}

	resp.Items = l.engine.Search(scope, text)

	l.logger.Debug("search",
		logger.String("scope", string(scope)),
		logger.String("query", text),
		logger.Int("results", len(resp.Items)),
		logger.Int("failures", len(resp.Failures)))
	return resp
}

// Launch records a launch of the item behind key and returns what to
// execute. Extension actions run here. Only an unknown key is an error;
// a failed stats write is reported in Failures.
func (l *Launcher) Launch(ctx context.Context, key string) (LaunchResult, error) {
	kind, id, err := domain.ParseItemKey(key)
	if err != nil {
		return LaunchResult{}, err
	}

	if kind == domain.KindAction && id == navigation.ActionNoResults {
		return LaunchResult{Key: key, Kind: kind, Action: id, Handled: true}, nil
	}

	item, ok := l.index.Get(key)
	if !ok {
		return LaunchResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownItem, key)
	}

	res := LaunchResult{Key: key, Kind: kind, Action: item.Action}

	if err := l.store.RecordLaunch(ctx, kind, id, l.now()); err != nil {
		l.logger.Warn("failed to record launch",
			logger.String("key", key),
			logger.Error(err))
		res.Failures = append(res.Failures, domain.Failures("launch", err)...)
	}

	if kind == domain.KindAction {
		res.Handled = true
		res.Failures = append(res.Failures, l.runAction(ctx, id)...)
	}

	l.logger.Info("launched",
		logger.String("key", key),
		logger.String("action", res.Action))
	return res, nil
}

// runAction executes an extension action. Clearing drops every launch
// stat, the action's own included.
func (l *Launcher) runAction(ctx context.Context, id string) []domain.Failure {
	switch id {
	case navigation.ActionUpdateCache:
		return l.refresher.RefreshIfStale(ctx, true).Failures()

	case navigation.ActionClearCache:
		return domain.Failures("cache", l.store.Clear(ctx))

	case navigation.ActionRebuildCache:
		if err := l.store.Clear(ctx); err != nil {
			return domain.Failures("cache", err)
		}
		return l.refresher.RefreshIfStale(ctx, true).Failures()
	}
	return domain.Failures("launch", errors.New("action "+id+" has no handler"))
}

// Refresh runs one refresh pass.
func (l *Launcher) Refresh(ctx context.Context, force bool) scheduler.Report {
	return l.refresher.RefreshIfStale(ctx, force)
}

// Clear wipes the cache.
func (l *Launcher) Clear(ctx context.Context) error {
	return l.store.Clear(ctx)
}
