// Package search ranks indexed items against a keyword scope and query.
package search

import (
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/navigation"
)

// Source provides the items to rank.
type Source interface {
	Items() []*domain.Item
}

// Options configures an Engine.
type Options struct {
	MaxResults int
	Weights    domain.Weights

	// Blacklisted app and friend IDs. Items owned by them are excluded too.
	AppBlacklist    []string
	FriendBlacklist []string

	// ShowScores attaches the score breakdown to every result.
	ShowScores bool
}

// Engine is stateless apart from its options; it is safe for concurrent use.
type Engine struct {
	source    Source
	opts      Options
	blacklist map[string]bool
	now       func() time.Time
}

// NewEngine creates a search engine over source
func NewEngine(source Source, opts Options) *Engine {
	if opts.MaxResults < 1 {
		opts.MaxResults = 10
	}
	bl := make(map[string]bool, len(opts.AppBlacklist)+len(opts.FriendBlacklist))
	for _, id := range opts.AppBlacklist {
		bl[id] = true
	}
	for _, id := range opts.FriendBlacklist {
		bl[id] = true
	}
	return &Engine{
		source:    source,
		opts:      opts,
		blacklist: bl,
		now:       time.Now,
	}
}

// Search filters items by scope and blacklist, ranks them and keeps the
// best MaxResults. When nothing matches, a single no_results item is
// returned.
func (e *Engine) Search(scope domain.Scope, text string) []domain.Result {
	q := domain.ParseQuery(text)

	items := e.source.Items()
	admitted := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		if !scope.Admits(it) || e.blacklisted(it) {
			continue
		}
		admitted = append(admitted, it)
	}

	ranked := domain.RankCandidates(q, admitted, e.now(), e.opts.Weights)
	if len(ranked) == 0 {
		return []domain.Result{noResults(text)}
	}
	if len(ranked) > e.opts.MaxResults {
		ranked = ranked[:e.opts.MaxResults]
	}

	out := make([]domain.Result, 0, len(ranked))
	for _, c := range ranked {
		r := domain.Result{
			Key:         c.Item.Key(),
			Kind:        c.Item.Kind,
			ID:          c.Item.ID,
			Name:        c.Item.Name,
			Description: c.Item.Description,
			Action:      c.Item.Action,
			Icon:        c.Item.Icon,
		}
		if e.opts.ShowScores {
			score := c.Score
			r.Score = &score
		}
		out = append(out, r)
	}
	return out
}

func (e *Engine) blacklisted(it *domain.Item) bool {
	if len(e.blacklist) == 0 {
		return false
	}
	switch it.Kind {
	case domain.KindApp, domain.KindNonSteamApp, domain.KindFriend, domain.KindGroup:
		return e.blacklist[it.ID]
	case domain.KindNavigation:
		return it.OwnerID != "" && e.blacklist[it.OwnerID]
	}
	return false
}

func noResults(text string) domain.Result {
	desc := "Nothing matches your search"
	if text != "" {
		desc = "Nothing matches \"" + text + "\""
	}
	return domain.Result{
		Key:         domain.ItemKey(domain.KindAction, navigation.ActionNoResults),
		Kind:        domain.KindAction,
		ID:          navigation.ActionNoResults,
		Name:        "No results",
		Description: desc,
		Action:      navigation.ActionNoResults,
		Icon:        domain.IconHint{Kind: domain.KindAction, ID: navigation.ActionNoResults},
	}
}
