package domain

import (
	"fmt"
	"strings"
)

// Kind identifies the entity type behind a searchable item.
type Kind string

const (
	KindApp         Kind = "app"
	KindNonSteamApp Kind = "nonsteam"
	KindFriend      Kind = "friend"
	KindGroup       Kind = "group"
	KindNavigation  Kind = "nav"
	KindAction      Kind = "action"
)

// Rank orders kinds for tie-breaking: entities before navigations
// before actions.
func (k Kind) Rank() int {
	switch k {
	case KindApp:
		return 0
	case KindNonSteamApp:
		return 1
	case KindFriend:
		return 2
	case KindGroup:
		return 3
	case KindNavigation:
		return 4
	default:
		return 5
	}
}

func parseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindApp, KindNonSteamApp, KindFriend, KindGroup, KindNavigation, KindAction:
		return k, true
	}
	return "", false
}

// Scope is the keyword filter of a query.
type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeApps        Scope = "apps"
	ScopeFriends     Scope = "friends"
	ScopeNavigations Scope = "navigations"
	ScopeActions     Scope = "actions"
)

// ParseScope accepts the scope names and a few short aliases.
// An empty string is ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "steam":
		return ScopeAll, nil
	case "apps", "app", "games":
		return ScopeApps, nil
	case "friends", "friend":
		return ScopeFriends, nil
	case "navigations", "navigation", "navs", "nav":
		return ScopeNavigations, nil
	case "actions", "action":
		return ScopeActions, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Admits reports whether an item belongs to the scope.
func (s Scope) Admits(it *Item) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeApps:
		return it.Kind == KindApp || it.Kind == KindNonSteamApp ||
			(it.Kind == KindNavigation && it.OwnerKind == KindApp)
	case ScopeFriends:
		return it.Kind == KindFriend || it.Kind == KindGroup ||
			(it.Kind == KindNavigation && it.OwnerKind == KindFriend)
	case ScopeNavigations:
		return it.Kind == KindNavigation
	case ScopeActions:
		return it.Kind == KindAction
	}
	return false
}

// IconHint is what an icon resolver needs to locate an image.
type IconHint struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// Item is one searchable record: an entity, a materialized navigation
// or an extension action.
type Item struct {
	Kind        Kind
	ID          string
	Name        string
	Description string

	// Action is the URI or sentinel executed when the item is picked.
	Action string

	// OwnerKind and OwnerID are set on navigations derived from an entity.
	OwnerKind Kind
	OwnerID   string

	Icon     IconHint
	Launched LaunchStats
}

// Key is the stable identifier used by launch events.
func (it *Item) Key() string {
	return ItemKey(it.Kind, it.ID)
}

// ItemKey joins a kind and an ID.
func ItemKey(kind Kind, id string) string {
	return string(kind) + ":" + id
}

// ParseItemKey splits "kind:id". Navigation IDs may contain colons.
func ParseItemKey(key string) (Kind, string, error) {
	k, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownItem, key)
	}
	kind, ok := parseKind(k)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownItem, key)
	}
	return kind, id, nil
}

// ScoreBreakdown holds the raw components of a composite score.
type ScoreBreakdown struct {
	Text      float64 `json:"text"`
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Total     float64 `json:"total"`
}

// Result is one ranked item returned to the caller.
type Result struct {
	Key         string          `json:"key"`
	Kind        Kind            `json:"kind"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Action      string          `json:"action"`
	Icon        IconHint        `json:"icon"`
	Score       *ScoreBreakdown `json:"score,omitempty"`
}
