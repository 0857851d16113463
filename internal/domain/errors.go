package domain

import (
	"errors"

	"go.uber.org/multierr"
)

var (
	// ErrMalformedManifest marks an unparseable app manifest. The file is skipped.
	ErrMalformedManifest = errors.New("malformed manifest")

	// ErrMalformedShortcutStore marks an unparseable shortcut store.
	// The folder then contributes zero non-Steam apps.
	ErrMalformedShortcutStore = errors.New("malformed shortcut store")

	// ErrRemoteFetch marks a failed or timed out remote API step.
	// Cached friends are kept and the API refresh time is not advanced.
	ErrRemoteFetch = errors.New("remote fetch failure")

	// ErrCacheCorrupt marks a persisted document that failed validation.
	// The store falls back to an empty cache.
	ErrCacheCorrupt = errors.New("cache corrupt")

	// ErrIdentityMismatch marks a configured username that differs from the
	// cached one. The SteamID is re-resolved before the next API refresh.
	ErrIdentityMismatch = errors.New("identity mismatch")

	// ErrNoSteamFolder is returned when no configured Steam folder is readable.
	ErrNoSteamFolder = errors.New("no readable steam folder")

	// ErrUnknownItem is returned when a launch event names an unknown item.
	ErrUnknownItem = errors.New("unknown item")

	// ErrLockTimeout is returned when the cache writer lock cannot be acquired.
	ErrLockTimeout = errors.New("cache lock timeout")
)

// Failure is the structured form of an error surfaced next to results.
type Failure struct {
	Code    string `json:"code"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// FailureCode maps an error onto its taxonomy code.
func FailureCode(err error) string {
	switch {
	case errors.Is(err, ErrMalformedManifest):
		return "malformed_manifest"
	case errors.Is(err, ErrMalformedShortcutStore):
		return "malformed_shortcut_store"
	case errors.Is(err, ErrRemoteFetch):
		return "remote_fetch_failure"
	case errors.Is(err, ErrCacheCorrupt):
		return "cache_corrupt"
	case errors.Is(err, ErrIdentityMismatch):
		return "identity_mismatch"
	case errors.Is(err, ErrNoSteamFolder):
		return "no_steam_folder"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	default:
		return "internal"
	}
}

// Failures flattens a (possibly multierr-combined) error into failure values.
func Failures(source string, err error) []Failure {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	out := make([]Failure, 0, len(errs))
	for _, e := range errs {
		out = append(out, Failure{
			Code:    FailureCode(e),
			Source:  source,
			Message: e.Error(),
		})
	}
	return out
}
