package domain

import (
	"slices"
	"time"
)

// Source tags recorded on AppEntry.Sources.
const (
	SourceFiles = "files"
	SourceAPI   = "api"
)

// AppEntry is a Steam application known from the local manifests,
// the owned-games API, or both.
//
// The entry lives as long as at least one source reports it.
type AppEntry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is Steam's numeric app ID, string-encoded.
	ID string `json:"id"`

	// ─────────────────────────────
	// Source-owned fields
	// (overwritten by every merge of the owning source)
	// ─────────────────────────────

	Name string `json:"name"`

	// PlaytimeMinutes comes from the owned-games API.
	PlaytimeMinutes int64 `json:"playtime_minutes,omitempty"`

	// IconHash comes from the owned-games API (img_icon_url).
	IconHash string `json:"icon_hash,omitempty"`

	// InstallDir is empty when the app is not installed.
	InstallDir string `json:"install_dir,omitempty"`

	// LibraryPath is the Steam library root holding the manifest.
	LibraryPath string `json:"library_path,omitempty"`

	SizeBytes     int64     `json:"size_bytes,omitempty"`
	LastUpdatedAt time.Time `json:"last_updated_at,omitzero"`

	// LastPlayedAt is Steam's own record, not the launcher's.
	LastPlayedAt time.Time `json:"last_played_at,omitzero"`

	// ─────────────────────────────
	// Provenance
	// ─────────────────────────────

	// Sources lists which sources currently report this app, sorted.
	Sources []string `json:"sources,omitempty"`

	// ─────────────────────────────
	// Learning
	// ─────────────────────────────

	Launched LaunchStats `json:"launched,omitzero"`
}

// Installed reports whether a local manifest provides an install directory.
func (a *AppEntry) Installed() bool {
	return a.InstallDir != ""
}

// HasSource reports whether src currently reports the app.
func (a *AppEntry) HasSource(src string) bool {
	return slices.Contains(a.Sources, src)
}

// AddSource records src, keeping Sources sorted and unique.
func (a *AppEntry) AddSource(src string) {
	if a.HasSource(src) {
		return
	}
	a.Sources = append(a.Sources, src)
	slices.Sort(a.Sources)
}

// RemoveSource drops src and reports whether any source remains.
func (a *AppEntry) RemoveSource(src string) bool {
	a.Sources = slices.DeleteFunc(a.Sources, func(s string) bool { return s == src })
	if len(a.Sources) == 0 {
		a.Sources = nil
	}
	return len(a.Sources) > 0
}

// NonSteamAppEntry is a shortcut registered in the primary client's
// shortcut store.
type NonSteamAppEntry struct {
	// ID is the 64-bit rungameid derived from the shortcut app id.
	ID string `json:"id"`

	Name          string    `json:"name"`
	Exe           string    `json:"exe,omitempty"`
	StartDir      string    `json:"start_dir,omitempty"`
	LaunchOptions string    `json:"launch_options,omitempty"`
	LastPlayedAt  time.Time `json:"last_played_at,omitzero"`

	Launched LaunchStats `json:"launched,omitzero"`
}

// InstalledApp is a candidate read from one appmanifest file.
type InstalledApp struct {
	ID            string
	Name          string
	InstallDir    string
	LibraryPath   string
	SizeBytes     int64
	LastUpdatedAt time.Time
	LastPlayedAt  time.Time
}

// OwnedApp is a candidate returned by the owned-games API.
type OwnedApp struct {
	ID              string
	Name            string
	PlaytimeMinutes int64
	IconHash        string
}

// Shortcut is a candidate read from the shortcut store.
type Shortcut struct {
	ID            string
	Name          string
	Exe           string
	StartDir      string
	LaunchOptions string
	LastPlayedAt  time.Time
}
