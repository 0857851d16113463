package vdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Manifest is the subset of an appmanifest_<id>.acf file the cache uses.
type Manifest struct {
	AppID       string
	Name        string
	InstallDir  string
	SizeOnDisk  int64
	StateFlags  int64
	LastUpdated time.Time
	LastPlayed  time.Time
}

// ParseManifest decodes an app manifest. A missing AppState block or app
// id is reported as domain.ErrMalformedManifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	root, err := ParseText(r)
	if err != nil {
		return nil, err
	}

	state := root.Child("AppState")
	if state == nil {
		return nil, fmt.Errorf("%w: missing AppState block", domain.ErrMalformedManifest)
	}

	m := &Manifest{
		AppID:      strings.TrimSpace(state.String("appid")),
		Name:       state.String("name"),
		InstallDir: state.String("installdir"),
	}
	if m.AppID == "" {
		return nil, fmt.Errorf("%w: missing appid", domain.ErrMalformedManifest)
	}
	if m.Name == "" {
		m.Name = state.Child("UserConfig").String("name")
	}

	// SizeOnDisk is "0" while an install or update is still staging.
	if size, ok := state.Int("SizeOnDisk"); ok && size > 0 {
		m.SizeOnDisk = size
	} else if staged, ok := state.Int("BytesToStage"); ok && staged > 0 {
		m.SizeOnDisk = staged
	}

	m.StateFlags, _ = state.Int("StateFlags")
	m.LastUpdated = unixOrZero(state, "LastUpdated")
	m.LastPlayed = unixOrZero(state, "LastPlayed")

	return m, nil
}

// ParseLibraryFolders returns the library paths listed in libraryfolders.vdf.
// Both the current layout ("0" { "path" "..." }) and the legacy one
// ("1" "/path") are understood.
func ParseLibraryFolders(r io.Reader) ([]string, error) {
	root, err := ParseText(r)
	if err != nil {
		return nil, err
	}

	folders := root.Child("libraryfolders")
	if folders == nil {
		folders = root.Child("LibraryFolders")
	}
	if folders == nil {
		return nil, fmt.Errorf("%w: missing libraryfolders block", domain.ErrMalformedManifest)
	}

	var paths []string
	for _, f := range folders.Fields {
		switch f.Kind {
		case KindObject:
			if p := f.Object.String("path"); p != "" {
				paths = append(paths, p)
			}
		case KindString:
			if isNumeric(f.Key) && f.Str != "" {
				paths = append(paths, f.Str)
			}
		}
	}
	return paths, nil
}

func unixOrZero(o *Object, key string) time.Time {
	ts, ok := o.Int(key)
	if !ok || ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
