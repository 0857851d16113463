// Package steamfs reads installed apps and non-Steam shortcuts from local
// Steam folders.
package steamfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/sources/vdf"
	"github.com/MrSnakeDoc/steamjump/internal/utils"
)

// Options configures which folders are scanned.
type Options struct {
	Folders           []string // Steam roots; the first one is the primary
	UserdataID        string   // optional userdata directory name
	DiscoverLibraries bool     // follow steamapps/libraryfolders.vdf of the primary
}

// Snapshot is the result of one file-source read.
type Snapshot struct {
	Apps      []domain.InstalledApp
	Shortcuts []domain.Shortcut

	// FoldersRead counts library folders whose steamapps directory existed.
	FoldersRead int

	// Failures holds skipped files (malformed manifests or shortcut store).
	Failures error
}

// Reader enumerates manifests and the shortcut store.
type Reader struct {
	opts   Options
	logger logger.Logger
}

// NewReader creates a new file-source reader
func NewReader(opts Options, log logger.Logger) *Reader {
	return &Reader{opts: opts, logger: log}
}

// Read scans every folder. steamID is the resolved SteamID64, used to find
// the userdata directory when none is configured. Per-file failures are
// collected in Snapshot.Failures; the returned error is only set when no
// folder could be read at all.
func (r *Reader) Read(ctx context.Context, steamID string) (*Snapshot, error) {
	snap := &Snapshot{}
	if len(r.opts.Folders) == 0 {
		return snap, fmt.Errorf("%w: none configured", domain.ErrNoSteamFolder)
	}

	seen := make(map[string]bool)
	for _, lib := range r.libraries() {
		if err := ctx.Err(); err != nil {
			return snap, err
		}

		apps, err := r.readLibrary(lib, &snap.Failures)
		if err != nil {
			r.logger.Warn("steam library not readable",
				logger.String("path", lib),
				logger.Error(err))
			continue
		}
		snap.FoldersRead++

		for _, app := range apps {
			if seen[app.ID] {
				r.logger.Debug("app manifest found in more than one library",
					logger.String("app_id", app.ID),
					logger.String("path", lib))
				continue
			}
			seen[app.ID] = true
			snap.Apps = append(snap.Apps, app)
		}
	}

	if snap.FoldersRead == 0 {
		return snap, fmt.Errorf("%w: tried %s", domain.ErrNoSteamFolder, strings.Join(r.opts.Folders, ", "))
	}

	shortcuts, err := r.readShortcuts(steamID)
	if err != nil {
		snap.Failures = multierr.Append(snap.Failures, err)
	}
	snap.Shortcuts = shortcuts

	r.logger.Debug("file source read",
		logger.Int("folders", snap.FoldersRead),
		logger.Int("apps", len(snap.Apps)),
		logger.Int("shortcuts", len(snap.Shortcuts)),
		logger.Int("failures", len(multierr.Errors(snap.Failures))))

	return snap, nil
}

// libraries returns configured folders plus discovered library folders,
// cleaned and de-duplicated, primary first.
func (r *Reader) libraries() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(utils.ExpandHome(p))
		if p == "." || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, f := range r.opts.Folders {
		add(f)
	}
	if r.opts.DiscoverLibraries && len(out) > 0 {
		for _, p := range r.discoverLibraries(out[0]) {
			add(p)
		}
	}
	return out
}

func (r *Reader) discoverLibraries(primary string) []string {
	path := filepath.Join(primary, "steamapps", "libraryfolders.vdf")
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("cannot open library folders", logger.String("path", path), logger.Error(err))
		}
		return nil
	}
	defer utils.Close(f)

	paths, err := vdf.ParseLibraryFolders(f)
	if err != nil {
		r.logger.Warn("ignoring malformed library folders file",
			logger.String("path", path),
			logger.Error(err))
		return nil
	}
	return paths
}

func (r *Reader) readLibrary(lib string, failures *error) ([]domain.InstalledApp, error) {
	dir := filepath.Join(lib, "steamapps")
	if info, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "appmanifest_*.acf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	apps := make([]domain.InstalledApp, 0, len(matches))
	for _, path := range matches {
		m, err := parseManifestFile(path)
		if err != nil {
			r.logger.Warn("skipping app manifest",
				logger.String("path", path),
				logger.Error(err))
			*failures = multierr.Append(*failures, fmt.Errorf("%s: %w", path, err))
			continue
		}
		apps = append(apps, MapManifest(m, lib))
	}
	return apps, nil
}

func parseManifestFile(path string) (*vdf.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.Close(f)
	return vdf.ParseManifest(f)
}

// readShortcuts reads the primary folder's shortcut store. A missing store
// or unknown userdata directory means zero shortcuts; a malformed store
// also yields zero shortcuts and is reported.
func (r *Reader) readShortcuts(steamID string) ([]domain.Shortcut, error) {
	primary := filepath.Clean(utils.ExpandHome(r.opts.Folders[0]))
	userdata, ok := r.userdataDir(primary, steamID)
	if !ok {
		r.logger.Debug("no userdata directory, skipping non-steam apps",
			logger.String("path", primary))
		return nil, nil
	}

	path := filepath.Join(userdata, "config", "shortcuts.vdf")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer utils.Close(f)

	records, err := vdf.ParseShortcuts(f)
	if err != nil {
		r.logger.Warn("shortcut store unreadable, treating as empty",
			logger.String("path", path),
			logger.Error(err))
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make([]domain.Shortcut, 0, len(records))
	for _, rec := range records {
		out = append(out, MapShortcut(rec))
	}
	return out, nil
}

// userdataDir picks the configured id, the id derived from the SteamID64,
// or the only directory under userdata/, in that order.
func (r *Reader) userdataDir(primary, steamID string) (string, bool) {
	root := filepath.Join(primary, "userdata")

	if r.opts.UserdataID != "" {
		return filepath.Join(root, r.opts.UserdataID), true
	}
	if id, ok := AccountID(steamID); ok {
		return filepath.Join(root, id), true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	var dirs []string
	for _, e := range entries {
		// "0" and "anonymous" hold no user configuration.
		if e.IsDir() && e.Name() != "0" && e.Name() != "anonymous" {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return "", false
	}
	return filepath.Join(root, dirs[0]), true
}
