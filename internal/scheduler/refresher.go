package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/steamjump/internal/cachestore"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/sources/steamfs"
)

// Failure sources reported by a refresh.
const (
	SourceFiles    = "files"
	SourceAPI      = "api"
	SourceIdentity = "identity"
)

// FileReader reads the local Steam folders.
type FileReader interface {
	Read(ctx context.Context, steamID string) (*steamfs.Snapshot, error)
}

// Remote is the Steam Web API as consumed by the refresher.
type Remote interface {
	ResolveIdentity(ctx context.Context, username string) (string, error)
	FetchFriendList(ctx context.Context, steamID string) ([]domain.FriendSummary, error)
	FetchFriendProfiles(ctx context.Context, ids []string) ([]domain.FriendProfile, error)
	FetchOwnedApps(ctx context.Context, steamID string) ([]domain.OwnedApp, error)
	FetchLocationNames(ctx context.Context, country, state string) (domain.LocationNames, error)
}

// RefreshOptions holds the TTLs and the configured identity.
type RefreshOptions struct {
	FileInterval time.Duration
	APIInterval  time.Duration
	APITimeout   time.Duration

	// Username is the vanity name to resolve. SteamID64 wins when set.
	Username  string
	SteamID64 string
}

// Report describes one RefreshIfStale pass.
type Report struct {
	FileDue       bool
	FileRefreshed bool
	APIDue        bool
	APIRefreshed  bool

	// Per-source errors, possibly multierr-combined. A refreshed source
	// may still carry skipped-file failures.
	FileErr     error
	APIErr      error
	IdentityErr error
}

// Failures flattens the report errors for callers.
func (r Report) Failures() []domain.Failure {
	var out []domain.Failure
	out = append(out, domain.Failures(SourceIdentity, r.IdentityErr)...)
	out = append(out, domain.Failures(SourceFiles, r.FileErr)...)
	out = append(out, domain.Failures(SourceAPI, r.APIErr)...)
	return out
}

// Err combines every error of the report.
func (r Report) Err() error {
	return multierr.Combine(r.IdentityErr, r.FileErr, r.APIErr)
}

// Refresher decides which source is stale and merges fresh reads into
// the store. The two sources never block each other.
type Refresher struct {
	store  *cachestore.Store
	files  FileReader
	remote Remote
	opts   RefreshOptions
	logger logger.Logger
	now    func() time.Time
}

// NewRefresher creates a refresher. remote may be nil when no API key is
// configured; the API source is then never due.
func NewRefresher(store *cachestore.Store, files FileReader, remote Remote, opts RefreshOptions, log logger.Logger) *Refresher {
	if opts.APITimeout <= 0 {
		opts.APITimeout = 20 * time.Second
	}
	return &Refresher{
		store:  store,
		files:  files,
		remote: remote,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

// APIEnabled reports whether the remote source can run.
func (r *Refresher) APIEnabled() bool {
	return r.remote != nil && (r.opts.SteamID64 != "" || r.opts.Username != "")
}

// RefreshIfStale refreshes every source whose TTL has elapsed, or every
// source when force is set.
func (r *Refresher) RefreshIfStale(ctx context.Context, force bool) Report {
	var rep Report
	now := r.now()

	rep.IdentityErr = r.checkIdentity(ctx)

	snap := r.store.Snapshot()
	rep.FileDue = force || due(now, snap.Metadata.LastFileRefreshAt, r.opts.FileInterval)
	rep.APIDue = r.APIEnabled() && (force || due(now, snap.Metadata.LastAPIRefreshAt, r.opts.APIInterval))

	if rep.FileDue {
		rep.FileRefreshed, rep.FileErr = r.refreshFiles(ctx, now)
	}
	if rep.APIDue {
		rep.APIRefreshed, rep.APIErr = r.refreshAPI(ctx, now)
	}

	if rep.FileRefreshed || rep.APIRefreshed || rep.Err() != nil {
		r.logger.Info("refresh pass finished",
			logger.Bool("file_refreshed", rep.FileRefreshed),
			logger.Bool("api_refreshed", rep.APIRefreshed),
			logger.Int("failures", len(rep.Failures())))
	}
	return rep
}

// due is true when at least interval has passed since last.
func due(now, last time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}

// checkIdentity records the configured username and drops the resolved
// SteamID when it changed. The change itself is reported, never fatal.
func (r *Refresher) checkIdentity(ctx context.Context) error {
	snap := r.store.Snapshot()
	if snap.Metadata.Username == r.opts.Username {
		return nil
	}

	prior := snap.Metadata.Username
	_, err := r.store.Update(ctx, func(c *domain.Cache) error {
		c.Metadata.Username = r.opts.Username
		c.Metadata.ResolvedSteamID = ""
		return nil
	})
	if err != nil {
		return err
	}
	if prior == "" {
		return nil
	}

	r.logger.Warn("configured username changed, steam id will be resolved again",
		logger.String("previous", prior),
		logger.String("current", r.opts.Username))
	return fmt.Errorf("%w: %q -> %q", domain.ErrIdentityMismatch, prior, r.opts.Username)
}

func (r *Refresher) steamID() string {
	if r.opts.SteamID64 != "" {
		return r.opts.SteamID64
	}
	return r.store.Snapshot().Metadata.ResolvedSteamID
}

func (r *Refresher) refreshFiles(ctx context.Context, now time.Time) (bool, error) {
	start := time.Now()
	snap, err := r.files.Read(ctx, r.steamID())
	if err != nil {
		r.logger.Warn("file refresh failed", logger.Error(err))
		return false, err
	}

	_, err = r.store.Update(ctx, func(c *domain.Cache) error {
		cachestore.MergeInstalledApps(c, snap.Apps)
		cachestore.MergeNonSteamApps(c, snap.Shortcuts)
		c.Metadata.LastFileRefreshAt = now
		return nil
	})
	if err != nil {
		return false, multierr.Append(snap.Failures, err)
	}

	r.logger.Info("file source refreshed",
		logger.Int("apps", len(snap.Apps)),
		logger.Int("shortcuts", len(snap.Shortcuts)),
		logger.Duration("took", time.Since(start)))
	return true, snap.Failures
}

// apiRead is everything the API step fetched before merging.
type apiRead struct {
	steamID  string
	profiles []domain.FriendProfile
	owned    []domain.OwnedApp
}

// refreshAPI runs the remote step under APITimeout. Friends, profiles and
// owned apps must all succeed for anything to be merged. Location names
// are best effort.
func (r *Refresher) refreshAPI(ctx context.Context, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.APITimeout)
	defer cancel()

	start := time.Now()
	read, err := r.fetchAPI(ctx)
	if err != nil {
		r.logger.Warn("api refresh failed, keeping cached friends", logger.Error(err))
		return false, err
	}

	// Resolve names on a scratch copy so no network call runs under the
	// store lock.
	scratch := r.store.Snapshot().Clone()
	cachestore.MergeFriends(scratch, read.profiles)
	cachestore.ApplyBlacklists(scratch, r.store.Blacklists())
	names, nameErr := r.fetchLocationNames(ctx, cachestore.MissingLocationKeys(scratch))

	_, err = r.store.Update(ctx, func(c *domain.Cache) error {
		cachestore.MergeFriends(c, read.profiles)
		cachestore.MergeOwnedApps(c, read.owned)
		cachestore.RebuildLocations(c, names)
		c.Metadata.ResolvedSteamID = read.steamID
		c.Metadata.LastAPIRefreshAt = now
		return nil
	})
	if err != nil {
		return false, multierr.Append(nameErr, err)
	}

	r.logger.Info("api source refreshed",
		logger.Int("friends", len(read.profiles)),
		logger.Int("owned_apps", len(read.owned)),
		logger.Duration("took", time.Since(start)))
	return true, nameErr
}

func (r *Refresher) fetchAPI(ctx context.Context) (*apiRead, error) {
	steamID := r.steamID()
	if steamID == "" {
		id, err := r.remote.ResolveIdentity(ctx, r.opts.Username)
		if err != nil {
			return nil, err
		}
		steamID = id
	}

	list, err := r.remote.FetchFriendList(ctx, steamID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, f := range list {
		ids = append(ids, f.ID)
	}

	profiles, err := r.remote.FetchFriendProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	owned, err := r.remote.FetchOwnedApps(ctx, steamID)
	if err != nil {
		return nil, err
	}

	return &apiRead{
		steamID:  steamID,
		profiles: joinFriends(list, profiles),
		owned:    owned,
	}, nil
}

// joinFriends keeps the friend list as the authority: every listed friend
// gets a profile, named after its ID when the summary call skipped it.
func joinFriends(list []domain.FriendSummary, profiles []domain.FriendProfile) []domain.FriendProfile {
	byID := make(map[string]domain.FriendProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	out := make([]domain.FriendProfile, 0, len(list))
	for _, f := range list {
		p, ok := byID[f.ID]
		if !ok {
			p = domain.FriendProfile{ID: f.ID, Name: f.ID}
		}
		p.FriendSince = f.FriendSince
		out = append(out, p)
	}
	return out
}

// fetchLocationNames issues one query per level with missing names.
func (r *Refresher) fetchLocationNames(ctx context.Context, missing []string) (domain.LocationNames, error) {
	if len(missing) == 0 {
		return nil, nil
	}

	type level struct{ country, state string }
	var levels []level
	add := func(l level) {
		if !slices.Contains(levels, l) {
			levels = append(levels, l)
		}
	}
	for _, key := range missing {
		parts := strings.Split(key, "/")
		switch len(parts) {
		case 1:
			add(level{})
		case 2:
			add(level{country: parts[0]})
		default:
			add(level{country: parts[0], state: parts[1]})
		}
	}

	names := make(domain.LocationNames)
	var errs error
	for _, l := range levels {
		got, err := r.remote.FetchLocationNames(ctx, l.country, l.state)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for k, v := range got {
			names[k] = v
		}
	}
	if errs != nil {
		r.logger.Warn("some location names could not be fetched", logger.Error(errs))
	}
	return names, errs
}
