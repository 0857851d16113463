// Package cachestore owns the persisted cache: source merges, blacklist
// pruning, the location tree and launch events.
//
// Merge functions are pure over *domain.Cache and idempotent. They only
// touch source-owned fields; launch stats survive every merge.
package cachestore

import (
	"slices"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// MergeInstalledApps applies a file-source read to the apps collection.
// Apps missing from the read lose their files tag and installation data;
// apps reported by no source are deleted.
func MergeInstalledApps(c *domain.Cache, candidates []domain.InstalledApp) {
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		seen[cand.ID] = true

		app, ok := c.Apps[cand.ID]
		if !ok {
			app = &domain.AppEntry{ID: cand.ID}
			c.Apps[cand.ID] = app
		}
		app.Name = cand.Name
		app.InstallDir = cand.InstallDir
		app.LibraryPath = cand.LibraryPath
		app.SizeBytes = cand.SizeBytes
		app.LastUpdatedAt = utc(cand.LastUpdatedAt)
		app.LastPlayedAt = utc(cand.LastPlayedAt)
		app.AddSource(domain.SourceFiles)
	}

	for id, app := range c.Apps {
		if seen[id] || !app.HasSource(domain.SourceFiles) {
			continue
		}
		clearFileFields(app)
		if !app.RemoveSource(domain.SourceFiles) {
			delete(c.Apps, id)
		}
	}
}

// MergeOwnedApps applies the owned-games list to the apps collection.
// The manifest name wins over the API name while the app is installed.
func MergeOwnedApps(c *domain.Cache, candidates []domain.OwnedApp) {
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		seen[cand.ID] = true

		app, ok := c.Apps[cand.ID]
		if !ok {
			app = &domain.AppEntry{ID: cand.ID}
			c.Apps[cand.ID] = app
		}
		if !app.HasSource(domain.SourceFiles) || app.Name == "" {
			app.Name = cand.Name
		}
		app.PlaytimeMinutes = cand.PlaytimeMinutes
		app.IconHash = cand.IconHash
		app.AddSource(domain.SourceAPI)
	}

	for id, app := range c.Apps {
		if seen[id] || !app.HasSource(domain.SourceAPI) {
			continue
		}
		app.PlaytimeMinutes = 0
		app.IconHash = ""
		if !app.RemoveSource(domain.SourceAPI) {
			delete(c.Apps, id)
		}
	}
}

func clearFileFields(app *domain.AppEntry) {
	app.InstallDir = ""
	app.LibraryPath = ""
	app.SizeBytes = 0
	app.LastUpdatedAt = time.Time{}
	app.LastPlayedAt = time.Time{}
}

// MergeNonSteamApps replaces the non-Steam collection with the shortcut
// store contents, keeping launch stats of surviving IDs.
func MergeNonSteamApps(c *domain.Cache, candidates []domain.Shortcut) {
	next := make(map[string]*domain.NonSteamAppEntry, len(candidates))
	for _, cand := range candidates {
		entry := &domain.NonSteamAppEntry{ID: cand.ID}
		if prior, ok := c.NonSteamApps[cand.ID]; ok {
			entry.Launched = prior.Launched
		}
		entry.Name = cand.Name
		entry.Exe = cand.Exe
		entry.StartDir = cand.StartDir
		entry.LaunchOptions = cand.LaunchOptions
		entry.LastPlayedAt = utc(cand.LastPlayedAt)
		next[cand.ID] = entry
	}
	c.NonSteamApps = next
}

// MergeFriends replaces the friend collection with the fetched profiles,
// keeping launch stats, then rebuilds groups from primary group references.
func MergeFriends(c *domain.Cache, profiles []domain.FriendProfile) {
	next := make(map[string]*domain.FriendEntry, len(profiles))
	for _, p := range profiles {
		entry := &domain.FriendEntry{ID: p.ID}
		if prior, ok := c.Friends[p.ID]; ok {
			entry.Launched = prior.Launched
		}
		entry.Name = p.Name
		entry.RealName = p.RealName
		entry.CountryCode = p.CountryCode
		entry.StateCode = p.StateCode
		entry.CityCode = p.CityCode
		entry.FriendSince = utc(p.FriendSince)
		entry.ProfileCreatedAt = utc(p.ProfileCreatedAt)
		entry.ProfileUpdatedAt = utc(p.ProfileUpdatedAt)
		entry.AvatarHash = p.AvatarHash
		entry.PrimaryGroupID = p.PrimaryGroupID
		next[p.ID] = entry
	}
	c.Friends = next
	RebuildGroups(c)
}

// RebuildGroups keeps exactly the groups referenced by a friend.
func RebuildGroups(c *domain.Cache) {
	next := make(map[string]*domain.GroupEntry)
	for _, f := range c.Friends {
		if f.PrimaryGroupID == "" {
			continue
		}
		if _, ok := next[f.PrimaryGroupID]; ok {
			continue
		}
		if prior, ok := c.Groups[f.PrimaryGroupID]; ok {
			next[f.PrimaryGroupID] = prior
			continue
		}
		next[f.PrimaryGroupID] = &domain.GroupEntry{ID: f.PrimaryGroupID}
	}
	c.Groups = next
}

// SetGroupNames fills names of known groups. Unknown IDs are ignored.
func SetGroupNames(c *domain.Cache, names map[string]string) {
	for id, name := range names {
		if g, ok := c.Groups[id]; ok && name != "" {
			g.Name = name
		}
	}
}

// Blacklists lists app and friend IDs that must never be cached.
// Friend IDs also match groups.
type Blacklists struct {
	Apps    []string
	Friends []string
}

// Empty reports whether no ID is blacklisted.
func (b Blacklists) Empty() bool {
	return len(b.Apps) == 0 && len(b.Friends) == 0
}

// ApplyBlacklists removes blacklisted entries and reports how many went.
// Groups and locations are rebuilt from the friends that remain.
func ApplyBlacklists(c *domain.Cache, b Blacklists) int {
	removed := 0
	for _, id := range b.Apps {
		if _, ok := c.Apps[id]; ok {
			delete(c.Apps, id)
			removed++
		}
		if _, ok := c.NonSteamApps[id]; ok {
			delete(c.NonSteamApps, id)
			removed++
		}
	}
	for _, id := range b.Friends {
		if _, ok := c.Friends[id]; ok {
			delete(c.Friends, id)
			removed++
		}
		if _, ok := c.Groups[id]; ok {
			delete(c.Groups, id)
			removed++
		}
	}
	if removed > 0 {
		RebuildGroups(c)
		RebuildLocations(c, nil)
	}
	return removed
}

// MissingLocationKeys lists location keys referenced by friends whose name
// is not in the current tree, parents first.
func MissingLocationKeys(c *domain.Cache) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}

	for _, f := range c.Friends {
		if f.CountryCode == "" {
			continue
		}
		country := c.Countries[f.CountryCode]
		if country == nil || country.Name == "" {
			add(domain.LocationKey(f.CountryCode, "", 0))
		}
		if f.StateCode == "" {
			continue
		}
		var state *domain.State
		if country != nil {
			state = country.States[f.StateCode]
		}
		if state == nil || state.Name == "" {
			add(domain.LocationKey(f.CountryCode, f.StateCode, 0))
		}
		if f.CityCode == 0 {
			continue
		}
		if state == nil || state.Cities[f.CityCode] == "" {
			add(domain.LocationKey(f.CountryCode, f.StateCode, f.CityCode))
		}
	}
	slices.Sort(out)
	return out
}

// RebuildLocations rebuilds the location tree from the surviving friends.
// Names come from the prior tree, then from names. Nodes no friend
// references are dropped.
func RebuildLocations(c *domain.Cache, names domain.LocationNames) {
	prior := c.Countries
	next := make(map[string]*domain.Country)

	for _, f := range c.Friends {
		if f.CountryCode == "" {
			continue
		}
		pc := prior[f.CountryCode]

		country, ok := next[f.CountryCode]
		if !ok {
			country = &domain.Country{Name: pickName(pc != nil, func() string { return pc.Name }, names, domain.LocationKey(f.CountryCode, "", 0))}
			next[f.CountryCode] = country
		}
		if f.StateCode == "" {
			continue
		}

		var ps *domain.State
		if pc != nil {
			ps = pc.States[f.StateCode]
		}
		if country.States == nil {
			country.States = make(map[string]*domain.State)
		}
		state, ok := country.States[f.StateCode]
		if !ok {
			state = &domain.State{Name: pickName(ps != nil, func() string { return ps.Name }, names, domain.LocationKey(f.CountryCode, f.StateCode, 0))}
			country.States[f.StateCode] = state
		}
		if f.CityCode == 0 {
			continue
		}

		if state.Cities == nil {
			state.Cities = make(map[int]string)
		}
		if _, ok := state.Cities[f.CityCode]; !ok {
			state.Cities[f.CityCode] = pickName(ps != nil, func() string { return ps.Cities[f.CityCode] }, names, domain.LocationKey(f.CountryCode, f.StateCode, f.CityCode))
		}
	}

	c.Countries = next
}

func pickName(hasPrior bool, prior func() string, names domain.LocationNames, key string) string {
	if hasPrior {
		if n := prior(); n != "" {
			return n
		}
	}
	return names[key]
}

// utc normalizes source timestamps so equal reads encode to equal bytes.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
