package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CacheVersion is the document version written by this build.
const CacheVersion = 2

// NavigationEntry holds the launch stats of a navigation or action item.
// Only launched items are persisted; everything else is derived per query.
type NavigationEntry struct {
	ID       string      `json:"id"`
	Launched LaunchStats `json:"launched,omitzero"`
}

// Metadata tracks identity and per-source refresh times.
type Metadata struct {
	Username          string    `json:"username,omitempty"`
	ResolvedSteamID   string    `json:"resolved_steam_id,omitempty"`
	LastFileRefreshAt time.Time `json:"last_file_refresh_at,omitzero"`
	LastAPIRefreshAt  time.Time `json:"last_api_refresh_at,omitzero"`
}

// Cache is the persisted aggregate of every collection.
type Cache struct {
	Version      int                          `json:"version"`
	Metadata     Metadata                     `json:"metadata"`
	Apps         map[string]*AppEntry         `json:"apps"`
	NonSteamApps map[string]*NonSteamAppEntry `json:"non_steam_apps"`
	Friends      map[string]*FriendEntry      `json:"friends"`
	Groups       map[string]*GroupEntry       `json:"groups"`
	Navigations  map[string]*NavigationEntry  `json:"navigations"`
	Countries    map[string]*Country          `json:"countries"`
}

// NewCache returns an empty cache with every collection allocated.
func NewCache() *Cache {
	c := &Cache{Version: CacheVersion}
	c.ensureMaps()
	return c
}

func (c *Cache) ensureMaps() {
	if c.Apps == nil {
		c.Apps = make(map[string]*AppEntry)
	}
	if c.NonSteamApps == nil {
		c.NonSteamApps = make(map[string]*NonSteamAppEntry)
	}
	if c.Friends == nil {
		c.Friends = make(map[string]*FriendEntry)
	}
	if c.Groups == nil {
		c.Groups = make(map[string]*GroupEntry)
	}
	if c.Navigations == nil {
		c.Navigations = make(map[string]*NavigationEntry)
	}
	if c.Countries == nil {
		c.Countries = make(map[string]*Country)
	}
}

// Clone returns a deep copy. Merges work on clones so the published
// snapshot is never mutated.
func (c *Cache) Clone() *Cache {
	out := &Cache{
		Version:      c.Version,
		Metadata:     c.Metadata,
		Apps:         make(map[string]*AppEntry, len(c.Apps)),
		NonSteamApps: make(map[string]*NonSteamAppEntry, len(c.NonSteamApps)),
		Friends:      make(map[string]*FriendEntry, len(c.Friends)),
		Groups:       make(map[string]*GroupEntry, len(c.Groups)),
		Navigations:  make(map[string]*NavigationEntry, len(c.Navigations)),
		Countries:    make(map[string]*Country, len(c.Countries)),
	}
	for id, a := range c.Apps {
		cp := *a
		cp.Sources = append([]string(nil), a.Sources...)
		out.Apps[id] = &cp
	}
	for id, a := range c.NonSteamApps {
		cp := *a
		out.NonSteamApps[id] = &cp
	}
	for id, f := range c.Friends {
		cp := *f
		out.Friends[id] = &cp
	}
	for id, g := range c.Groups {
		cp := *g
		out.Groups[id] = &cp
	}
	for id, n := range c.Navigations {
		cp := *n
		out.Navigations[id] = &cp
	}
	for code, country := range c.Countries {
		cc := &Country{Name: country.Name}
		if country.States != nil {
			cc.States = make(map[string]*State, len(country.States))
			for sc, st := range country.States {
				sn := &State{Name: st.Name}
				if st.Cities != nil {
					sn.Cities = make(map[int]string, len(st.Cities))
					for id, name := range st.Cities {
						sn.Cities[id] = name
					}
				}
				cc.States[sc] = sn
			}
		}
		out.Countries[code] = cc
	}
	return out
}

// Validate checks structural invariants after decoding and normalizes
// entries whose ID was left out of the document.
func (c *Cache) Validate() error {
	if c.Version > CacheVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCacheCorrupt, c.Version)
	}
	c.Version = CacheVersion
	c.ensureMaps()

	for id, a := range c.Apps {
		if a == nil {
			return fmt.Errorf("%w: null app %q", ErrCacheCorrupt, id)
		}
		if a.ID == "" {
			a.ID = id
		}
		if a.ID != id || a.PlaytimeMinutes < 0 || a.SizeBytes < 0 {
			return fmt.Errorf("%w: invalid app %q", ErrCacheCorrupt, id)
		}
		// Documents written before source tracking only knew installed apps.
		if len(a.Sources) == 0 {
			a.Sources = []string{SourceFiles}
		}
	}
	for id, a := range c.NonSteamApps {
		if a == nil {
			return fmt.Errorf("%w: null non-steam app %q", ErrCacheCorrupt, id)
		}
		if a.ID == "" {
			a.ID = id
		}
		if a.ID != id {
			return fmt.Errorf("%w: invalid non-steam app %q", ErrCacheCorrupt, id)
		}
	}
	for id, f := range c.Friends {
		if f == nil {
			return fmt.Errorf("%w: null friend %q", ErrCacheCorrupt, id)
		}
		if f.ID == "" {
			f.ID = id
		}
		if f.ID != id {
			return fmt.Errorf("%w: invalid friend %q", ErrCacheCorrupt, id)
		}
	}
	for id, g := range c.Groups {
		if g == nil {
			return fmt.Errorf("%w: null group %q", ErrCacheCorrupt, id)
		}
		if g.ID == "" {
			g.ID = id
		}
	}
	for id, n := range c.Navigations {
		if n == nil {
			return fmt.Errorf("%w: null navigation %q", ErrCacheCorrupt, id)
		}
		if n.ID == "" {
			n.ID = id
		}
	}
	for code, country := range c.Countries {
		if country == nil {
			return fmt.Errorf("%w: null country %q", ErrCacheCorrupt, code)
		}
	}
	return nil
}

// DecodeCache parses and validates a persisted document.
// Unknown fields are ignored.
func DecodeCache(data []byte) (*Cache, error) {
	c := &Cache{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// EncodeCache serializes the cache. Map keys are sorted by encoding/json,
// so equal caches encode to equal bytes.
func EncodeCache(c *Cache, indent int) ([]byte, error) {
	if indent > 0 {
		return json.MarshalIndent(c, "", strings.Repeat(" ", indent))
	}
	return json.Marshal(c)
}
