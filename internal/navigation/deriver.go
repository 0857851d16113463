package navigation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Dependent navigation visibility.
const (
	DependentAll     = "all"
	DependentApps    = "apps"
	DependentFriends = "friends"
	DependentNone    = "none"
)

// Default friend actions.
const (
	FriendChat    = "chat"
	FriendProfile = "profile"
)

// Real info visibility.
const (
	RealInfoAll      = "all"
	RealInfoName     = "name"
	RealInfoLocation = "location"
	RealInfoNone     = "none"
)

// Options gates what the deriver materializes and shows.
type Options struct {
	Dependent    string // all | apps | friends | none
	FriendAction string // chat | profile
	RealInfo     string // all | name | location | none
}

// Deriver flattens a cache into searchable items.
type Deriver struct {
	opts      Options
	appNavs   []Template
	friendNav []Template
	globalNav []Template
}

// NewDeriver splits the catalog by owner and drops the friend template
// made redundant by the default friend action.
func NewDeriver(opts Options) *Deriver {
	if opts.Dependent == "" {
		opts.Dependent = DependentAll
	}
	if opts.FriendAction == "" {
		opts.FriendAction = FriendChat
	}
	if opts.RealInfo == "" {
		opts.RealInfo = RealInfoAll
	}

	d := &Deriver{opts: opts}
	for _, t := range Catalog {
		switch t.Owner() {
		case domain.KindApp:
			d.appNavs = append(d.appNavs, t)
		case domain.KindFriend:
			if (opts.FriendAction == FriendChat && t.Path == chatPath) ||
				(opts.FriendAction == FriendProfile && t.Path == profilePath) {
				continue
			}
			d.friendNav = append(d.friendNav, t)
		default:
			d.globalNav = append(d.globalNav, t)
		}
	}
	return d
}

// Items returns every searchable item of the cache, in a stable order.
func (d *Deriver) Items(c *domain.Cache) []*domain.Item {
	items := make([]*domain.Item, 0, len(c.Apps)+len(c.NonSteamApps)+len(c.Friends)+len(c.Groups)+len(d.globalNav)+len(Actions))

	for _, id := range sortedKeys(c.Apps) {
		app := c.Apps[id]
		items = append(items, d.appItem(app))
		if d.showAppNavs() {
			items = append(items, d.dependents(c, d.appNavs, domain.KindApp, app.ID, app.Name, app.IconHash, app.Installed())...)
		}
	}
	for _, id := range sortedKeys(c.NonSteamApps) {
		items = append(items, nonSteamItem(c.NonSteamApps[id]))
	}
	for _, id := range sortedKeys(c.Friends) {
		f := c.Friends[id]
		items = append(items, d.friendItem(c, f))
		if d.showFriendNavs() {
			items = append(items, d.dependents(c, d.friendNav, domain.KindFriend, f.ID, f.Name, f.AvatarHash, true)...)
		}
	}
	for _, id := range sortedKeys(c.Groups) {
		items = append(items, groupItem(c.Groups[id]))
	}

	for _, t := range d.globalNav {
		navID := NavigationID(t.Path)
		items = append(items, &domain.Item{
			Kind:     domain.KindNavigation,
			ID:       navID,
			Name:     t.Label,
			Action:   URI(t.Path),
			Icon:     domain.IconHint{Kind: domain.KindNavigation, ID: navID},
			Launched: launched(c, navID),
		})
	}

	for _, a := range Actions {
		items = append(items, &domain.Item{
			Kind:        domain.KindAction,
			ID:          a.ID,
			Name:        a.Label,
			Description: a.Description,
			Action:      a.ID,
			Icon:        domain.IconHint{Kind: domain.KindAction, ID: a.ID},
			Launched:    launched(c, a.ID),
		})
	}

	return items
}

func (d *Deriver) showAppNavs() bool {
	return d.opts.Dependent == DependentAll || d.opts.Dependent == DependentApps
}

func (d *Deriver) showFriendNavs() bool {
	return d.opts.Dependent == DependentAll || d.opts.Dependent == DependentFriends
}

func (d *Deriver) dependents(c *domain.Cache, templates []Template, owner domain.Kind, ownerID, ownerName, iconHash string, installed bool) []*domain.Item {
	out := make([]*domain.Item, 0, len(templates))
	for _, t := range templates {
		if t.InstalledOnly && !installed {
			continue
		}
		path := t.Materialize(ownerID)
		navID := NavigationID(path)
		out = append(out, &domain.Item{
			Kind:      domain.KindNavigation,
			ID:        navID,
			Name:      ownerName + ": " + t.Label,
			Action:    URI(path),
			OwnerKind: owner,
			OwnerID:   ownerID,
			Icon:      domain.IconHint{Kind: owner, ID: ownerID, Hash: iconHash},
			Launched:  launched(c, navID),
		})
	}
	return out
}

func (d *Deriver) appItem(app *domain.AppEntry) *domain.Item {
	action := URI("rungameid/" + app.ID)
	if !app.Installed() {
		action = URI("install/" + app.ID)
	}
	return &domain.Item{
		Kind:        domain.KindApp,
		ID:          app.ID,
		Name:        app.Name,
		Description: AppDescription(app),
		Action:      action,
		Icon:        domain.IconHint{Kind: domain.KindApp, ID: app.ID, Hash: app.IconHash},
		Launched:    app.Launched,
	}
}

func nonSteamItem(app *domain.NonSteamAppEntry) *domain.Item {
	return &domain.Item{
		Kind:        domain.KindNonSteamApp,
		ID:          app.ID,
		Name:        app.Name,
		Description: NonSteamDescription(app),
		Action:      URI("rungameid/" + app.ID),
		Icon:        domain.IconHint{Kind: domain.KindNonSteamApp, ID: app.ID},
		Launched:    app.Launched,
	}
}

func (d *Deriver) friendItem(c *domain.Cache, f *domain.FriendEntry) *domain.Item {
	path := chatPath
	if d.opts.FriendAction == FriendProfile {
		path = profilePath
	}
	return &domain.Item{
		Kind:        domain.KindFriend,
		ID:          f.ID,
		Name:        f.Name,
		Description: d.FriendDescription(c, f),
		Action:      URI(strings.Replace(path, FriendPlaceholder, f.ID, 1)),
		Icon:        domain.IconHint{Kind: domain.KindFriend, ID: f.ID, Hash: f.AvatarHash},
		Launched:    f.Launched,
	}
}

func groupItem(g *domain.GroupEntry) *domain.Item {
	name := g.Name
	if name == "" {
		name = fmt.Sprintf("Group %s", g.ID)
	}
	return &domain.Item{
		Kind:     domain.KindGroup,
		ID:       g.ID,
		Name:     name,
		Action:   URI("url/GroupSteamIDPage/" + g.ID),
		Icon:     domain.IconHint{Kind: domain.KindGroup, ID: g.ID},
		Launched: g.Launched,
	}
}

func launched(c *domain.Cache, navID string) domain.LaunchStats {
	if n, ok := c.Navigations[navID]; ok {
		return n.Launched
	}
	return domain.LaunchStats{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
