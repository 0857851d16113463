// Package navigation derives searchable items from the cache: the
// entities themselves, Steam browser protocol shortcuts and the extension
// actions.
package navigation

import (
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Placeholders in template paths.
const (
	AppPlaceholder    = "%a"
	FriendPlaceholder = "%f"
)

// SchemeTag prefixes navigation IDs in place of "steam://".
const SchemeTag = "s:"

// Template is one Steam browser protocol path.
type Template struct {
	Path  string
	Label string

	// InstalledOnly restricts app templates to installed apps.
	InstalledOnly bool
}

// Owner returns the entity kind the template depends on, or "" for a
// global navigation.
func (t Template) Owner() domain.Kind {
	switch {
	case strings.Contains(t.Path, AppPlaceholder):
		return domain.KindApp
	case strings.Contains(t.Path, FriendPlaceholder):
		return domain.KindFriend
	default:
		return ""
	}
}

// Materialize substitutes the owner ID into the path.
func (t Template) Materialize(ownerID string) string {
	r := strings.NewReplacer(AppPlaceholder, ownerID, FriendPlaceholder, ownerID)
	return r.Replace(t.Path)
}

// NavigationID is the persisted ID of a concrete path.
func NavigationID(path string) string {
	return SchemeTag + path
}

// OwnerOf returns the owner of a persisted navigation ID by matching it
// against the catalog. ok is false for global navigations and actions.
func OwnerOf(navID string) (kind domain.Kind, ownerID string, ok bool) {
	path, found := strings.CutPrefix(navID, SchemeTag)
	if !found {
		return "", "", false
	}
	for _, t := range Catalog {
		owner := t.Owner()
		if owner == "" {
			continue
		}
		placeholder := AppPlaceholder
		if owner == domain.KindFriend {
			placeholder = FriendPlaceholder
		}
		prefix, suffix, _ := strings.Cut(t.Path, placeholder)
		if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) || len(path) <= len(prefix)+len(suffix) {
			continue
		}
		id := path[len(prefix) : len(path)-len(suffix)]
		if strings.Contains(id, "/") {
			continue
		}
		return owner, id, true
	}
	return "", "", false
}

// URI is the action executed for a concrete path.
func URI(path string) string {
	return "steam://" + path
}

// Friend templates suppressed by each default friend action, since the
// friend item itself already performs them.
const (
	chatPath    = "friends/message/%f"
	profilePath = "url/SteamIDPage/%f"
)

// Catalog lists every supported navigation. Paths that do nothing in
// current clients are left out.
var Catalog = []Template{
	{Path: "backup/%a", Label: "Back up game files", InstalledOnly: true},
	{Path: "cdkeys/%a", Label: "Show CD keys"},
	{Path: "controllerconfig/%a", Label: "Controller configuration"},
	{Path: "exit", Label: "Exit Steam"},
	{Path: "forceinputappid/%a", Label: "Force Steam Input"},
	{Path: chatPath, Label: "Chat"},
	{Path: "friends/players", Label: "Recent players"},
	{Path: "friends/status/away", Label: "Set status: away"},
	{Path: "friends/status/invisible", Label: "Set status: invisible"},
	{Path: "friends/status/offline", Label: "Set status: offline"},
	{Path: "friends/status/online", Label: "Set status: online"},
	{Path: "gameproperties/%a", Label: "Properties", InstalledOnly: true},
	{Path: "musicplayer/decreasevolume", Label: "Music: volume down"},
	{Path: "musicplayer/increasevolume", Label: "Music: volume up"},
	{Path: "musicplayer/pause", Label: "Music: pause"},
	{Path: "musicplayer/play", Label: "Music: play"},
	{Path: "musicplayer/playnext", Label: "Music: next track"},
	{Path: "musicplayer/playprevious", Label: "Music: previous track"},
	{Path: "musicplayer/togglemute", Label: "Music: toggle mute"},
	{Path: "musicplayer/toggleplayingrepeatstatus", Label: "Music: toggle repeat"},
	{Path: "musicplayer/toggleplayingshuffled", Label: "Music: toggle shuffle"},
	{Path: "musicplayer/toggleplaypause", Label: "Music: play/pause"},
	{Path: "open/activateproduct", Label: "Activate a product"},
	{Path: "open/bigpicture", Label: "Big Picture"},
	{Path: "open/console", Label: "Console"},
	{Path: "open/downloads", Label: "Downloads"},
	{Path: "open/friends", Label: "Friends list"},
	{Path: "open/games", Label: "Library"},
	{Path: "open/largegameslist", Label: "Large games list"},
	{Path: "open/minigameslist", Label: "Mini games list"},
	{Path: "open/music", Label: "Music library"},
	{Path: "open/musicplayer", Label: "Music player"},
	{Path: "open/screenshots/%a", Label: "Screenshots"},
	{Path: "open/servers", Label: "Game servers"},
	{Path: "open/tools", Label: "Tools"},
	{Path: "settings/account", Label: "Settings: account"},
	{Path: "settings/downloads", Label: "Settings: downloads"},
	{Path: "settings/friends", Label: "Settings: friends"},
	{Path: "settings/ingame", Label: "Settings: in-game"},
	{Path: "settings/interface", Label: "Settings: interface"},
	{Path: "settings/voice", Label: "Settings: voice"},
	{Path: "store", Label: "Store"},
	{Path: "store/%a", Label: "Store page"},
	{Path: "uninstall/%a", Label: "Uninstall", InstalledOnly: true},
	{Path: "UpdateFirmware", Label: "Update controller firmware"},
	{Path: "updatenews/%a", Label: "Update news"},
	{Path: "url/CommunityFriendsThatPlay/%a", Label: "Friends that play"},
	{Path: "url/CommunityHome", Label: "Community home"},
	{Path: "url/CommunityInventory", Label: "Inventory"},
	{Path: "url/FamilySharing", Label: "Family sharing"},
	{Path: "url/GameHub/%a", Label: "Community hub"},
	{Path: "url/LegalInformation", Label: "Legal information"},
	{Path: "url/MyHelpRequests", Label: "My help requests"},
	{Path: "url/ParentalSetup", Label: "Family view"},
	{Path: "url/PrivacyPolicy", Label: "Privacy policy"},
	{Path: "url/SSA", Label: "Subscriber agreement"},
	{Path: "url/SteamIDEditPage", Label: "Edit profile"},
	{Path: "url/SteamIDFriendsPage", Label: "My friends page"},
	{Path: "url/SteamIDMyProfile", Label: "My profile"},
	{Path: profilePath, Label: "Profile"},
	{Path: "url/SteamWorkshop", Label: "Workshop"},
	{Path: "url/SteamWorkshopPage/%a", Label: "Workshop page"},
	{Path: "url/StoreAccount", Label: "Store account"},
	{Path: "url/StoreCart", Label: "Cart"},
	{Path: "validate/%a", Label: "Verify game files", InstalledOnly: true},
	{Path: "viewfriendsgame/%f", Label: "View game"},
}

// Extension action IDs.
const (
	ActionUpdateCache  = "update_cache"
	ActionClearCache   = "clear_cache"
	ActionRebuildCache = "rebuild_cache"
	ActionNoResults    = "no_results"
)

// Action is an extension-level command.
type Action struct {
	ID          string
	Label       string
	Description string
}

// Actions lists the searchable extension actions. no_results is not
// searchable; the search engine emits it when nothing matches.
var Actions = []Action{
	{ID: ActionUpdateCache, Label: "Update cache", Description: "Refresh apps and friends now"},
	{ID: ActionClearCache, Label: "Clear cache", Description: "Delete every cached entry"},
	{ID: ActionRebuildCache, Label: "Rebuild cache", Description: "Clear the cache and refresh every source"},
}
