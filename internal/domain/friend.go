package domain

import (
	"strconv"
	"time"
)

// FriendEntry is a Steam friend of the configured account.
//
// Real name and location are always cached; hiding them is a
// presentation concern.
type FriendEntry struct {
	// ID is the SteamID64, string-encoded. Never reused.
	ID string `json:"id"`

	Name        string    `json:"name"`
	RealName    string    `json:"real_name,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	StateCode   string    `json:"state_code,omitempty"`
	CityCode    int       `json:"city_code,omitempty"`
	FriendSince time.Time `json:"friend_since,omitzero"`

	ProfileCreatedAt time.Time `json:"profile_created_at,omitzero"`
	ProfileUpdatedAt time.Time `json:"profile_updated_at,omitzero"`

	AvatarHash     string `json:"avatar_hash,omitempty"`
	PrimaryGroupID string `json:"primary_group_id,omitempty"`

	Launched LaunchStats `json:"launched,omitzero"`
}

// GroupEntry is a Steam group referenced by at least one friend.
// Name may stay empty when no source provided it.
type GroupEntry struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	Launched LaunchStats `json:"launched,omitzero"`
}

// FriendSummary is one row of the remote friend list.
type FriendSummary struct {
	ID          string
	FriendSince time.Time
}

// FriendProfile is the per-friend detail returned by the remote API.
type FriendProfile struct {
	ID               string
	Name             string
	RealName         string
	CountryCode      string
	StateCode        string
	CityCode         int
	FriendSince      time.Time
	ProfileCreatedAt time.Time
	ProfileUpdatedAt time.Time
	AvatarHash       string
	PrimaryGroupID   string
}

// Country is a node of the location tree.
type Country struct {
	Name   string            `json:"name,omitempty"`
	States map[string]*State `json:"states,omitempty"`
}

// State is a node of the location tree. Cities map city IDs to names.
type State struct {
	Name   string         `json:"name,omitempty"`
	Cities map[int]string `json:"cities,omitempty"`
}

// LocationNames holds names fetched for location codes. Keys are
// "CC", "CC/SS" and "CC/SS/cityID".
type LocationNames map[string]string

// LocationKey builds the LocationNames key for a code triple.
func LocationKey(country, state string, city int) string {
	switch {
	case state == "":
		return country
	case city == 0:
		return country + "/" + state
	default:
		return country + "/" + state + "/" + strconv.Itoa(city)
	}
}
