package steamapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// defaultAvatarHash is the question-mark avatar of accounts without one.
const defaultAvatarHash = "fef49e7fa7e1997310d705b2a6158ff8dc1cdfeb"

// publicProfile is the communityvisibilitystate of a public profile.
const publicProfile = 3

func mapFriends(rows []friendRow) []domain.FriendSummary {
	out := make([]domain.FriendSummary, 0, len(rows))
	for _, r := range rows {
		if r.SteamID == "" || (r.Relationship != "" && r.Relationship != "friend") {
			continue
		}
		out = append(out, domain.FriendSummary{
			ID:          r.SteamID,
			FriendSince: unix(r.FriendSince),
		})
	}
	return out
}

// mapPlayer converts one summary row. Private profiles keep only the
// persona name and avatar.
func mapPlayer(r playerRow) domain.FriendProfile {
	p := domain.FriendProfile{
		ID:   r.SteamID,
		Name: strings.TrimSpace(r.PersonaName),
	}
	if r.AvatarHash != defaultAvatarHash {
		p.AvatarHash = r.AvatarHash
	}
	if r.CommunityVisibilityState != publicProfile {
		return p
	}
	p.RealName = strings.TrimSpace(r.RealName)
	p.ProfileCreatedAt = unix(r.TimeCreated)
	p.ProfileUpdatedAt = unix(r.LastLogoff)
	p.CountryCode = r.LocCountryCode
	p.StateCode = r.LocStateCode
	p.CityCode = r.LocCityID
	p.PrimaryGroupID = r.PrimaryClanID
	return p
}

func mapGames(rows []gameRow) []domain.OwnedApp {
	out := make([]domain.OwnedApp, 0, len(rows))
	for _, r := range rows {
		if r.AppID <= 0 {
			continue
		}
		out = append(out, domain.OwnedApp{
			ID:              strconv.FormatInt(r.AppID, 10),
			Name:            strings.TrimSpace(r.Name),
			PlaytimeMinutes: r.PlaytimeForever,
			IconHash:        r.ImgIconURL,
		})
	}
	return out
}

// mapLocations keys the names of one QueryLocations answer the way
// domain.LocationKey does for the queried level.
func mapLocations(country, state string, rows []locationRow) domain.LocationNames {
	out := make(domain.LocationNames, len(rows))
	for _, r := range rows {
		switch {
		case country == "":
			if r.CountryCode != "" && r.CountryName != "" {
				out[domain.LocationKey(r.CountryCode, "", 0)] = r.CountryName
			}
		case state == "":
			if r.StateCode != "" && r.StateName != "" {
				out[domain.LocationKey(country, r.StateCode, 0)] = r.StateName
			}
		default:
			if r.CityID != 0 && r.CityName != "" {
				out[domain.LocationKey(country, state, r.CityID)] = r.CityName
			}
		}
	}
	return out
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
