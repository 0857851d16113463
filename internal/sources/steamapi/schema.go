package steamapi

// friendListResponse is the body of ISteamUser/GetFriendList/v1
type friendListResponse struct {
	FriendsList struct {
		Friends []friendRow `json:"friends"`
	} `json:"friendslist"`
}

type friendRow struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

// playerSummariesResponse is the body of ISteamUser/GetPlayerSummaries/v2
type playerSummariesResponse struct {
	Response struct {
		Players []playerRow `json:"players"`
	} `json:"response"`
}

// playerRow holds the public summary of one account. Private profiles
// (communityvisibilitystate != 3) only expose the persona fields.
type playerRow struct {
	SteamID                  string `json:"steamid"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	PersonaName              string `json:"personaname"`
	AvatarHash               string `json:"avatarhash"`
	LastLogoff               int64  `json:"lastlogoff"`
	RealName                 string `json:"realname"`
	PrimaryClanID            string `json:"primaryclanid"`
	TimeCreated              int64  `json:"timecreated"`
	LocCountryCode           string `json:"loccountrycode"`
	LocStateCode             string `json:"locstatecode"`
	LocCityID                int    `json:"loccityid"`
}

// ownedGamesResponse is the body of IPlayerService/GetOwnedGames/v1
type ownedGamesResponse struct {
	Response struct {
		GameCount int       `json:"game_count"`
		Games     []gameRow `json:"games"`
	} `json:"response"`
}

type gameRow struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
}

// vanityResponse is the body of ISteamUser/ResolveVanityURL/v1.
// Success is 1 on a match and 42 when no account has that name.
type vanityResponse struct {
	Response struct {
		Success int    `json:"success"`
		SteamID string `json:"steamid"`
		Message string `json:"message"`
	} `json:"response"`
}

// locationRow is one element of steamcommunity.com/actions/QueryLocations.
// The bare query lists countries, a country query fills the state fields
// and a state query fills the city ones.
type locationRow struct {
	CountryCode string `json:"countrycode"`
	CountryName string `json:"countryname"`
	StateCode   string `json:"statecode"`
	StateName   string `json:"statename"`
	CityID      int    `json:"cityid"`
	CityName    string `json:"cityname"`
}
