package steamapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

const testKey = "SECRETKEY"

func newTestClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		APIKey:           testKey,
		APIBaseURL:       srv.URL,
		CommunityBaseURL: srv.URL + "/community",
		RequestTimeout:   2 * time.Second,
		Retries:          retries,
		Backoff:          time.Millisecond,
		HTTPClient:       srv.Client(),
	}, logger.NewNop())
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestFetchOwnedApps(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/IPlayerService/GetOwnedGames/v1/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("key") != testKey || q.Get("steamid") != "76561197960287930" || q.Get("include_appinfo") != "1" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"response":{"game_count":2,"games":[
			{"appid":400,"name":" Portal ","playtime_forever":750,"img_icon_url":"abc"},
			{"appid":0,"name":"broken"}
		]}}`)
	})

	apps, err := newTestClient(t, h, 0).FetchOwnedApps(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedApps() error = %v", err)
	}
	want := []domain.OwnedApp{{ID: "400", Name: "Portal", PlaytimeMinutes: 750, IconHash: "abc"}}
	if len(apps) != 1 || apps[0] != want[0] {
		t.Errorf("FetchOwnedApps() = %+v, want %+v", apps, want)
	}
}

func TestFetchFriendList(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"friendslist":{"friends":[
			{"steamid":"76561197960287930","relationship":"friend","friend_since":1700000000},
			{"steamid":"76561197960287931","relationship":"friend","friend_since":0}
		]}}`)
	})

	friends, err := newTestClient(t, h, 0).FetchFriendList(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchFriendList() error = %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("got %d friends, want 2", len(friends))
	}
	if !friends[0].FriendSince.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("FriendSince = %v", friends[0].FriendSince)
	}
	if !friends[1].FriendSince.IsZero() {
		t.Errorf("zero friend_since should map to the zero time")
	}
}

func TestFetchFriendProfilesBatches(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := strings.Split(r.URL.Query().Get("steamids"), ",")
		if len(ids) > summaryBatch {
			http.Error(w, "too many ids", http.StatusBadRequest)
			return
		}
		var rows []string
		for _, id := range ids {
			rows = append(rows, fmt.Sprintf(`{"steamid":%q,"personaname":"p%s","communityvisibilitystate":3,"realname":"Real","avatarhash":%q,"loccountrycode":"US","primaryclanid":"g1"}`, id, id, defaultAvatarHash))
		}
		fmt.Fprintf(w, `{"response":{"players":[%s]}}`, strings.Join(rows, ","))
	})

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	profiles, err := newTestClient(t, h, 0).FetchFriendProfiles(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchFriendProfiles() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2", calls.Load())
	}
	if len(profiles) != 150 {
		t.Fatalf("got %d profiles, want 150", len(profiles))
	}
	p := profiles[0]
	if p.RealName != "Real" || p.CountryCode != "US" || p.PrimaryGroupID != "g1" {
		t.Errorf("public profile = %+v", p)
	}
	if p.AvatarHash != "" {
		t.Errorf("default avatar should be dropped, got %q", p.AvatarHash)
	}
}

func TestMapPlayerPrivateProfile(t *testing.T) {
	p := mapPlayer(playerRow{
		SteamID:                  "1",
		PersonaName:              "ghost",
		CommunityVisibilityState: 1,
		RealName:                 "Hidden",
		LocCountryCode:           "FR",
		AvatarHash:               "deadbeef",
	})
	if p.Name != "ghost" || p.AvatarHash != "deadbeef" {
		t.Errorf("persona fields = %+v", p)
	}
	if p.RealName != "" || p.CountryCode != "" {
		t.Errorf("private profile leaked fields: %+v", p)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"friendslist":{"friends":[]}}`)
	})

	if _, err := newTestClient(t, h, 2).FetchFriendList(context.Background(), "1"); err != nil {
		t.Fatalf("FetchFriendList() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "Access is denied", http.StatusUnauthorized)
	})

	_, err := newTestClient(t, h, 3).FetchFriendList(context.Background(), "1")
	if !errors.Is(err, domain.ErrRemoteFetch) {
		t.Fatalf("error = %v, want ErrRemoteFetch", err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := newTestClient(t, h, 2).FetchOwnedApps(context.Background(), "1")
	if !errors.Is(err, domain.ErrRemoteFetch) {
		t.Fatalf("error = %v, want ErrRemoteFetch", err)
	}
	if calls.Load() != 3 {
		t.Errorf("requests = %d, want 3", calls.Load())
	}
}

func TestResolveIdentity(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("vanityurl") {
		case "gabe":
			fmt.Fprint(w, `{"response":{"steamid":"76561197960287930","success":1}}`)
		default:
			fmt.Fprint(w, `{"response":{"success":42,"message":"No match"}}`)
		}
	})
	c := newTestClient(t, h, 0)

	id, err := c.ResolveIdentity(context.Background(), "gabe")
	if err != nil || id != "76561197960287930" {
		t.Errorf("ResolveIdentity(gabe) = %q, %v", id, err)
	}
	if _, err := c.ResolveIdentity(context.Background(), "nobody"); !errors.Is(err, domain.ErrRemoteFetch) {
		t.Errorf("ResolveIdentity(nobody) error = %v", err)
	}
	if id, err := c.ResolveIdentity(context.Background(), "76561197960287931"); err != nil || id != "76561197960287931" {
		t.Errorf("SteamID64 passthrough = %q, %v", id, err)
	}
}

func TestFetchLocationNames(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/community/actions/QueryLocations/":
			fmt.Fprint(w, `[{"countrycode":"US","hasstates":1,"countryname":"United States"}]`)
		case "/community/actions/QueryLocations/US":
			fmt.Fprint(w, `[{"countrycode":"US","statecode":"WA","statename":"Washington"}]`)
		case "/community/actions/QueryLocations/US/WA":
			fmt.Fprint(w, `[{"countrycode":"US","statecode":"WA","cityid":3961,"cityname":"Bellevue"}]`)
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, h, 0)

	tests := []struct {
		country, state string
		key, want      string
	}{
		{key: "US", want: "United States"},
		{country: "US", key: "US/WA", want: "Washington"},
		{country: "US", state: "WA", key: "US/WA/3961", want: "Bellevue"},
	}
	for _, tt := range tests {
		names, err := c.FetchLocationNames(context.Background(), tt.country, tt.state)
		if err != nil {
			t.Fatalf("FetchLocationNames(%q, %q) error = %v", tt.country, tt.state, err)
		}
		if names[tt.key] != tt.want {
			t.Errorf("FetchLocationNames(%q, %q) = %v, want %s=%s", tt.country, tt.state, names, tt.key, tt.want)
		}
	}
}

func TestMalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "<html><body>Unauthorized</body></html>")
	})

	_, err := newTestClient(t, h, 2).FetchFriendList(context.Background(), "1")
	if !errors.Is(err, domain.ErrRemoteFetch) {
		t.Fatalf("error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
}
