package domain

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestDecodeCacheIgnoresUnknownFields(t *testing.T) {
	doc := `{
		"version": 1,
		"legacy_prefs": {"x": 1},
		"apps": {"400": {"name": "Portal", "launched": "1700000000x2", "steam_icon": "abc"}},
		"friends": {"76561197960287930": {"name": "Gabe"}}
	}`

	c, err := DecodeCache([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeCache() error = %v", err)
	}

	app := c.Apps["400"]
	if app == nil || app.ID != "400" || app.Name != "Portal" {
		t.Fatalf("unexpected app %+v", app)
	}
	if app.Launched.LaunchCount != 2 {
		t.Errorf("legacy launch count = %d, want 2", app.Launched.LaunchCount)
	}
	if !app.HasSource(SourceFiles) {
		t.Errorf("untagged app should default to files source, got %v", app.Sources)
	}
	if c.Friends["76561197960287930"].ID != "76561197960287930" {
		t.Errorf("friend ID should be filled from key")
	}
	if c.Navigations == nil || c.Countries == nil {
		t.Errorf("missing collections should be allocated")
	}
}

func TestDecodeCacheCorrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{{{`},
		{name: "wrong collection type", doc: `{"apps": []}`},
		{name: "future version", doc: `{"version": 99}`},
		{name: "null entry", doc: `{"friends": {"1": null}}`},
		{name: "id mismatch", doc: `{"apps": {"1": {"id": "2", "name": "x"}}}`},
		{name: "negative playtime", doc: `{"apps": {"1": {"name": "x", "playtime_minutes": -5}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCache([]byte(tt.doc))
			if !errors.Is(err, ErrCacheCorrupt) {
				t.Errorf("expected ErrCacheCorrupt, got %v", err)
			}
		})
	}
}

func TestEncodeCacheStable(t *testing.T) {
	c := NewCache()
	for _, id := range []string{"30", "10", "20"} {
		c.Apps[id] = &AppEntry{ID: id, Name: "App " + id, Sources: []string{SourceFiles}}
	}
	c.Metadata.LastFileRefreshAt = time.Unix(1700000000, 0).UTC()

	first, err := EncodeCache(c, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := EncodeCache(c.Clone(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding is not stable:\n%s\n%s", first, again)
		}
	}

	round, err := DecodeCache(first)
	if err != nil {
		t.Fatal(err)
	}
	back, _ := EncodeCache(round, 0)
	if !bytes.Equal(first, back) {
		t.Errorf("decode/encode changed the document:\n%s\n%s", first, back)
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := NewCache()
	c.Apps["1"] = &AppEntry{ID: "1", Name: "A", Sources: []string{SourceFiles}}
	c.Countries["US"] = &Country{Name: "United States", States: map[string]*State{
		"WA": {Name: "Washington", Cities: map[int]string{3961: "Bellevue"}},
	}}

	cp := c.Clone()
	cp.Apps["1"].Name = "B"
	cp.Apps["1"].AddSource(SourceAPI)
	cp.Countries["US"].States["WA"].Cities[3961] = "Seattle"

	if c.Apps["1"].Name != "A" || len(c.Apps["1"].Sources) != 1 {
		t.Errorf("app mutated through clone: %+v", c.Apps["1"])
	}
	if c.Countries["US"].States["WA"].Cities[3961] != "Bellevue" {
		t.Errorf("location tree mutated through clone")
	}
}

func TestParseItemKey(t *testing.T) {
	kind, id, err := ParseItemKey("nav:s:friends/message/7656")
	if err != nil || kind != KindNavigation || id != "s:friends/message/7656" {
		t.Errorf("got %q %q %v", kind, id, err)
	}
	if _, _, err := ParseItemKey("bogus:1"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	if _, _, err := ParseItemKey("app:"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem for empty id, got %v", err)
	}
}
