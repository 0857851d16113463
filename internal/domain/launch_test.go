package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLaunchStatsUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int64
		wantAt    int64
		wantErr   bool
	}{
		{name: "object form", input: `{"at":1700000000,"count":4}`, wantCount: 4, wantAt: 1700000000},
		{name: "legacy combined string", input: `"1700000000x3"`, wantCount: 3, wantAt: 1700000000},
		{name: "legacy bare timestamp", input: `"1700000000"`, wantCount: 1, wantAt: 1700000000},
		{name: "null", input: `null`},
		{name: "empty object", input: `{}`},
		{name: "negative count", input: `{"count":-1}`, wantErr: true},
		{name: "garbage legacy", input: `"abcx2"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l LaunchStats
			err := json.Unmarshal([]byte(tt.input), &l)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l.LaunchCount != tt.wantCount {
				t.Errorf("count = %d, want %d", l.LaunchCount, tt.wantCount)
			}
			var at int64
			if !l.LastLaunchedAt.IsZero() {
				at = l.LastLaunchedAt.Unix()
			}
			if at != tt.wantAt {
				t.Errorf("at = %d, want %d", at, tt.wantAt)
			}
		})
	}
}

func TestLaunchStatsRecord(t *testing.T) {
	var l LaunchStats
	at := time.Date(2026, 3, 1, 10, 0, 0, 500, time.FixedZone("X", 3600))

	l.Record(at)
	l.Record(at)

	if l.LaunchCount != 2 {
		t.Errorf("count = %d, want 2", l.LaunchCount)
	}
	if l.LastLaunchedAt.Location() != time.UTC || l.LastLaunchedAt.Nanosecond() != 0 {
		t.Errorf("timestamp should be UTC seconds, got %v", l.LastLaunchedAt)
	}
	if got := FormatLegacyLaunch(l); got != "1772355600x2" {
		t.Errorf("legacy encoding = %q", got)
	}
}

func TestLaunchStatsOmittedWhenZero(t *testing.T) {
	data, err := json.Marshal(&NavigationEntry{ID: "s:open/downloads"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"id":"s:open/downloads"}` {
		t.Errorf("unexpected encoding %s", data)
	}
}
