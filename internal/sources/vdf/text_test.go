package vdf

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

const portalManifest = `"AppState"
{
	"appid"		"400"
	"Universe"		"1"
	"name"		"Portal"
	"StateFlags"		"4"
	"installdir"		"Portal"
	"LastUpdated"		"1700000000"
	"LastPlayed"		"1700500000"
	"SizeOnDisk"		"4294967296"
	"BytesToStage"		"0"
	// comment line
	"InstalledDepots"
	{
		"401"
		{
			"manifest"		"123"
		}
	}
}
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(portalManifest))
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}

	if m.AppID != "400" || m.Name != "Portal" || m.InstallDir != "Portal" {
		t.Errorf("unexpected identity %+v", m)
	}
	if m.SizeOnDisk != 4294967296 {
		t.Errorf("SizeOnDisk = %d", m.SizeOnDisk)
	}
	if m.StateFlags != 4 {
		t.Errorf("StateFlags = %d", m.StateFlags)
	}
	if m.LastUpdated.Unix() != 1700000000 || m.LastPlayed.Unix() != 1700500000 {
		t.Errorf("timestamps = %v / %v", m.LastUpdated, m.LastPlayed)
	}
}

func TestParseManifestStagingSize(t *testing.T) {
	doc := `"AppState" { "appid" "620" "name" "Portal 2" "SizeOnDisk" "0" "BytesToStage" "1234" }`
	m, err := ParseManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if m.SizeOnDisk != 1234 {
		t.Errorf("SizeOnDisk = %d, want BytesToStage fallback 1234", m.SizeOnDisk)
	}
	if !m.LastPlayed.IsZero() {
		t.Errorf("missing LastPlayed should be zero")
	}
}

func TestParseManifestMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing closing brace", doc: `"AppState" { "appid" "1"`},
		{name: "extra closing brace", doc: `"AppState" { "appid" "1" } }`},
		{name: "unterminated string", doc: `"AppState" { "appid" "1 }`},
		{name: "key without value", doc: `"AppState" { "appid" }`},
		{name: "missing AppState", doc: `"Other" { "appid" "1" }`},
		{name: "missing appid", doc: `"AppState" { "name" "x" }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(tt.doc))
			if !errors.Is(err, domain.ErrMalformedManifest) {
				t.Errorf("expected ErrMalformedManifest, got %v", err)
			}
		})
	}
}

func TestParseTextEscapesAndConditions(t *testing.T) {
	doc := "\xef\xbb\xbf" + `"root"
{
	"quoted"	"say \"hi\"\n"
	"path"		"C:\Games\Steam"
	unquoted	value
	"cond"		"win" [$WIN32]
	"block" [$LINUX]
	{
		"k" "v"
	}
}`
	root, err := ParseText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}

	r := root.Child("ROOT")
	if r == nil {
		t.Fatal("case-insensitive lookup failed")
	}
	if got := r.String("quoted"); got != "say \"hi\"\n" {
		t.Errorf("quoted = %q", got)
	}
	if got := r.String("path"); got != `C:\Games\Steam` {
		t.Errorf("path = %q", got)
	}
	if got := r.String("unquoted"); got != "value" {
		t.Errorf("unquoted = %q", got)
	}
	if got := r.String("cond"); got != "win" {
		t.Errorf("cond = %q", got)
	}
	if got := r.Child("block").String("k"); got != "v" {
		t.Errorf("block.k = %q", got)
	}
}

func TestParseLibraryFolders(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "current layout",
			doc: `"libraryfolders"
{
	"0" { "path" "/home/u/.steam/steam" "apps" { "400" "123" } }
	"1" { "path" "/mnt/games/SteamLibrary" }
}`,
			want: []string{"/home/u/.steam/steam", "/mnt/games/SteamLibrary"},
		},
		{
			name: "legacy layout",
			doc: `"LibraryFolders"
{
	"TimeNextStatsReport" "1700000000"
	"ContentStatsID" "-123"
	"1" "/mnt/games/SteamLibrary"
}`,
			want: []string{"/mnt/games/SteamLibrary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLibraryFolders(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTextDepthLimit(t *testing.T) {
	nested := func(n int) string {
		return strings.Repeat(`"k" { `, n) + strings.Repeat("} ", n)
	}

	if _, err := ParseText(strings.NewReader(nested(maxDepth))); err != nil {
		t.Fatalf("ParseText() at the depth limit: %v", err)
	}

	_, err := ParseText(strings.NewReader(nested(10_000)))
	if !errors.Is(err, domain.ErrMalformedManifest) || !strings.Contains(err.Error(), "nested deeper") {
		t.Errorf("ParseText() deep nesting error = %v", err)
	}
}
