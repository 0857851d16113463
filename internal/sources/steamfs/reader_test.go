package steamfs

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func manifest(id, name string) []byte {
	return []byte(`"AppState"
{
	"appid"		"` + id + `"
	"name"		"` + name + `"
	"installdir"		"` + name + `"
	"SizeOnDisk"		"1000"
}`)
}

// shortcutStore builds a one-entry shortcuts.vdf.
func shortcutStore(appID uint32, name string) []byte {
	var b []byte
	b = append(b, 0x00)
	b = append(b, "shortcuts\x00"...)
	b = append(b, 0x00)
	b = append(b, "0\x00"...)
	b = append(b, 0x02)
	b = append(b, "appid\x00"...)
	b = binary.LittleEndian.AppendUint32(b, appID)
	b = append(b, 0x01)
	b = append(b, "AppName\x00"...)
	b = append(b, name+"\x00"...)
	b = append(b, 0x01)
	b = append(b, "Exe\x00"...)
	b = append(b, "\"/usr/bin/tool\"\x00"...)
	b = append(b, 0x08, 0x08, 0x08)
	return b
}

func TestReaderRead(t *testing.T) {
	primary := t.TempDir()
	second := t.TempDir()

	writeFile(t, filepath.Join(primary, "steamapps", "appmanifest_400.acf"), manifest("400", "Portal"))
	writeFile(t, filepath.Join(primary, "steamapps", "appmanifest_999.acf"), []byte(`"AppState" { "appid" "999"`))
	writeFile(t, filepath.Join(primary, "steamapps", "libraryfolders.vdf"), []byte(`"libraryfolders"
{
	"0" { "path" "`+primary+`" }
	"1" { "path" "`+second+`" }
}`))
	writeFile(t, filepath.Join(second, "steamapps", "appmanifest_620.acf"), manifest("620", "Portal 2"))
	writeFile(t, filepath.Join(second, "steamapps", "appmanifest_400.acf"), manifest("400", "Portal copy"))
	writeFile(t, filepath.Join(primary, "userdata", "22202", "config", "shortcuts.vdf"), shortcutStore(0x80000001, "Tool"))

	r := NewReader(Options{Folders: []string{primary}, DiscoverLibraries: true}, logger.New("error", false))
	snap, err := r.Read(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if snap.FoldersRead != 2 {
		t.Errorf("FoldersRead = %d, want 2", snap.FoldersRead)
	}
	if len(snap.Apps) != 2 {
		t.Fatalf("expected 2 apps, got %+v", snap.Apps)
	}
	if snap.Apps[0].ID != "400" || snap.Apps[0].Name != "Portal" || snap.Apps[0].LibraryPath != primary {
		t.Errorf("primary copy of 400 should win, got %+v", snap.Apps[0])
	}
	if snap.Apps[1].ID != "620" || snap.Apps[1].SizeBytes != 1000 {
		t.Errorf("unexpected second app %+v", snap.Apps[1])
	}

	failures := multierr.Errors(snap.Failures)
	if len(failures) != 1 || !errors.Is(failures[0], domain.ErrMalformedManifest) {
		t.Errorf("expected one malformed manifest failure, got %v", snap.Failures)
	}

	if len(snap.Shortcuts) != 1 {
		t.Fatalf("expected 1 shortcut, got %d", len(snap.Shortcuts))
	}
	sc := snap.Shortcuts[0]
	wantID := strconv.FormatUint(uint64(0x80000001)<<32|0x02000000, 10)
	if sc.ID != wantID || sc.Name != "Tool" || sc.Exe != "/usr/bin/tool" {
		t.Errorf("unexpected shortcut %+v", sc)
	}
}

func TestReaderMalformedShortcutStore(t *testing.T) {
	primary := t.TempDir()
	writeFile(t, filepath.Join(primary, "steamapps", "appmanifest_400.acf"), manifest("400", "Portal"))
	writeFile(t, filepath.Join(primary, "userdata", "1", "config", "shortcuts.vdf"), []byte{0x00, 's', 0x00, 0x09})

	r := NewReader(Options{Folders: []string{primary}, UserdataID: "1"}, logger.New("error", false))
	snap, err := r.Read(context.Background(), "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(snap.Shortcuts) != 0 {
		t.Errorf("malformed store should yield zero shortcuts, got %d", len(snap.Shortcuts))
	}
	if !errors.Is(snap.Failures, domain.ErrMalformedShortcutStore) {
		t.Errorf("expected ErrMalformedShortcutStore, got %v", snap.Failures)
	}
	if len(snap.Apps) != 1 {
		t.Errorf("apps must still be read, got %d", len(snap.Apps))
	}
}

func TestReaderNoFolder(t *testing.T) {
	r := NewReader(Options{Folders: []string{filepath.Join(t.TempDir(), "missing")}}, logger.New("error", false))
	_, err := r.Read(context.Background(), "")
	if !errors.Is(err, domain.ErrNoSteamFolder) {
		t.Errorf("expected ErrNoSteamFolder, got %v", err)
	}
}

func TestUserdataDirSingleCandidate(t *testing.T) {
	primary := t.TempDir()
	for _, d := range []string{"0", "anonymous", "12345"} {
		if err := os.MkdirAll(filepath.Join(primary, "userdata", d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(Options{Folders: []string{primary}}, logger.New("error", false))
	got, ok := r.userdataDir(primary, "")
	if !ok || filepath.Base(got) != "12345" {
		t.Errorf("userdataDir() = %q, %v", got, ok)
	}
}

func TestAccountID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "76561197960287930", want: "22202", ok: true},
		{in: "not-a-number", ok: false},
		{in: "12", ok: false},
	}
	for _, tt := range tests {
		got, ok := AccountID(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("AccountID(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
