package steamfs

import (
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/sources/vdf"
)

// MapManifest converts a parsed manifest to an installed-app candidate.
func MapManifest(m *vdf.Manifest, library string) domain.InstalledApp {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = m.InstallDir
	}
	return domain.InstalledApp{
		ID:            m.AppID,
		Name:          name,
		InstallDir:    m.InstallDir,
		LibraryPath:   library,
		SizeBytes:     m.SizeOnDisk,
		LastUpdatedAt: m.LastUpdated,
		LastPlayedAt:  m.LastPlayed,
	}
}

// MapShortcut converts a shortcut store record to a non-Steam candidate.
func MapShortcut(s vdf.Shortcut) domain.Shortcut {
	return domain.Shortcut{
		ID:            strconv.FormatUint(s.GameID(), 10),
		Name:          strings.TrimSpace(s.AppName),
		Exe:           unquote(s.Exe),
		StartDir:      unquote(s.StartDir),
		LaunchOptions: strings.TrimSpace(s.LaunchOptions),
		LastPlayedAt:  s.LastPlayTime,
	}
}

// unquote strips the quotes Steam puts around paths
func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// steamID64Base is the SteamID64 of account 0 in the public universe.
const steamID64Base = 76561197960265728

// AccountID converts a SteamID64 to the userdata directory name.
func AccountID(steamID64 string) (string, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(steamID64), 10, 64)
	if err != nil || id <= steamID64Base {
		return "", false
	}
	return strconv.FormatUint(id-steamID64Base, 10), true
}
