package navigation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

const dateLayout = "Jan 02, 2006"

// AppDescription renders playtime, last launch and install location,
// e.g. "12.5 hrs | Mar 01, 2026 | SteamLibrary: 4.29 GB".
func AppDescription(app *domain.AppEntry) string {
	var parts []string
	if !app.Installed() {
		parts = append(parts, "Not installed")
	}
	if app.PlaytimeMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%.1f hrs", float64(app.PlaytimeMinutes)/60))
	}
	if at := lastUse(app.Launched, app.LastPlayedAt); !at.IsZero() {
		parts = append(parts, at.Format(dateLayout))
	}
	if app.Installed() {
		loc := filepath.Base(app.LibraryPath)
		switch {
		case app.LibraryPath != "" && app.SizeBytes > 0:
			parts = append(parts, loc+": "+FormatSize(app.SizeBytes))
		case app.LibraryPath != "":
			parts = append(parts, loc)
		case app.SizeBytes > 0:
			parts = append(parts, FormatSize(app.SizeBytes))
		}
	}
	return strings.Join(parts, " | ")
}

// NonSteamDescription shows the last launch and the executable.
func NonSteamDescription(app *domain.NonSteamAppEntry) string {
	var parts []string
	if at := lastUse(app.Launched, app.LastPlayedAt); !at.IsZero() {
		parts = append(parts, at.Format(dateLayout))
	}
	if app.Exe != "" {
		parts = append(parts, app.Exe)
	}
	return strings.Join(parts, " | ")
}

// FriendDescription shows the real name and location allowed by the
// real info setting.
func (d *Deriver) FriendDescription(c *domain.Cache, f *domain.FriendEntry) string {
	var parts []string
	showName := d.opts.RealInfo == RealInfoAll || d.opts.RealInfo == RealInfoName
	showLocation := d.opts.RealInfo == RealInfoAll || d.opts.RealInfo == RealInfoLocation

	if showName && f.RealName != "" {
		parts = append(parts, f.RealName)
	}
	if showLocation {
		if loc := Location(c, f); loc != "" {
			parts = append(parts, loc)
		}
	}
	return strings.Join(parts, " | ")
}

// Location renders "City, State, Country" from the location tree,
// falling back to the raw codes for unnamed nodes.
func Location(c *domain.Cache, f *domain.FriendEntry) string {
	if f.CountryCode == "" {
		return ""
	}
	country := c.Countries[f.CountryCode]
	countryName := f.CountryCode
	if country != nil && country.Name != "" {
		countryName = country.Name
	}

	var parts []string
	if f.StateCode != "" {
		var state *domain.State
		if country != nil {
			state = country.States[f.StateCode]
		}
		if f.CityCode != 0 && state != nil && state.Cities[f.CityCode] != "" {
			parts = append(parts, state.Cities[f.CityCode])
		}
		if state != nil && state.Name != "" {
			parts = append(parts, state.Name)
		} else {
			parts = append(parts, f.StateCode)
		}
	}
	parts = append(parts, countryName)
	return strings.Join(parts, ", ")
}

// FormatSize renders bytes with decimal units and two decimals, capped
// at TB.
func FormatSize(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d B", n)
	}
	value, prefix := humanize.ComputeSI(float64(n))
	switch prefix {
	case "", "k", "M", "G", "T":
		return fmt.Sprintf("%.2f %sB", value, strings.ToUpper(prefix))
	default:
		return fmt.Sprintf("%.2f TB", float64(n)/1e12)
	}
}

func lastUse(l domain.LaunchStats, played time.Time) time.Time {
	if l.LastLaunchedAt.After(played) {
		return l.LastLaunchedAt
	}
	return played
}
