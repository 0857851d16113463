package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LaunchStats is the extension-owned usage state of an entity.
// Source refreshes never touch it; only launch events do.
type LaunchStats struct {
	LastLaunchedAt time.Time
	LaunchCount    int64
}

type launchStatsJSON struct {
	At    int64 `json:"at,omitempty"`
	Count int64 `json:"count,omitempty"`
}

// IsZero reports whether the entity was never launched.
func (l LaunchStats) IsZero() bool {
	return l.LaunchCount == 0 && l.LastLaunchedAt.IsZero()
}

// Record registers one launch at the given time.
func (l *LaunchStats) Record(at time.Time) {
	l.LaunchCount++
	l.LastLaunchedAt = at.UTC().Truncate(time.Second)
}

// MarshalJSON encodes the stats as {"at": unix, "count": n}.
func (l LaunchStats) MarshalJSON() ([]byte, error) {
	out := launchStatsJSON{Count: l.LaunchCount}
	if !l.LastLaunchedAt.IsZero() {
		out.At = l.LastLaunchedAt.Unix()
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the object form and the legacy "<unix>x<count>" string.
func (l *LaunchStats) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = LaunchStats{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var legacy string
		if err := json.Unmarshal(data, &legacy); err != nil {
			return err
		}
		parsed, err := ParseLegacyLaunch(legacy)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}

	var raw launchStatsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Count < 0 {
		return fmt.Errorf("negative launch count %d", raw.Count)
	}
	*l = LaunchStats{LaunchCount: raw.Count}
	if raw.At > 0 {
		l.LastLaunchedAt = time.Unix(raw.At, 0).UTC()
	}
	return nil
}

// ParseLegacyLaunch decodes the combined "<unix>x<count>" encoding.
// A bare timestamp counts as a single launch.
func ParseLegacyLaunch(s string) (LaunchStats, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LaunchStats{}, nil
	}

	tsPart, countPart, hasCount := strings.Cut(s, "x")
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return LaunchStats{}, fmt.Errorf("invalid launch timestamp %q: %w", s, err)
	}

	count := int64(1)
	if hasCount {
		count, err = strconv.ParseInt(countPart, 10, 64)
		if err != nil || count < 0 {
			return LaunchStats{}, fmt.Errorf("invalid launch count %q", s)
		}
	}

	stats := LaunchStats{LaunchCount: count}
	if ts > 0 {
		stats.LastLaunchedAt = time.Unix(ts, 0).UTC()
	}
	return stats, nil
}

// FormatLegacyLaunch produces the combined "<unix>x<count>" encoding.
func FormatLegacyLaunch(l LaunchStats) string {
	var ts int64
	if !l.LastLaunchedAt.IsZero() {
		ts = l.LastLaunchedAt.Unix()
	}
	return strconv.FormatInt(ts, 10) + "x" + strconv.FormatInt(l.LaunchCount, 10)
}
