package vdf

import (
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Shortcut is one entry of shortcuts.vdf.
type Shortcut struct {
	AppID         uint32
	AppName       string
	Exe           string
	StartDir      string
	LaunchOptions string
	LastPlayTime  time.Time
	Tags          []string
}

// GameID is the 64-bit id accepted by steam://rungameid/.
func (s Shortcut) GameID() uint64 {
	return uint64(s.AppID)<<32 | 0x02000000
}

// ParseShortcuts decodes a shortcut store into records, in file order.
// An empty stream holds no shortcuts.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := ParseBinary(r)
	if err != nil {
		return nil, err
	}
	if len(root.Fields) == 0 {
		return nil, nil
	}

	list := root.Child("shortcuts")
	if list == nil {
		return nil, fmt.Errorf("%w: missing shortcuts map", domain.ErrMalformedShortcutStore)
	}

	out := make([]Shortcut, 0, len(list.Fields))
	for _, f := range list.Fields {
		if f.Kind != KindObject {
			continue
		}
		out = append(out, shortcutFrom(f.Object))
	}
	return out, nil
}

func shortcutFrom(o *Object) Shortcut {
	s := Shortcut{
		AppName:       o.String("AppName"),
		Exe:           o.String("Exe"),
		StartDir:      o.String("StartDir"),
		LaunchOptions: o.String("LaunchOptions"),
	}

	if id, ok := o.Int("appid"); ok && id != 0 {
		s.AppID = uint32(id)
	} else {
		// Older clients did not store the id; they derived it like this.
		s.AppID = crc32.ChecksumIEEE([]byte(s.Exe+s.AppName)) | 0x80000000
	}

	if ts, ok := o.Int("LastPlayTime"); ok && ts > 0 {
		s.LastPlayTime = time.Unix(ts, 0).UTC()
	}

	if tags := o.Child("tags"); tags != nil {
		for _, tag := range tags.Fields {
			if tag.Kind == KindString && tag.Str != "" {
				s.Tags = append(s.Tags, tag.Str)
			}
		}
	}
	return s
}
