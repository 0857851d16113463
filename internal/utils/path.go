package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the user's home directory.
// The path is returned unchanged when the home directory is unknown.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
