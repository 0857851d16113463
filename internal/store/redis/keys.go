package redis

import "strings"

const (
	// DefaultDocumentKey holds the encoded cache document
	DefaultDocumentKey = "steamjump:cache"
	// lockSuffix is appended to the document key for the writer lock
	lockSuffix = ":lock"
)

// DocumentKey returns the key of the cache document. An empty name
// falls back to DefaultDocumentKey.
func DocumentKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDocumentKey
	}
	return name
}

// LockKey returns the key of the writer lock guarding document.
func LockKey(document string) string {
	return document + lockSuffix
}
