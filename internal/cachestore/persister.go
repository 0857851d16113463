package cachestore

import "context"

// Persister stores the encoded cache document and provides the writer
// lock shared by every process using the same document.
type Persister interface {
	// Load returns the last persisted document, or nil when none exists.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the document. Readers never observe a partial write.
	Save(ctx context.Context, data []byte) error

	// Lock blocks until the writer lock is held or ctx ends. The returned
	// func releases it.
	Lock(ctx context.Context) (release func() error, err error)

	// Describe names the backing location for logs.
	Describe() string
}
