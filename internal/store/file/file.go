// Package file persists the cache document as a JSON file guarded by a
// lock file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/utils"
)

const (
	// DefaultStaleAfter is the age after which a lock file is considered
	// abandoned by a crashed process.
	DefaultStaleAfter = 2 * time.Minute

	lockPollInterval = 25 * time.Millisecond
)

// Store persists the cache document at Path.
type Store struct {
	path       string
	staleAfter time.Duration
	logger     logger.Logger
}

// NewStore creates a file persister. The parent directory is created on
// first save.
func NewStore(path string, staleAfter time.Duration, log logger.Logger) *Store {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Store{
		path:       filepath.Clean(utils.ExpandHome(path)),
		staleAfter: staleAfter,
		logger:     log,
	}
}

// Describe returns the document path.
func (s *Store) Describe() string {
	return s.path
}

// Load reads the document. A missing file is not an error.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Save writes data to a temporary file in the same directory and renames
// it over the document, so readers see either the old or the new bytes.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		utils.Close(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	committed = true
	return nil
}
