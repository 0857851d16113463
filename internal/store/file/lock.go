package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

var lockSeq atomic.Uint64

// LockPath returns the lock file guarding the document.
func (s *Store) LockPath() string {
	return s.path + ".lock"
}

// Lock creates the lock file exclusively, polling until it succeeds or
// ctx ends. A lock file older than the stale threshold is removed.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	lockPath := s.LockPath()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	token := fmt.Sprintf("%d-%d-%d\n", os.Getpid(), time.Now().UnixNano(), lockSeq.Add(1))

	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := f.WriteString(token)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(lockPath)
				return nil, fmt.Errorf("failed to write lock file: %w", errors.Join(werr, cerr))
			}
			return func() error { return s.unlock(lockPath, token) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		s.breakStale(lockPath)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// unlock removes the lock file only while it still holds token. A lock
// broken as stale and retaken by another writer is left alone.
func (s *Store) unlock(lockPath, token string) error {
	data, err := os.ReadFile(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lock file: %w", err)
	}
	if string(data) != token {
		s.logger.Warn("cache lock was taken over, not removing it",
			logger.String("path", lockPath))
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// breakStale removes a lock left behind by a process that died while
// holding it.
func (s *Store) breakStale(lockPath string) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return
	}
	if age := time.Since(info.ModTime()); age >= s.staleAfter {
		s.removeIfUnchanged(lockPath, info, age)
	}
}

// removeIfUnchanged moves the lock aside and deletes it only when it is
// still the file described by stale. Another waiter may have broken the
// same lock and taken a fresh one since the stat; that one is put back.
func (s *Store) removeIfUnchanged(lockPath string, stale fs.FileInfo, age time.Duration) {
	aside := fmt.Sprintf("%s.stale-%d-%d", lockPath, os.Getpid(), lockSeq.Add(1))
	if err := os.Rename(lockPath, aside); err != nil {
		return
	}

	moved, err := os.Stat(aside)
	if err == nil && !(os.SameFile(stale, moved) && moved.ModTime().Equal(stale.ModTime())) {
		if err := os.Link(aside, lockPath); err != nil {
			s.logger.Warn("failed to restore cache lock",
				logger.String("path", lockPath),
				logger.Error(err))
		}
		_ = os.Remove(aside)
		return
	}

	_ = os.Remove(aside)
	s.logger.Warn("removed stale cache lock",
		logger.String("path", lockPath),
		logger.Duration("age", age))
}
