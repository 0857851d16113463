package cachestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// memPersister keeps the document in memory.
type memPersister struct {
	mu    sync.Mutex
	lock  chan struct{}
	data  []byte
	saves int
}

func newMemPersister(data string) *memPersister {
	p := &memPersister{lock: make(chan struct{}, 1)}
	if data != "" {
		p.data = []byte(data)
	}
	return p
}

func (p *memPersister) Load(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.data...), nil
}

func (p *memPersister) Save(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = append([]byte(nil), data...)
	p.saves++
	return nil
}

func (p *memPersister) Lock(ctx context.Context) (func() error, error) {
	select {
	case p.lock <- struct{}{}:
		return func() error { <-p.lock; return nil }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *memPersister) Describe() string { return "memory" }

func newTestStore(p Persister, opts Options) *Store {
	return New(p, opts, logger.New("error", false))
}

func TestStoreLoadCorrupt(t *testing.T) {
	s := newTestStore(newMemPersister(`{"apps": [`), Options{})

	err := s.Load(context.Background())
	if !errors.Is(err, domain.ErrCacheCorrupt) {
		t.Fatalf("Load() error = %v, want ErrCacheCorrupt", err)
	}
	if snap := s.Snapshot(); snap == nil || len(snap.Apps) != 0 {
		t.Errorf("corrupt document should yield an empty snapshot, got %+v", snap)
	}
}

func TestStoreUpdatePersistsOnlyChanges(t *testing.T) {
	p := newMemPersister("")
	s := newTestStore(p, Options{})
	ctx := context.Background()

	merge := func(c *domain.Cache) error {
		MergeInstalledApps(c, installed())
		return nil
	}
	if _, err := s.Update(ctx, merge); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := s.Update(ctx, merge); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if p.saves != 1 {
		t.Errorf("saves = %d, want 1 for an idempotent second merge", p.saves)
	}
	if len(s.Snapshot().Apps) != 2 {
		t.Errorf("snapshot not published")
	}
}

func TestStoreUpdateFailureKeepsSnapshot(t *testing.T) {
	p := newMemPersister("")
	s := newTestStore(p, Options{})
	ctx := context.Background()

	if _, err := s.Update(ctx, func(c *domain.Cache) error {
		MergeFriends(c, friends())
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	before := encode(t, s.Snapshot())

	boom := errors.New("boom")
	_, err := s.Update(ctx, func(c *domain.Cache) error {
		c.Friends = map[string]*domain.FriendEntry{}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v", err)
	}

	if after := encode(t, s.Snapshot()); string(before) != string(after) {
		t.Errorf("failed update changed the snapshot")
	}
	if p.saves != 1 {
		t.Errorf("failed update must not persist, saves = %d", p.saves)
	}
}

func TestStoreAppliesBlacklistOnUpdate(t *testing.T) {
	s := newTestStore(newMemPersister(""), Options{Blacklists: Blacklists{Apps: []string{"400"}}})

	c, err := s.Update(context.Background(), func(c *domain.Cache) error {
		MergeInstalledApps(c, installed())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Apps["400"]; ok {
		t.Errorf("blacklisted app survived the update")
	}
}

func TestStoreRecordLaunch(t *testing.T) {
	s := newTestStore(newMemPersister(""), Options{})
	ctx := context.Background()

	if _, err := s.Update(ctx, func(c *domain.Cache) error {
		MergeInstalledApps(c, installed())
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := s.RecordLaunch(ctx, domain.KindApp, "400", at); err != nil {
			t.Fatalf("RecordLaunch() error = %v", err)
		}
	}
	if err := s.RecordLaunch(ctx, domain.KindNavigation, "s:store/400", at); err != nil {
		t.Fatalf("RecordLaunch(nav) error = %v", err)
	}

	snap := s.Snapshot()
	if got := snap.Apps["400"].Launched; got.LaunchCount != 3 || !got.LastLaunchedAt.Equal(at) {
		t.Errorf("app launch stats = %+v", got)
	}
	if n := snap.Navigations["s:store/400"]; n == nil || n.Launched.LaunchCount != 1 {
		t.Errorf("navigation record = %+v", n)
	}

	err := s.RecordLaunch(ctx, domain.KindFriend, "nobody", at)
	if !errors.Is(err, domain.ErrUnknownItem) {
		t.Errorf("RecordLaunch(unknown) error = %v, want ErrUnknownItem", err)
	}
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(newMemPersister(""), Options{})
	ctx := context.Background()

	if _, err := s.Update(ctx, func(c *domain.Cache) error {
		MergeInstalledApps(c, installed())
		c.Metadata.LastFileRefreshAt = time.Now().UTC()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Apps) != 0 || !snap.Metadata.LastFileRefreshAt.IsZero() {
		t.Errorf("Clear() left data behind: %+v", snap)
	}
}

func TestStoreCommitHooks(t *testing.T) {
	s := newTestStore(newMemPersister(""), Options{})

	var got []int
	s.OnCommit(func(c *domain.Cache) { got = append(got, len(c.Apps)) })

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(context.Background(), func(c *domain.Cache) error {
		MergeInstalledApps(c, installed())
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("hook calls = %v, want [0 2]", got)
	}
}

func TestStoreLockTimeout(t *testing.T) {
	p := newMemPersister("")
	p.lock <- struct{}{} // held by someone else

	s := newTestStore(p, Options{LockTimeout: 20 * time.Millisecond})
	_, err := s.Update(context.Background(), func(*domain.Cache) error { return nil })
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Errorf("Update() error = %v, want ErrLockTimeout", err)
	}
}
