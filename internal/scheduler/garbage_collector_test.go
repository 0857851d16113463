package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

func TestGarbageCollector_Collect(t *testing.T) {
	s := newStore(t)
	log := logger.New("error", false)

	now := time.Now()
	old := domain.LaunchStats{LastLaunchedAt: now.Add(-60 * 24 * time.Hour).UTC(), LaunchCount: 3}
	recent := domain.LaunchStats{LastLaunchedAt: now.Add(-10 * 24 * time.Hour).UTC(), LaunchCount: 1}

	_, err := s.Update(context.Background(), func(c *domain.Cache) error {
		c.Apps["400"] = &domain.AppEntry{ID: "400", Name: "Portal", Sources: []string{domain.SourceFiles}}
		c.Navigations = map[string]*domain.NavigationEntry{
			"s:store/400":                 {ID: "s:store/400", Launched: old},
			"s:store/620":                 {ID: "s:store/620", Launched: old},
			"s:validate/730":              {ID: "s:validate/730", Launched: recent},
			"s:friends/message/765611979": {ID: "s:friends/message/765611979", Launched: old},
			"s:open/downloads":            {ID: "s:open/downloads", Launched: old},
			"update_cache":                {ID: "update_cache", Launched: old},
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	gc := NewGarbageCollector(s, log, time.Hour, 30*24*time.Hour)
	deleted, err := gc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Collect() deleted %d, want 2", deleted)
	}

	navs := s.Snapshot().Navigations
	for _, id := range []string{"s:store/400", "s:validate/730", "s:open/downloads", "update_cache"} {
		if navs[id] == nil {
			t.Errorf("%s should be kept", id)
		}
	}
	for _, id := range []string{"s:store/620", "s:friends/message/765611979"} {
		if navs[id] != nil {
			t.Errorf("%s should be deleted", id)
		}
	}

	// nothing left to collect
	if deleted, _ := gc.Collect(context.Background()); deleted != 0 {
		t.Errorf("second Collect() deleted %d", deleted)
	}
}

func TestGarbageCollector_DefaultThreshold(t *testing.T) {
	gc := NewGarbageCollector(newStore(t), logger.New("error", false), time.Hour, 0)
	if gc.threshold != DefaultGCThreshold {
		t.Errorf("threshold = %v, want %v", gc.threshold, DefaultGCThreshold)
	}
}
