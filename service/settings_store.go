package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pos-print-service/models"
	"pos-print-service/utils"
)

// SettingsFetcher loads printers, routing rules and branding from the backend
type SettingsFetcher func(ctx context.Context) (*models.Settings, error)

// SettingsStore caches settings for a fixed TTL.
// Get never fails: a failed fetch yields empty settings and is not cached.
// Concurrent misses share one fetch.
type SettingsStore struct {
	fetch SettingsFetcher
	clock utils.Clock
	ttl   time.Duration

	mu         sync.Mutex
	cached     *models.Settings
	fetchedAt  time.Time
	generation uint64

	group singleflight.Group
}

// NewSettingsStore creates a new SettingsStore
func NewSettingsStore(fetch SettingsFetcher, clock utils.Clock, ttl time.Duration) *SettingsStore {
	return &SettingsStore{fetch: fetch, clock: clock, ttl: ttl}
}

// Get returns the cached settings, fetching them when the cache is empty or expired
func (s *SettingsStore) Get(ctx context.Context) models.Settings {
	s.mu.Lock()
	if s.cached != nil && s.clock.Now().Sub(s.fetchedAt) < s.ttl {
		settings := *s.cached
		s.mu.Unlock()
		return settings
	}
	gen := s.generation
	s.mu.Unlock()

	// keyed by generation so a fetch started before Invalidate is never shared after it.
	// The fetch is shared, so it runs without the first caller's cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fmt.Sprintf("settings-%d", gen), func() (interface{}, error) {
		settings, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if settings == nil {
			settings = &models.Settings{}
		}

		s.mu.Lock()
		if s.generation == gen {
			s.cached = settings
			s.fetchedAt = s.clock.Now()
		}
		s.mu.Unlock()
		return settings, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			log.Printf("⚠️  Settings fetch failed, printing with empty settings: %v", res.Err)
			return models.Settings{}
		}
		return *res.Val.(*models.Settings)
	case <-ctx.Done():
		log.Printf("⚠️  Settings fetch abandoned, printing with empty settings: %v", ctx.Err())
		return models.Settings{}
	}
}

// Invalidate drops the cache; the next Get always fetches
func (s *SettingsStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.generation++
	log.Printf("✓ Settings cache invalidated")
}
