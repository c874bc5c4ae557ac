package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/models"
	"pos-print-service/utils"
)

func countingFetcher(settings *models.Settings, calls *int32) SettingsFetcher {
	return func(ctx context.Context) (*models.Settings, error) {
		atomic.AddInt32(calls, 1)
		return settings, nil
	}
}

func TestSettingsStoreServesCacheWithinTTL(t *testing.T) {
	var calls int32
	clock := utils.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	settings := &models.Settings{Printers: []models.PrinterDefinition{{ID: "p1", Name: "Kitchen", Kind: models.PrinterKindKitchen, Active: true}}}
	store := NewSettingsStore(countingFetcher(settings, &calls), clock, 60*time.Second)

	got := store.Get(context.Background())
	assert.Len(t, got.Printers, 1)

	clock.Advance(59 * time.Second)
	store.Get(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clock.Advance(2 * time.Second)
	store.Get(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSettingsStoreInvalidateForcesFetch(t *testing.T) {
	var calls int32
	clock := utils.NewFakeClock(time.Now())
	store := NewSettingsStore(countingFetcher(&models.Settings{}, &calls), clock, time.Hour)

	store.Get(context.Background())
	store.Invalidate()
	store.Get(context.Background())
	store.Get(context.Background())

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSettingsStoreFailureYieldsEmptyAndIsNotCached(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context) (*models.Settings, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return &models.Settings{Rules: []models.RoutingRule{{Category: "pizza", PrinterID: "p1"}}}, nil
	}
	store := NewSettingsStore(fetch, utils.NewFakeClock(time.Now()), time.Hour)

	first := store.Get(context.Background())
	assert.Empty(t, first.Printers)
	assert.Empty(t, first.Rules)
	assert.Nil(t, first.Branding)

	second := store.Get(context.Background())
	require.Len(t, second.Rules, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSettingsStoreNilSettingsAreEmpty(t *testing.T) {
	store := NewSettingsStore(func(ctx context.Context) (*models.Settings, error) { return nil, nil }, utils.NewFakeClock(time.Now()), time.Hour)

	got := store.Get(context.Background())
	assert.Empty(t, got.Printers)
}

func TestSettingsStoreCoalescesConcurrentMisses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (*models.Settings, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &models.Settings{}, nil
	}
	store := NewSettingsStore(fetch, utils.NewFakeClock(time.Now()), time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Get(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSettingsStoreFetchOutlivesCancelledCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var fetchErrs []error
	fetch := func(ctx context.Context) (*models.Settings, error) {
		once.Do(func() { close(started) })
		<-release
		mu.Lock()
		fetchErrs = append(fetchErrs, ctx.Err())
		mu.Unlock()
		return &models.Settings{Printers: []models.PrinterDefinition{{ID: "k1", Name: "Kitchen", Kind: models.PrinterKindKitchen, Active: true}}}, nil
	}
	store := NewSettingsStore(fetch, utils.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan models.Settings, 1)
	go func() { first <- store.Get(ctx) }()
	<-started
	cancel()
	assert.Empty(t, (<-first).Printers)

	second := make(chan models.Settings, 1)
	go func() { second <- store.Get(context.Background()) }()
	close(release)
	assert.Len(t, (<-second).Printers, 1)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, fetchErrs)
	for _, err := range fetchErrs {
		assert.NoError(t, err)
	}
}
