package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-print-service/ticket"
	"pos-print-service/utils"
)

type fakeSurface struct {
	mu     sync.Mutex
	titles []string
	pages  []string
	err    error
}

func (s *fakeSurface) Print(_ context.Context, title, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	s.pages = append(s.pages, html)
	return s.err
}

func (s *fakeSurface) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titles)
}

func TestBrowserDriverStaggersCopies(t *testing.T) {
	surface := &fakeSurface{}
	clock := utils.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	d := NewBrowserDriver(surface, clock, 750*time.Millisecond)

	err := d.Deliver(context.Background(), Delivery{JobID: "job-1", Document: sampleDocument(), Copies: 3})
	require.NoError(t, err)
	d.Wait()

	assert.Equal(t, 3, surface.calls())
	assert.Equal(t, []time.Duration{750 * time.Millisecond, 750 * time.Millisecond}, clock.Waits())
	for _, page := range surface.pages {
		assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
		assert.Contains(t, page, "Receipt #7")
	}
}

func TestBrowserDriverIsOptimistic(t *testing.T) {
	surface := &fakeSurface{err: errors.New("no printer")}
	d := NewBrowserDriver(surface, utils.NewFakeClock(time.Now()), time.Second)

	require.NoError(t, d.Deliver(context.Background(), Delivery{Document: sampleDocument()}))
	d.Wait()
	assert.Equal(t, 1, surface.calls())
}

func TestBrowserDriverSkipsEmptyDocument(t *testing.T) {
	surface := &fakeSurface{}
	d := NewBrowserDriver(surface, utils.NewFakeClock(time.Now()), time.Second)

	require.NoError(t, d.Deliver(context.Background(), Delivery{Document: ticket.Document{}}))
	d.Wait()
	assert.Zero(t, surface.calls())
}

func TestDetectChromePathPrefersConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	assert.Equal(t, path, DetectChromePath(path))
}

func TestSpoolSafe(t *testing.T) {
	assert.Equal(t, "Receipt_1042", spoolSafe("Receipt #1042"))
	assert.Equal(t, "ticket", spoolSafe(""))
	assert.Len(t, spoolSafe(strings.Repeat("a", 100)), 48)
}
