package driver

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// 80mm paper in inches
const paperWidthInches = 3.15

// ChromeSurface prints HTML documents to PDF in headless Chrome, one tab per job,
// and drops the PDFs into a spool directory watched by the host print queue.
type ChromeSurface struct {
	spoolDir   string
	chromePath string
	timeout    time.Duration
	seq        atomic.Uint64
}

// NewChromeSurface creates a new ChromeSurface. chromePath may be empty to auto-detect.
func NewChromeSurface(spoolDir, chromePath string) *ChromeSurface {
	return &ChromeSurface{spoolDir: spoolDir, chromePath: chromePath, timeout: 60 * time.Second}
}

// Ensure ChromeSurface implements Surface
var _ Surface = (*ChromeSurface)(nil)

// DetectChromePath returns the Chrome/Chromium executable, checking the
// configured path first and then common installation paths
func DetectChromePath(configured string) string {
	paths := []string{
		configured,
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Print renders html in a fresh headless tab and writes <spool>/<time>-<seq>-<title>.pdf
func (s *ChromeSurface) Print(ctx context.Context, title, html string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("enable-print-preview", true),
	)
	if chromePath := DetectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("data:text/html;charset=utf-8;base64,"+base64.StdEncoding.EncodeToString([]byte(html))),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(paperWidthInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to render print surface: %w", err)
	}

	if err := os.MkdirAll(s.spoolDir, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}
	name := fmt.Sprintf("%s-%03d-%s.pdf", time.Now().Format("20060102-150405"), s.seq.Add(1)%1000, spoolSafe(title))
	path := filepath.Join(s.spoolDir, name)
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write spool file: %w", err)
	}

	log.Printf("✓ Spooled %s (%d bytes)", path, len(pdf))
	return nil
}

var unsafeSpoolChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func spoolSafe(title string) string {
	s := unsafeSpoolChars.ReplaceAllString(title, "_")
	if s == "" {
		return "ticket"
	}
	if len(s) > 48 {
		s = s[:48]
	}
	return s
}
