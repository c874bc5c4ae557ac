package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"pos-print-service/ticket"
)

const (
	// logo width in printer dots, 48mm at 203dpi
	logoMaxDots  = 384
	logoMaxBytes = 2 << 20
)

// LogoRasterizer turns the branding logo URL into a printable raster
type LogoRasterizer interface {
	Raster(ctx context.Context, logoURL string) (*ticket.Raster, error)
}

// LogoService downloads receipt logos and keeps their rasters in memory
type LogoService struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*ticket.Raster
}

// NewLogoService creates a new LogoService
func NewLogoService(client *http.Client) *LogoService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LogoService{client: client, cache: make(map[string]*ticket.Raster)}
}

// Ensure LogoService implements LogoRasterizer
var _ LogoRasterizer = (*LogoService)(nil)

// Raster returns the cached raster for logoURL, downloading it on first use.
// Failed downloads are not cached.
func (s *LogoService) Raster(ctx context.Context, logoURL string) (*ticket.Raster, error) {
	s.mu.Lock()
	if r, ok := s.cache[logoURL]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	data, err := s.download(ctx, logoURL)
	if err != nil {
		return nil, err
	}
	raster, err := PrepareLogo(data, logoMaxDots)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[logoURL] = raster
	s.mu.Unlock()
	log.Printf("✓ Receipt logo rasterized: %dx%d dots", raster.WidthBytes*8, raster.Height)
	return raster, nil
}

func (s *LogoService) download(ctx context.Context, logoURL string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(logoURL, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("unsupported logo data URL")
		}
		return base64.StdEncoding.DecodeString(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid logo URL: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download logo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download logo: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, logoMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	if len(data) > logoMaxBytes {
		return nil, fmt.Errorf("logo is larger than %d bytes", logoMaxBytes)
	}
	return data, nil
}

// PrepareLogo decodes an image, flattens it onto white, scales it down to maxDots wide
// and converts it to a 1-bit raster
func PrepareLogo(data []byte, maxDots int) (*ticket.Raster, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}
	bounds := img.Bounds()
	log.Printf("📸 Logo decoded: format=%s, bounds=%v", format, bounds)

	flat := imaging.Overlay(imaging.New(bounds.Dx(), bounds.Dy(), color.White), img, image.Pt(0, 0), 1.0)
	var out image.Image = flat
	if bounds.Dx() > maxDots {
		out = imaging.Resize(flat, maxDots, 0, imaging.Lanczos)
	}
	out = imaging.Grayscale(out)

	raster := ticket.RasterizeLogo(out)
	if raster == nil {
		return nil, fmt.Errorf("logo has no pixels")
	}
	return raster, nil
}
