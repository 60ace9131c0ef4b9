// Package imagesize resolves intrinsic image dimensions for layout. Bytes are
// fetched once up front and kept so the deck emitter can embed them without a
// second round trip.
package imagesize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	// Register decoders for the formats pages commonly reference.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fetcher is the minimal retrieval surface the prober needs.
type Fetcher interface {
	GetImage(ctx context.Context, url string) ([]byte, string, error)
}

// Prober fetches image bytes and probes their intrinsic dimensions. Lookups
// after Prefetch are memory-only, keeping the layout core free of I/O.
type Prober struct {
	Client Fetcher
	// MaxConcurrent bounds the prefetch fan-out. Zero means 4.
	MaxConcurrent int

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	body   []byte
	format string
	w, h   int
	sized  bool
}

// Prefetch retrieves and probes every source once, concurrently. Failures are
// isolated per URL and returned so the caller can report them; a failed image
// simply stays unknown.
func (p *Prober) Prefetch(ctx context.Context, srcs []string) map[string]error {
	limit := p.MaxConcurrent
	if limit <= 0 {
		limit = 4
	}
	seen := map[string]bool{}
	var (
		g, gctx  = errgroup.WithContext(ctx)
		failMu   sync.Mutex
		failures = map[string]error{}
	)
	g.SetLimit(limit)
	for _, src := range srcs {
		if src == "" || seen[src] || p.lookup(src) != nil {
			continue
		}
		seen[src] = true
		src := src
		g.Go(func() error {
			body, _, err := p.Client.GetImage(gctx, src)
			if err != nil {
				failMu.Lock()
				failures[src] = err
				failMu.Unlock()
				return nil
			}
			e := entry{body: body}
			if w, h, format, derr := DecodeSize(body); derr == nil {
				e.w, e.h, e.format, e.sized = w, h, format, true
			}
			p.store(src, e)
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// Intrinsic reports the probed dimensions for a prefetched source.
func (p *Prober) Intrinsic(src string) (int, int, bool) {
	e := p.lookup(src)
	if e == nil || !e.sized {
		return 0, 0, false
	}
	return e.w, e.h, true
}

// Bytes returns the fetched body and detected format for a prefetched source.
func (p *Prober) Bytes(src string) ([]byte, string, bool) {
	e := p.lookup(src)
	if e == nil || len(e.body) == 0 {
		return nil, "", false
	}
	return e.body, e.format, true
}

func (p *Prober) lookup(src string) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[src]; ok {
		return &e
	}
	return nil
}

func (p *Prober) store(src string, e entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entries == nil {
		p.entries = map[string]entry{}
	}
	p.entries[src] = e
}

// DecodeSize probes width, height and format from encoded image bytes without
// decoding the full pixel data.
func DecodeSize(b []byte) (w, h int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}
