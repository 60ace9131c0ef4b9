// Package app wires the pipeline together: fetch the page, resolve the deck
// root, prefetch images, run the layout core, and emit the deck documents.
package app

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/cache"
	"github.com/maximecaruchet/html2pptx/internal/classify"
	"github.com/maximecaruchet/html2pptx/internal/deck"
	"github.com/maximecaruchet/html2pptx/internal/dom"
	"github.com/maximecaruchet/html2pptx/internal/fetch"
	"github.com/maximecaruchet/html2pptx/internal/geometry"
	"github.com/maximecaruchet/html2pptx/internal/imagesize"
	"github.com/maximecaruchet/html2pptx/internal/layout"
	"github.com/maximecaruchet/html2pptx/internal/pdf"
	"github.com/maximecaruchet/html2pptx/internal/pptx"
	"github.com/maximecaruchet/html2pptx/internal/validate"
)

const defaultUserAgent = "html2pptx/1.0 (+https://github.com/maximecaruchet/html2pptx)"

// App holds the per-process collaborators. All request-scoped state lives in
// Convert; one App serves concurrent conversions without coordination.
type App struct {
	cfg       Config
	bodyCache *cache.BodyCache
}

// ConvertResult bundles the emitted documents with the structured build
// outcome, so callers can surface skipped slides alongside the deck.
type ConvertResult struct {
	PPTX  []byte
	PDF   []byte
	Build *builder.Result
}

// New prepares an App from configuration, applying cache invalidation
// controls up front.
func New(cfg Config) (*App, error) {
	a := &App{cfg: cfg}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		a.bodyCache = &cache.BodyCache{Dir: cfg.CacheDir}
	}
	return a, nil
}

// Convert runs the whole pipeline for one request and returns the emitted
// deck plus the structured build report.
func (a *App) Convert(ctx context.Context, pageURL, selector string) (*ConvertResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	client := a.newFetchClient()
	body, contentType, err := client.GetHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := dom.Parse(body, contentType)
	if err != nil {
		return nil, err
	}
	root, err := dom.Resolve(doc, selector)
	if err != nil {
		return nil, err
	}

	// All image I/O happens here; the layout core below is pure.
	prober := &imagesize.Prober{Client: client, MaxConcurrent: a.cfg.MaxConcurrentImages}
	srcs := classify.ImageSources(root, base)
	failures := prober.Prefetch(ctx, srcs)
	for src, ferr := range failures {
		log.Warn().Err(ferr).Str("image", src).Msg("image fetch failed; placeholder box will be used")
	}

	b := &builder.Builder{
		Canvas: deck.Canvas{W: a.cfg.CanvasWidth, H: a.cfg.CanvasHeight},
		Rules: layout.Rules{
			MinTextLenForMixed: a.cfg.MinTextLenForMixed,
			ImageGridMinCount:  a.cfg.ImageGridMinCount,
		},
		Geometry: geometry.Options{
			Margin:            a.cfg.Margin,
			ImageFitTolerance: a.cfg.ImageFitTolerance,
		},
		Sizes: prober,
	}
	result, err := b.BuildDeck(root, base)
	if err != nil {
		return nil, err
	}
	for src, ferr := range failures {
		result.Issues = append(result.Issues, builder.Issue{
			SlideIndex: -1,
			Stage:      "image",
			Message:    fmt.Sprintf("%s: %v", src, ferr),
		})
	}

	canvas := b.Canvas
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = deck.DefaultCanvas
	}
	if verr := validate.Deck(result, canvas); verr != nil {
		log.Warn().Err(verr).Msg("geometry invariant violation")
	}

	var pptxBuf bytes.Buffer
	pw := &pptx.Writer{Canvas: canvas, Images: prober, DebugSlides: a.cfg.DebugSlides}
	if err := pw.Write(&pptxBuf, result.Slides); err != nil {
		return nil, fmt.Errorf("write pptx: %w", err)
	}

	out := &ConvertResult{PPTX: pptxBuf.Bytes(), Build: result}
	if a.cfg.EnablePDF {
		var pdfBuf bytes.Buffer
		dw := &pdf.Writer{Canvas: canvas, Images: prober}
		if err := dw.Write(&pdfBuf, result.Slides); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		out.PDF = pdfBuf.Bytes()
	}

	log.Info().
		Str("url", pageURL).
		Str("selector", selector).
		Int("slides", len(result.Slides)).
		Int("issues", len(result.Issues)).
		Msg("deck built")
	return out, nil
}

func (a *App) newFetchClient() *fetch.Client {
	ua := a.cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := a.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := a.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	return &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         ua,
		MaxAttempts:       attempts,
		PerRequestTimeout: timeout,
		Cache:             a.bodyCache,
		RedirectMaxHops:   5,
		MaxConcurrent:     8,
	}
}
