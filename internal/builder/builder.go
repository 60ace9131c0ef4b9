// Package builder runs the core pipeline for one deck: partition the matched
// root into slides, classify each subtree, pick a template, and resolve
// geometry. The whole pass is pure and synchronous; all I/O happens before it.
package builder

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/maximecaruchet/html2pptx/internal/classify"
	"github.com/maximecaruchet/html2pptx/internal/deck"
	"github.com/maximecaruchet/html2pptx/internal/geometry"
	"github.com/maximecaruchet/html2pptx/internal/layout"
	"github.com/maximecaruchet/html2pptx/internal/partition"
)

// ErrEmptyDeck is returned when every slide was skipped and nothing remains
// to emit.
var ErrEmptyDeck = errors.New("no slides with extractable content")

// Issue is one structured entry about a slide that was skipped or degraded.
// Recoverable problems always surface here, never silently.
type Issue struct {
	SlideIndex int    `json:"slide_index"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
}

// BuiltSlide couples one slide with its chosen template and final geometry.
type BuiltSlide struct {
	Slide    deck.Slide
	Manifest classify.Manifest
	Template layout.Template
	Items    []deck.PlacedItem
}

// Result is the ordered outcome of one deck build. Slides keep their source
// order; omitted slides are listed in Issues.
type Result struct {
	Slides []BuiltSlide
	Issues []Issue
}

// Builder holds the per-request configuration of the core pipeline. It keeps
// no mutable state across builds, so one Builder may serve concurrent
// requests.
type Builder struct {
	Canvas   deck.Canvas
	Rules    layout.Rules
	Geometry geometry.Options
	// Sizes resolves intrinsic image dimensions; nil means attribute-only.
	Sizes classify.SizeLookup
}

// BuildDeck converts the matched root element into placed slide geometry.
// Per-slide failures are isolated: a slide without content or beyond every
// template's capacity is reported in the result and the build continues.
func (b *Builder) BuildDeck(root *html.Node, base *url.URL) (*Result, error) {
	canvas := b.Canvas
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = deck.DefaultCanvas
	}

	children, err := partition.Split(root)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, child := range children {
		s, manifest, err := classify.Slide(i, child, base, b.Sizes)
		if err != nil {
			log.Warn().Err(err).Int("slide", i).Msg("skipping slide without content")
			res.Issues = append(res.Issues, Issue{SlideIndex: i, Stage: "classify", Message: err.Error()})
			continue
		}

		built, issues := b.buildSlide(s, manifest, canvas)
		res.Issues = append(res.Issues, issues...)
		if built == nil {
			continue
		}
		res.Slides = append(res.Slides, *built)
	}

	if len(res.Slides) == 0 {
		return res, ErrEmptyDeck
	}
	return res, nil
}

// buildSlide picks a template and resolves geometry, falling back to denser
// templates on region mismatch until the catalog is exhausted.
func (b *Builder) buildSlide(s deck.Slide, m classify.Manifest, canvas deck.Canvas) (*BuiltSlide, []Issue) {
	var issues []Issue
	kind := layout.Choose(m, b.Rules)
	for {
		tpl, err := layout.Build(kind, m)
		if err != nil {
			return nil, append(issues, Issue{SlideIndex: s.Index, Stage: "layout", Message: err.Error()})
		}
		items, err := geometry.Resolve(s, tpl, canvas, b.Geometry)
		if err == nil {
			return &BuiltSlide{Slide: s, Manifest: m, Template: tpl, Items: items}, issues
		}

		var mismatch *geometry.MismatchError
		if !errors.As(err, &mismatch) {
			return nil, append(issues, Issue{SlideIndex: s.Index, Stage: "geometry", Message: err.Error()})
		}
		denser, ok := layout.Denser(kind)
		if !ok {
			log.Warn().Int("slide", s.Index).Str("template", string(kind)).Msg("no template accommodates slide content")
			return nil, append(issues, Issue{
				SlideIndex: s.Index,
				Stage:      "layout",
				Message:    fmt.Sprintf("content exceeds every template: %v", err),
			})
		}
		log.Debug().Int("slide", s.Index).
			Str("from", string(kind)).Str("to", string(denser)).
			Msg("template under-provisioned, falling back")
		issues = append(issues, Issue{
			SlideIndex: s.Index,
			Stage:      "layout",
			Message:    fmt.Sprintf("fell back from %s to %s: %v", kind, denser, err),
		})
		kind = denser
	}
}
