// Package geometry turns a chosen template's relative regions into absolute
// boxes on a canvas, binding every content node to exactly one placed item.
package geometry

import (
	"fmt"

	"github.com/maximecaruchet/html2pptx/internal/deck"
	"github.com/maximecaruchet/html2pptx/internal/layout"
)

// Options carries the geometry tunables.
type Options struct {
	// Margin keeps every placed box this far from the canvas edge, in
	// canvas units. Zero takes DefaultMargin.
	Margin float64
	// ImageFitTolerance is the largest acceptable difference between a box's
	// width/height ratio and the image's intrinsic aspect before the box is
	// shrunk to fit. Zero takes DefaultImageFitTolerance.
	ImageFitTolerance float64
}

const (
	// DefaultMargin is a quarter inch on the default canvas.
	DefaultMargin            = 18.0
	DefaultImageFitTolerance = 0.02
)

func (o Options) withDefaults() Options {
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.ImageFitTolerance <= 0 {
		o.ImageFitTolerance = DefaultImageFitTolerance
	}
	return o
}

// MismatchError reports a template that provisions fewer regions of a kind
// than the slide's manifest demands. Callers fall back to a denser template;
// content is never dropped silently.
type MismatchError struct {
	Kind deck.Kind
	Need int
	Have int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("template under-provisioned: %d %s regions for %d nodes", e.Have, e.Kind, e.Need)
}

// Resolve computes the placed items for one slide under the chosen template.
// Items come back in the slide's source order, each node bound to the next
// region of its kind in reading order.
func Resolve(s deck.Slide, t layout.Template, canvas deck.Canvas, opt Options) ([]deck.PlacedItem, error) {
	opt = opt.withDefaults()

	counts := map[deck.Kind]int{}
	for _, n := range s.Nodes {
		counts[n.Kind]++
	}
	for _, k := range []deck.Kind{deck.KindText, deck.KindImage} {
		if have := t.Count(k); counts[k] > have {
			return nil, &MismatchError{Kind: k, Need: counts[k], Have: have}
		}
	}

	area := deck.Box{
		X: opt.Margin,
		Y: opt.Margin,
		W: canvas.W - 2*opt.Margin,
		H: canvas.H - 2*opt.Margin,
	}
	if area.W <= 0 || area.H <= 0 {
		return nil, fmt.Errorf("canvas %gx%g too small for margin %g", canvas.W, canvas.H, opt.Margin)
	}

	// Per-kind cursor over the template's regions, which are already listed
	// in reading order for each kind.
	next := map[deck.Kind]int{}
	regionFor := func(k deck.Kind) layout.Region {
		i := next[k]
		for _, r := range t.Regions[i:] {
			i++
			if r.Kind == k {
				next[k] = i
				return r
			}
		}
		// Unreachable: counts were checked above.
		panic("geometry: region cursor overrun")
	}

	items := make([]deck.PlacedItem, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		r := regionFor(n.Kind)
		box := deck.Box{
			X: area.X + r.Box.X*area.W,
			Y: area.Y + r.Box.Y*area.H,
			W: r.Box.W * area.W,
			H: r.Box.H * area.H,
		}
		if n.Kind == deck.KindImage {
			box = fitImage(box, n.Aspect(), opt.ImageFitTolerance)
		}
		items = append(items, deck.PlacedItem{Node: n, Box: box, Region: r.Name, Title: r.Title})
	}
	return items, nil
}

// fitImage shrinks box to the image's aspect ratio when the raw box would
// distort it beyond tolerance, centering the result within the original box.
func fitImage(box deck.Box, aspect, tolerance float64) deck.Box {
	if box.W <= 0 || box.H <= 0 || aspect <= 0 {
		return box
	}
	boxAspect := box.W / box.H
	if diff := boxAspect - aspect; diff <= tolerance && diff >= -tolerance {
		return box
	}
	fitted := box
	if boxAspect > aspect {
		fitted.W = box.H * aspect
	} else {
		fitted.H = box.W / aspect
	}
	fitted.X = box.X + (box.W-fitted.W)/2
	fitted.Y = box.Y + (box.H-fitted.H)/2
	return fitted
}
