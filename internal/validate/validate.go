// Package validate checks built deck geometry against the layout invariants:
// boxes stay on canvas, distinct items never overlap, and every slide node is
// placed exactly once.
package validate

import (
	"fmt"
	"math"

	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/deck"
)

// epsilon absorbs floating point noise from fractional region math.
const epsilon = 1e-6

// Deck validates every built slide, returning the first violation found.
func Deck(res *builder.Result, canvas deck.Canvas) error {
	for _, s := range res.Slides {
		if err := Slide(s, canvas); err != nil {
			return err
		}
	}
	return nil
}

// Slide checks one built slide.
func Slide(s builder.BuiltSlide, canvas deck.Canvas) error {
	if len(s.Items) != len(s.Slide.Nodes) {
		return fmt.Errorf("slide %d: %d nodes but %d placed items", s.Slide.Index, len(s.Slide.Nodes), len(s.Items))
	}
	for i, it := range s.Items {
		if it.Node != s.Slide.Nodes[i] {
			return fmt.Errorf("slide %d: item %d out of source order", s.Slide.Index, i)
		}
		b := it.Box
		if b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("slide %d: item %d has empty box", s.Slide.Index, i)
		}
		if b.X < -epsilon || b.Y < -epsilon || b.Right() > canvas.W+epsilon || b.Bottom() > canvas.H+epsilon {
			return fmt.Errorf("slide %d: item %d box %+v exceeds canvas %gx%g", s.Slide.Index, i, b, canvas.W, canvas.H)
		}
		if it.Node.Kind == deck.KindImage && it.Node.Width > 0 && it.Node.Height > 0 {
			want := float64(it.Node.Width) / float64(it.Node.Height)
			if got := b.W / b.H; math.Abs(got-want) > 0.05 {
				return fmt.Errorf("slide %d: item %d aspect %g drifted from intrinsic %g", s.Slide.Index, i, got, want)
			}
		}
	}
	for i := 0; i < len(s.Items); i++ {
		for j := i + 1; j < len(s.Items); j++ {
			a, b := shrink(s.Items[i].Box), shrink(s.Items[j].Box)
			if a.Overlaps(b) {
				return fmt.Errorf("slide %d: items %d and %d overlap", s.Slide.Index, i, j)
			}
		}
	}
	return nil
}

// shrink pulls box edges in by epsilon so touching edges do not count as
// overlap.
func shrink(b deck.Box) deck.Box {
	return deck.Box{X: b.X + epsilon, Y: b.Y + epsilon, W: b.W - 2*epsilon, H: b.H - 2*epsilon}
}
