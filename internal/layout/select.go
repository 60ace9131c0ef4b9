package layout

import "github.com/maximecaruchet/html2pptx/internal/classify"

// Rules carries the named layout thresholds. Zero values take the defaults
// below; the struct is plain data so callers can override per request.
type Rules struct {
	// MinTextLenForMixed is the total character count at which text next to
	// multiple images counts as substantial and forces the mixed template.
	MinTextLenForMixed int
	// ImageGridMinCount is the image count at which the grid template
	// becomes eligible.
	ImageGridMinCount int
}

const (
	// DefaultMinTextLenForMixed mirrors the short-text limit of the layout
	// heuristic this service grew out of.
	DefaultMinTextLenForMixed = 75
	DefaultImageGridMinCount  = 2
)

func (r Rules) withDefaults() Rules {
	if r.MinTextLenForMixed <= 0 {
		r.MinTextLenForMixed = DefaultMinTextLenForMixed
	}
	if r.ImageGridMinCount <= 0 {
		r.ImageGridMinCount = DefaultImageGridMinCount
	}
	return r
}

// Choose maps a manifest to a template kind. The rules form a priority list
// evaluated top to bottom; the first match wins and there is no backtracking.
// Choose is pure: the same manifest and rules always yield the same kind.
func Choose(m classify.Manifest, r Rules) Kind {
	r = r.withDefaults()
	switch {
	case m.ImageNodes == 0 && m.TextNodes == 1:
		return SingleText
	case m.ImageNodes == 0:
		return TextList
	case m.ImageNodes == 1:
		return SideImage
	case m.ImageNodes >= r.ImageGridMinCount && m.TextChars < r.MinTextLenForMixed:
		return ImageGrid
	default:
		return Mixed
	}
}
