// Package layout holds the fixed template catalog and the deterministic rule
// table that maps a slide's content shape onto one template.
package layout

import (
	"fmt"
	"math"

	"github.com/maximecaruchet/html2pptx/internal/classify"
	"github.com/maximecaruchet/html2pptx/internal/deck"
)

// Kind names one template of the catalog, ordered from sparsest to densest.
type Kind string

const (
	SingleText Kind = "single-text"
	TextList   Kind = "text-list"
	SideImage  Kind = "side-image"
	ImageGrid  Kind = "image-grid"
	Mixed      Kind = "mixed"
)

// catalogOrder lists templates from sparsest to densest. Region-mismatch
// fallback walks this order left to right; Mixed accommodates any manifest.
var catalogOrder = []Kind{SingleText, TextList, SideImage, ImageGrid, Mixed}

// Denser returns the next denser template after k, or ok=false when k is
// already the densest in the catalog.
func Denser(k Kind) (Kind, bool) {
	for i, c := range catalogOrder {
		if c == k && i+1 < len(catalogOrder) {
			return catalogOrder[i+1], true
		}
	}
	return "", false
}

// RelBox is a box expressed as fractions of the canvas content area.
type RelBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Region is a named placeholder within a template. It accepts exactly one
// content kind; Title marks a region rendered with title styling.
type Region struct {
	Name  string
	Box   RelBox
	Kind  deck.Kind
	Title bool
}

// Template is one instantiated arrangement of regions for a manifest. Regions
// of the same kind appear in reading order (top to bottom, left to right).
type Template struct {
	Kind    Kind
	Regions []Region
}

// Count returns the number of regions accepting the given kind.
func (t Template) Count(k deck.Kind) int {
	n := 0
	for _, r := range t.Regions {
		if r.Kind == k {
			n++
		}
	}
	return n
}

const (
	// stackGap separates stacked text regions, as a fraction of the stack.
	stackGap = 0.02
	// minStackHeight keeps short list items legible.
	minStackHeight = 0.08
	// cellGap separates grid cells.
	cellGap = 0.02
	// captionFrac is the share of a grid cell reserved for its caption.
	captionFrac = 0.24
	// textBandFrac is the canvas height share pinned to the text band of the
	// mixed template. The band sits at the top, deterministically.
	textBandFrac = 0.28
	// sideSplit divides the side-image template between text and image.
	sideSplit = 0.48
)

// Build instantiates the template of the given kind for a manifest.
func Build(k Kind, m classify.Manifest) (Template, error) {
	full := RelBox{X: 0, Y: 0, W: 1, H: 1}
	switch k {
	case SingleText:
		return Template{Kind: k, Regions: []Region{{
			Name:  "body",
			Box:   full,
			Kind:  deck.KindText,
			Title: true,
		}}}, nil
	case TextList:
		return Template{Kind: k, Regions: stackText("item", full, m.TextLens)}, nil
	case SideImage:
		if m.TextNodes == 0 {
			// Lone image: give it the whole content area and let aspect
			// fitting center it.
			return Template{Kind: k, Regions: []Region{{
				Name: "image-1", Box: full, Kind: deck.KindImage,
			}}}, nil
		}
		regions := stackText("body", RelBox{X: 0, Y: 0, W: sideSplit, H: 1}, m.TextLens)
		regions = append(regions, Region{
			Name: "image-1",
			Box:  RelBox{X: 1 - sideSplit, Y: 0, W: sideSplit, H: 1},
			Kind: deck.KindImage,
		})
		return Template{Kind: k, Regions: regions}, nil
	case ImageGrid:
		return Template{Kind: k, Regions: gridRegions(full, m.ImageNodes, m.TextNodes)}, nil
	case Mixed:
		if m.TextNodes == 0 {
			return Template{Kind: k, Regions: gridRegions(full, m.ImageNodes, 0)}, nil
		}
		regions := stackText("band", RelBox{X: 0, Y: 0, W: 1, H: textBandFrac}, m.TextLens)
		below := RelBox{X: 0, Y: textBandFrac + stackGap, W: 1, H: 1 - textBandFrac - stackGap}
		regions = append(regions, gridRegions(below, m.ImageNodes, 0)...)
		return Template{Kind: k, Regions: regions}, nil
	}
	return Template{}, fmt.Errorf("unknown template kind %q", k)
}

// stackText lays out one text region per length, stacked top to bottom inside
// area, heights proportional to each text's length with a minimum floor.
func stackText(prefix string, area RelBox, lens []int) []Region {
	n := len(lens)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Region{{Name: prefix, Box: area, Kind: deck.KindText}}
	}
	avail := 1 - stackGap*float64(n-1)
	heights := make([]float64, n)
	spread := avail - minStackHeight*float64(n)
	if spread <= 0 {
		// Too many items for proportional heights; fall back to equal rows.
		for i := range heights {
			heights[i] = avail / float64(n)
		}
	} else {
		total := 0
		for _, l := range lens {
			if l < 1 {
				l = 1
			}
			total += l
		}
		for i, l := range lens {
			if l < 1 {
				l = 1
			}
			heights[i] = minStackHeight + spread*float64(l)/float64(total)
		}
	}
	regions := make([]Region, 0, n)
	y := 0.0
	for i, h := range heights {
		regions = append(regions, Region{
			Name: fmt.Sprintf("%s-%d", prefix, i+1),
			Box: RelBox{
				X: area.X,
				Y: area.Y + y*area.H,
				W: area.W,
				H: h * area.H,
			},
			Kind: deck.KindText,
		})
		y += h + stackGap
	}
	return regions
}

// gridShape picks the most square-ish rows x cols arrangement for n cells,
// preferring more columns than rows on ties.
func gridShape(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// gridRegions tiles n image cells in row-major order inside area. The first
// captions cells additionally carry a caption text region below the image,
// echoing the column arrangement of image-heavy source content.
func gridRegions(area RelBox, n, captions int) []Region {
	if n == 0 {
		return nil
	}
	rows, cols := gridShape(n)
	cellW := (1 - cellGap*float64(cols-1)) / float64(cols)
	cellH := (1 - cellGap*float64(rows-1)) / float64(rows)
	if captions > n {
		captions = n
	}
	regions := make([]Region, 0, n+captions)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		cell := RelBox{
			X: area.X + float64(col)*(cellW+cellGap)*area.W,
			Y: area.Y + float64(row)*(cellH+cellGap)*area.H,
			W: cellW * area.W,
			H: cellH * area.H,
		}
		if i < captions {
			imgH := cell.H * (1 - captionFrac - cellGap)
			regions = append(regions,
				Region{
					Name: fmt.Sprintf("image-%d", i+1),
					Box:  RelBox{X: cell.X, Y: cell.Y, W: cell.W, H: imgH},
					Kind: deck.KindImage,
				},
				Region{
					Name: fmt.Sprintf("caption-%d", i+1),
					Box: RelBox{
						X: cell.X,
						Y: cell.Y + imgH + cell.H*cellGap,
						W: cell.W,
						H: cell.H * captionFrac,
					},
					Kind: deck.KindText,
				})
			continue
		}
		regions = append(regions, Region{
			Name: fmt.Sprintf("image-%d", i+1),
			Box:  cell,
			Kind: deck.KindImage,
		})
	}
	return regions
}
