// Package deck holds the core data model shared by the slide pipeline:
// content nodes extracted from markup, slides, and placed geometry.
package deck

// Kind discriminates the two content node flavors.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// ContentNode is a single leaf content item extracted from a slide's subtree.
// Nodes are immutable once extracted; a text node carries its payload and
// rune count, an image node carries its resolved source and intrinsic
// dimensions when known.
type ContentNode struct {
	Kind  Kind
	Text  string
	Chars int

	Src    string
	Width  int
	Height int
}

// Aspect returns the intrinsic width/height ratio of an image node. When the
// intrinsic size is unknown the documented fallback is a square 1:1.
func (n ContentNode) Aspect() float64 {
	if n.Kind != KindImage || n.Width <= 0 || n.Height <= 0 {
		return 1
	}
	return float64(n.Width) / float64(n.Height)
}

// Slide is one ordered content sequence, indexed by its position in the deck.
type Slide struct {
	Index int
	Nodes []ContentNode
}

// Canvas is the fixed coordinate space of one slide, in points.
type Canvas struct {
	W float64
	H float64
}

// DefaultCanvas matches a classic 4:3 presentation page, 10in by 7.5in.
var DefaultCanvas = Canvas{W: 720, H: 540}

// Box is an absolute bounding box in canvas units.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Right returns the X coordinate of the box's right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the Y coordinate of the box's bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Overlaps reports whether two boxes intersect with positive area.
func (b Box) Overlaps(o Box) bool {
	return b.X < o.Right() && o.X < b.Right() && b.Y < o.Bottom() && o.Y < b.Bottom()
}

// PlacedItem binds one ContentNode of a slide to an absolute box on the
// canvas. Region names the template placeholder the node was assigned to;
// Title marks a text item that should render with title styling.
type PlacedItem struct {
	Node   ContentNode
	Box    Box
	Region string
	Title  bool
}
