// Package classify walks one slide's markup subtree and turns it into an
// ordered sequence of content nodes plus an aggregate manifest describing
// the slide's shape.
package classify

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/maximecaruchet/html2pptx/internal/deck"
)

// SizeLookup resolves an image reference to its intrinsic pixel dimensions.
// Implementations may consult markup attributes, fetched bytes, or nothing at
// all; ok=false means unknown and callers fall back to a square aspect.
type SizeLookup interface {
	Intrinsic(src string) (w, h int, ok bool)
}

// NoLookup is a SizeLookup that never knows the answer.
type NoLookup struct{}

func (NoLookup) Intrinsic(string) (int, int, bool) { return 0, 0, false }

// ErrNoContent reports a subtree that yielded no extractable content. The
// slide is reported rather than silently skipped so the caller can decide.
var ErrNoContent = errors.New("no extractable content in slide subtree")

// Manifest aggregates a slide's content shape. It is derived once and never
// mutated afterwards.
type Manifest struct {
	TextNodes   int
	ImageNodes  int
	TextChars   int
	LongestText int
	TextLens    []int
	Aspects     []float64
}

// FromNodes computes the manifest for an extracted node sequence.
func FromNodes(nodes []deck.ContentNode) Manifest {
	var m Manifest
	for _, n := range nodes {
		switch n.Kind {
		case deck.KindText:
			m.TextNodes++
			m.TextChars += n.Chars
			m.TextLens = append(m.TextLens, n.Chars)
			if n.Chars > m.LongestText {
				m.LongestText = n.Chars
			}
		case deck.KindImage:
			m.ImageNodes++
			m.Aspects = append(m.Aspects, n.Aspect())
		}
	}
	return m
}

// Slide classifies the subtree rooted at the given element into a slide with
// index idx. Image sources are resolved against base when it is non-nil.
func Slide(idx int, root *html.Node, base *url.URL, sizes SizeLookup) (deck.Slide, Manifest, error) {
	if sizes == nil {
		sizes = NoLookup{}
	}
	w := walker{base: base, sizes: sizes}
	if root.Type == html.ElementNode && strings.EqualFold(root.Data, "img") {
		// A slide whose source child is itself an image.
		w.image(root)
	} else {
		w.block(root)
		w.flush()
	}
	if len(w.nodes) == 0 {
		return deck.Slide{}, Manifest{}, fmt.Errorf("slide %d: %w", idx, ErrNoContent)
	}
	return deck.Slide{Index: idx, Nodes: w.nodes}, FromNodes(w.nodes), nil
}

// ImageSources collects the resolved image sources referenced anywhere below
// root, in document order and deduplicated. Callers use it to prefetch image
// bytes before classification so the walk itself stays free of I/O.
func ImageSources(root *html.Node, base *url.URL) []string {
	var srcs []string
	seen := map[string]bool{}
	var dfs func(*html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "img") {
			src := attr(n, "src")
			if src != "" && base != nil {
				if ref, err := url.Parse(src); err == nil {
					src = base.ResolveReference(ref).String()
				}
			}
			if src != "" && !seen[src] {
				seen[src] = true
				srcs = append(srcs, src)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(root)
	return srcs
}

// condComment matches MSO/IE conditional comment leakage that some mail and
// page builders leave in the markup as plain text.
var condComment = regexp.MustCompile(`^\[if mso \| IE\]`)

type walker struct {
	base  *url.URL
	sizes SizeLookup
	nodes []deck.ContentNode
	buf   []string
}

// flush emits the pending inline fragments as one text node.
func (w *walker) flush() {
	if len(w.buf) == 0 {
		return
	}
	text := strings.Join(w.buf, " ")
	w.buf = w.buf[:0]
	if text == "" {
		return
	}
	w.nodes = append(w.nodes, deck.ContentNode{
		Kind:  deck.KindText,
		Text:  text,
		Chars: utf8.RuneCountInString(text),
	})
}

// block walks the children of a block-level container. Inline fragments
// accumulate into one pending text node; a nested block-level element or an
// image flushes the pending text first so source order is preserved and no
// text is counted twice.
func (w *walker) block(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			w.appendFragment(c.Data)
		case html.ElementNode:
			name := strings.ToLower(c.Data)
			switch {
			case name == "img":
				w.flush()
				w.image(c)
			case skippedTag(name):
				// scripts, styles and friends contribute nothing visible
			case inlineTag(name):
				w.inline(c)
			default:
				w.flush()
				w.block(c)
				w.flush()
			}
		}
	}
}

// inline collects text from an inline element into the enclosing block's
// pending node. Images nested inside inline markup still win at the element
// level: the pending text is flushed and the image emitted in place.
func (w *walker) inline(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			w.appendFragment(c.Data)
		case html.ElementNode:
			name := strings.ToLower(c.Data)
			switch {
			case name == "img":
				w.flush()
				w.image(c)
			case skippedTag(name):
			default:
				// Treat anything nested in inline context as inline too;
				// a stray block inside a span still reads as one run.
				w.inline(c)
			}
		}
	}
}

func (w *walker) appendFragment(raw string) {
	s := collapseSpaces(strings.TrimSpace(raw))
	if s == "" || condComment.MatchString(s) {
		return
	}
	w.buf = append(w.buf, s)
}

func (w *walker) image(n *html.Node) {
	src := attr(n, "src")
	if src == "" {
		return
	}
	if w.base != nil {
		if ref, err := url.Parse(src); err == nil {
			src = w.base.ResolveReference(ref).String()
		}
	}
	node := deck.ContentNode{Kind: deck.KindImage, Src: src}
	// Markup width/height attributes are the cheapest intrinsic size source.
	if wd, ht := attrInt(n, "width"), attrInt(n, "height"); wd > 0 && ht > 0 {
		node.Width, node.Height = wd, ht
	} else if wd, ht, ok := w.sizes.Intrinsic(src); ok {
		node.Width, node.Height = wd, ht
	}
	w.nodes = append(w.nodes, node)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func attrInt(n *html.Node, key string) int {
	v := attr(n, key)
	if v == "" {
		return 0
	}
	// Tolerate "640px" style values.
	v = strings.TrimSuffix(v, "px")
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i <= 0 {
		return 0
	}
	return i
}

func skippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "iframe", "template", "head", "svg", "video", "canvas", "form", "input", "button", "select", "textarea":
		return true
	}
	return false
}

func inlineTag(name string) bool {
	switch name {
	case "a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data", "dfn",
		"em", "i", "kbd", "mark", "q", "s", "samp", "small", "span", "strong",
		"sub", "sup", "time", "u", "var", "wbr":
		return true
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
