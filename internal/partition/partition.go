// Package partition splits the matched deck root into one slide source per
// direct child element, preserving document order.
package partition

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrNoChildren reports a deck root with no child elements to slice into
// slides. A root with exactly one child is degenerate but valid.
var ErrNoChildren = errors.New("deck root has no child elements")

// Split returns the direct child elements of root, one per slide. Text and
// comment nodes between children carry no slide content and are ignored,
// matching the one level deep contract of the pipeline.
func Split(root *html.Node) ([]*html.Node, error) {
	if root == nil {
		return nil, ErrNoChildren
	}
	var children []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		return nil, ErrNoChildren
	}
	return children, nil
}
