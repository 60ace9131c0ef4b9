// Package dom parses fetched markup into a navigable tree and resolves the
// CSS selector that identifies the deck root element.
package dom

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// SelectorError reports a selector that could not be resolved to a usable
// deck root: invalid syntax or zero matches. It carries the selector string
// so the failure can be reported verbatim to the user.
type SelectorError struct {
	Selector string
	Reason   string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector %q: %s", e.Selector, e.Reason)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// Parse decodes raw markup into a document, honoring the declared charset of
// the response before handing bytes to the HTML parser.
func Parse(raw []byte, contentType string) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Resolve returns the first element matching the CSS selector. Matching more
// than one element is fine; the first match in document order wins, which is
// what page authors expect from a deck root selector.
func Resolve(doc *goquery.Document, selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Reason: "invalid syntax", Err: err}
	}
	match := doc.FindMatcher(sel)
	if match.Length() == 0 {
		return nil, &SelectorError{Selector: selector, Reason: "matched no elements"}
	}
	return match.Get(0), nil
}
