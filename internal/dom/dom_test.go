package dom

import (
	"errors"
	"testing"
)

const page = `<!DOCTYPE html>
<html><head><title>t</title></head><body>
<div id="deck" class="slides">
  <section>first</section>
  <section>second</section>
</div>
<div class="sidebar">other</div>
</body></html>`

func TestResolve_ByID(t *testing.T) {
	doc, err := Parse([]byte(page), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := Resolve(doc, "#deck")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Data != "div" {
		t.Fatalf("expected the deck div, got <%s>", n.Data)
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	doc, err := Parse([]byte(page), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n, err := Resolve(doc, "div")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == "deck" {
			return
		}
	}
	t.Fatalf("expected the first div in document order, got %+v", n.Attr)
}

func TestResolve_NoMatch(t *testing.T) {
	doc, err := Parse([]byte(page), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Resolve(doc, "#missing")
	var se *SelectorError
	if !errors.As(err, &se) {
		t.Fatalf("expected SelectorError, got %v", err)
	}
	if se.Selector != "#missing" {
		t.Fatalf("error should carry the selector verbatim, got %q", se.Selector)
	}
}

func TestResolve_InvalidSyntax(t *testing.T) {
	doc, err := Parse([]byte(page), "text/html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Resolve(doc, "div[unclosed")
	var se *SelectorError
	if !errors.As(err, &se) {
		t.Fatalf("expected SelectorError, got %v", err)
	}
	if se.Unwrap() == nil {
		t.Fatal("invalid syntax should wrap the compile error")
	}
}

func TestParse_DeclaredCharset(t *testing.T) {
	// "héllo" in ISO-8859-1: é is a single 0xE9 byte.
	raw := []byte("<html><body><p>h\xe9llo</p></body></html>")
	doc, err := Parse(raw, "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("p").Text(); got != "héllo" {
		t.Fatalf("expected decoded text, got %q", got)
	}
}
