package app

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/dom"
	"github.com/maximecaruchet/html2pptx/internal/fetch"
)

const testPage = `<!DOCTYPE html>
<html><body>
<div id="deck">
  <section><h1>Welcome</h1></section>
  <section><p>A paragraph next to a picture.</p><img src="/img/photo.png"></section>
</div>
</body></html>`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 400, 300))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	})
	mux.HandleFunc("/img/photo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img.Bytes())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConvert_EndToEnd(t *testing.T) {
	srv := testServer(t)
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	res, err := a.Convert(context.Background(), srv.URL+"/page", "#deck")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Build.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(res.Build.Slides))
	}
	if len(res.Build.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", res.Build.Issues)
	}
	if res.PDF != nil {
		t.Fatal("PDF output should be opt-in")
	}

	zr, err := zip.NewReader(bytes.NewReader(res.PPTX), int64(len(res.PPTX)))
	if err != nil {
		t.Fatalf("output is not a zip package: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	joined := strings.Join(names, "\n")
	for _, want := range []string{
		"ppt/presentation.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/media/image1.png",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("package missing %s:\n%s", want, joined)
		}
	}
}

func TestConvert_EnablePDF(t *testing.T) {
	srv := testServer(t)
	a, err := New(Config{EnablePDF: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	res, err := a.Convert(context.Background(), srv.URL+"/page", "#deck")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !bytes.HasPrefix(res.PDF, []byte("%PDF")) {
		t.Fatalf("expected a PDF rendition, got %d bytes", len(res.PDF))
	}
}

func TestConvert_SelectorMiss(t *testing.T) {
	srv := testServer(t)
	a, _ := New(Config{})
	_, err := a.Convert(context.Background(), srv.URL+"/page", "#no-such-root")
	var se *dom.SelectorError
	if !errors.As(err, &se) {
		t.Fatalf("expected SelectorError, got %v", err)
	}
}

func TestConvert_UnreachablePage(t *testing.T) {
	srv := testServer(t)
	srv.Close()
	a, _ := New(Config{MaxAttempts: 1})
	_, err := a.Convert(context.Background(), srv.URL+"/page", "#deck")
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected typed fetch error, got %v", err)
	}
}

func TestConvert_ImageFailureDegradesNotFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="deck">
			<section><p>text</p><img src="/gone.png"></section>
		</div></body></html>`))
	})
	mux.HandleFunc("/gone.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, _ := New(Config{MaxAttempts: 1})
	res, err := a.Convert(context.Background(), srv.URL+"/page", "#deck")
	if err != nil {
		t.Fatalf("a broken image must not fail the conversion: %v", err)
	}
	if len(res.Build.Slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(res.Build.Slides))
	}
	var imageIssue bool
	for _, is := range res.Build.Issues {
		if is.Stage == "image" {
			imageIssue = true
		}
	}
	if !imageIssue {
		t.Fatalf("the failed image should be reported: %+v", res.Build.Issues)
	}

	// The slide still places both nodes; the image renders as a placeholder.
	zr, err := zip.NewReader(bytes.NewReader(res.PPTX), int64(len(res.PPTX)))
	if err != nil {
		t.Fatalf("reopen package: %v", err)
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			t.Fatalf("no media expected for a failed image, found %s", f.Name)
		}
	}
}

func TestConvert_EmptyDeckRoot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="deck">no element children</div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, _ := New(Config{})
	_, err := a.Convert(context.Background(), srv.URL+"/page", "#deck")
	if err == nil {
		t.Fatal("expected an error for a childless deck root")
	}
}

func TestConvert_UsesCacheAcrossRequests(t *testing.T) {
	var pageHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		pageHits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="deck"><section><h1>Hi</h1></section></div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, err := New(Config{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := a.Convert(context.Background(), srv.URL+"/page", "#deck"); err != nil {
			t.Fatalf("convert %d: %v", i, err)
		}
	}
	if pageHits != 2 {
		t.Fatalf("expected a revalidation on the second request, got %d hits", pageHits)
	}
}

func TestNew_CacheClear(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.body")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if _, err := New(Config{CacheDir: dir, CacheClear: true}); err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("cache clear should remove existing entries")
	}
}

func TestIssue_JSONShapeForTheResponseHeader(t *testing.T) {
	issues := []builder.Issue{{SlideIndex: 1, Stage: "classify", Message: "empty"}}
	b, err := json.Marshal(issues)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"slide_index":1`) {
		t.Fatalf("unexpected JSON shape: %s", b)
	}
}
