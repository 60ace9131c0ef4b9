// Package pdf renders a built deck as a PDF, one page per slide, using the
// same placed geometry as the presentation output.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/deck"
)

// ImageSource supplies fetched image bytes, as in the pptx writer.
type ImageSource interface {
	Bytes(src string) (body []byte, format string, ok bool)
}

// Writer emits the PDF rendition of a deck.
type Writer struct {
	Canvas deck.Canvas
	Images ImageSource
}

const (
	bodyFontPt  = 14
	titleFontPt = 40
	lineHeight  = 18
)

// Write renders every slide to one page of out.
func (w *Writer) Write(out io.Writer, slides []builder.BuiltSlide) error {
	canvas := w.Canvas
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = deck.DefaultCanvas
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: canvas.W, Ht: canvas.H},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	imgSeq := 0
	for _, s := range slides {
		doc.AddPage()
		for _, it := range s.Items {
			switch it.Node.Kind {
			case deck.KindText:
				w.text(doc, tr, it)
			case deck.KindImage:
				imgSeq++
				w.image(doc, it, imgSeq)
			}
		}
	}
	if err := doc.Output(out); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func (w *Writer) text(doc *gofpdf.Fpdf, tr func(string) string, it deck.PlacedItem) {
	align := "L"
	if it.Title {
		doc.SetFont("Helvetica", "B", titleFontPt)
		align = "C"
	} else {
		doc.SetFont("Helvetica", "", bodyFontPt)
	}
	doc.SetXY(it.Box.X, it.Box.Y)
	doc.MultiCell(it.Box.W, lineHeight, tr(it.Node.Text), "", align, false)
}

func (w *Writer) image(doc *gofpdf.Fpdf, it deck.PlacedItem, seq int) {
	if w.Images != nil {
		if body, format, ok := w.Images.Bytes(it.Node.Src); ok {
			if t := pdfImageType(format); t != "" {
				name := fmt.Sprintf("deckimg%d", seq)
				opts := gofpdf.ImageOptions{ImageType: t}
				doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(body))
				doc.ImageOptions(name, it.Box.X, it.Box.Y, it.Box.W, it.Box.H, false, opts, 0, "")
				return
			}
		}
	}
	// No usable bytes: keep the region visible as an outline.
	doc.SetDrawColor(153, 153, 153)
	doc.Rect(it.Box.X, it.Box.Y, it.Box.W, it.Box.H, "D")
}

// pdfImageType maps a decoded format name to the types gofpdf understands.
func pdfImageType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "PNG"
	case "jpeg", "jpg":
		return "JPG"
	case "gif":
		return "GIF"
	}
	return ""
}
