// Package pptx writes a built deck as an Office Open XML presentation. The
// package is a plain zip of XML parts: content types, package relationships,
// the presentation part listing slides, and one slide part per built slide
// with text shapes and embedded pictures.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/maximecaruchet/html2pptx/internal/builder"
	"github.com/maximecaruchet/html2pptx/internal/deck"
)

// emuPerPoint converts canvas points to the EMU units OOXML geometry uses.
const emuPerPoint = 12700

// titleFontCentiPt is the run size for title-styled text, in hundredths of a
// point. Autofit shrinks it when the text does not fit its box.
const titleFontCentiPt = 7500

// ImageSource supplies fetched image bytes for embedding. The format string
// is the decoded image format name (png, jpeg, gif, ...).
type ImageSource interface {
	Bytes(src string) (body []byte, format string, ok bool)
}

// Writer emits a presentation for one built deck.
type Writer struct {
	Canvas deck.Canvas
	// Images resolves content node sources to bytes; nil or a miss renders
	// an outlined placeholder box instead of a picture.
	Images ImageSource
	// DebugSlides fills text boxes red so layout boxes are visible.
	DebugSlides bool
}

// Write serializes the deck to out as a .pptx package.
func (w *Writer) Write(out io.Writer, slides []builder.BuiltSlide) error {
	canvas := w.Canvas
	if canvas.W <= 0 || canvas.H <= 0 {
		canvas = deck.DefaultCanvas
	}

	zw := zip.NewWriter(out)

	media := newMediaSet(w.Images)
	slideXML := make([]string, len(slides))
	slideRels := make([]string, len(slides))
	for i, s := range slides {
		slideXML[i], slideRels[i] = w.slidePart(s, media)
	}

	if err := writePart(zw, "[Content_Types].xml", contentTypesXML(len(slides), media.formats())); err != nil {
		return err
	}
	if err := writePart(zw, "_rels/.rels", rootRelsXML); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/presentation.xml", presentationXML(len(slides), canvas)); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/_rels/presentation.xml.rels", presentationRelsXML(len(slides))); err != nil {
		return err
	}
	for i := range slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		if err := writePart(zw, name, slideXML[i]); err != nil {
			return err
		}
		if slideRels[i] != "" {
			relName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)
			if err := writePart(zw, relName, slideRels[i]); err != nil {
				return err
			}
		}
	}
	for _, m := range media.ordered {
		f, err := zw.Create(m.partName())
		if err != nil {
			return fmt.Errorf("create %s: %w", m.partName(), err)
		}
		if _, err := f.Write(m.body); err != nil {
			return fmt.Errorf("write %s: %w", m.partName(), err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	return nil
}

// slidePart renders one slide's XML and, when it embeds pictures, the slide
// relationship part referencing them.
func (w *Writer) slidePart(s builder.BuiltSlide, media *mediaSet) (slide, rels string) {
	var shapes strings.Builder
	var relEntries []string
	shapeID := 2
	relID := 1

	for _, it := range s.Items {
		box := emuBox(it.Box)
		switch it.Node.Kind {
		case deck.KindText:
			shapes.WriteString(w.textShape(shapeID, it, box))
		case deck.KindImage:
			m := media.add(it.Node.Src)
			if m == nil {
				// Image bytes unavailable: keep the box visible so nothing
				// disappears silently.
				shapes.WriteString(placeholderShape(shapeID, it, box))
				break
			}
			rID := fmt.Sprintf("rId%d", relID)
			relID++
			relEntries = append(relEntries, fmt.Sprintf(
				`<Relationship Id=%q Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/%s"/>`,
				rID, m.fileName()))
			shapes.WriteString(pictureShape(shapeID, it, box, rID))
		}
		shapeID++
	}

	slide = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr/>
` + shapes.String() + `    </p:spTree>
  </p:cSld>
</p:sld>`

	if len(relEntries) > 0 {
		rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			strings.Join(relEntries, "") + `</Relationships>`
	}
	return slide, rels
}

type emu struct{ x, y, cx, cy int64 }

func emuBox(b deck.Box) emu {
	return emu{
		x:  int64(b.X * emuPerPoint),
		y:  int64(b.Y * emuPerPoint),
		cx: int64(b.W * emuPerPoint),
		cy: int64(b.H * emuPerPoint),
	}
}

func (w *Writer) textShape(id int, it deck.PlacedItem, box emu) string {
	anchor := "ctr"
	if strings.HasPrefix(it.Region, "caption") {
		anchor = "t"
	}
	var fill string
	if w.DebugSlides {
		fill = `<a:solidFill><a:srgbClr val="FF0000"/></a:solidFill>`
	}
	var pPr, rPr string
	if it.Title {
		pPr = `<a:pPr algn="ctr"/>`
		rPr = fmt.Sprintf(`<a:rPr lang="en-US" sz="%d" dirty="0"/>`, titleFontCentiPt)
	}
	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="Text %d"/>
          <p:cNvSpPr txBox="1"/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>
          <a:prstGeom prst="rect"><a:avLst/></a:prstGeom>
          %s
        </p:spPr>
        <p:txBody>
          <a:bodyPr wrap="square" anchor="%s"><a:normAutofit/></a:bodyPr>
          <a:lstStyle/>
          <a:p>%s<a:r>%s<a:t>%s</a:t></a:r></a:p>
        </p:txBody>
      </p:sp>
`, id, id, box.x, box.y, box.cx, box.cy, fill, anchor, pPr, rPr, escape(it.Node.Text))
}

func pictureShape(id int, it deck.PlacedItem, box emu, rID string) string {
	return fmt.Sprintf(`      <p:pic>
        <p:nvPicPr>
          <p:cNvPr id="%d" name="Picture %d" descr="%s"/>
          <p:cNvPicPr/>
          <p:nvPr/>
        </p:nvPicPr>
        <p:blipFill>
          <a:blip r:embed=%q/>
          <a:stretch><a:fillRect/></a:stretch>
        </p:blipFill>
        <p:spPr>
          <a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>
          <a:prstGeom prst="rect"><a:avLst/></a:prstGeom>
        </p:spPr>
      </p:pic>
`, id, id, escape(it.Node.Src), rID, box.x, box.y, box.cx, box.cy)
}

// placeholderShape keeps the region visible when image bytes were not
// retrievable: an outlined empty box with the source as its name.
func placeholderShape(id int, it deck.PlacedItem, box emu) string {
	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="Missing image" descr="%s"/>
          <p:cNvSpPr/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>
          <a:prstGeom prst="rect"><a:avLst/></a:prstGeom>
          <a:noFill/>
          <a:ln w="12700"><a:solidFill><a:srgbClr val="999999"/></a:solidFill></a:ln>
        </p:spPr>
        <p:txBody><a:bodyPr/><a:lstStyle/><a:p/></p:txBody>
      </p:sp>
`, id, escape(it.Node.Src), box.x, box.y, box.cx, box.cy)
}

func presentationXML(slideCount int, canvas deck.Canvas) string {
	var ids strings.Builder
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+1)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <p:sldIdLst>%s</p:sldIdLst>
  <p:sldSz cx="%d" cy="%d"/>
</p:presentation>`, ids.String(), int64(canvas.W*emuPerPoint), int64(canvas.H*emuPerPoint))
}

func presentationRelsXML(slideCount int) string {
	var rels strings.Builder
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i+1)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + rels.String() + `</Relationships>`
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`

func contentTypesXML(slideCount int, formats []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
`)
	for _, f := range formats {
		fmt.Fprintf(&b, "  <Default Extension=%q ContentType=%q/>\n", f, "image/"+f)
	}
	b.WriteString(`  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, "  <Override PartName=\"/ppt/slides/slide%d.xml\" ContentType=\"application/vnd.openxmlformats-officedocument.presentationml.slide+xml\"/>\n", i+1)
	}
	b.WriteString("</Types>")
	return b.String()
}

// mediaSet deduplicates embedded images across slides and assigns media part
// numbers.
type mediaSet struct {
	source  ImageSource
	bySrc   map[string]*mediaFile
	ordered []*mediaFile
}

type mediaFile struct {
	index  int
	format string
	body   []byte
}

func (m *mediaFile) fileName() string { return fmt.Sprintf("image%d.%s", m.index, m.format) }
func (m *mediaFile) partName() string { return "ppt/media/" + m.fileName() }

func newMediaSet(src ImageSource) *mediaSet {
	return &mediaSet{source: src, bySrc: map[string]*mediaFile{}}
}

// add resolves a source to a media file, fetching bytes from the image source
// on first sight. It returns nil when no bytes are available.
func (m *mediaSet) add(src string) *mediaFile {
	if f, ok := m.bySrc[src]; ok {
		return f
	}
	if m.source == nil {
		m.bySrc[src] = nil
		return nil
	}
	body, format, ok := m.source.Bytes(src)
	if !ok || format == "" {
		m.bySrc[src] = nil
		return nil
	}
	f := &mediaFile{index: len(m.ordered) + 1, format: format, body: body}
	m.bySrc[src] = f
	m.ordered = append(m.ordered, f)
	return f
}

// formats lists the distinct image formats present, for content type defaults.
func (m *mediaSet) formats() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range m.ordered {
		if !seen[f.format] {
			seen[f.format] = true
			out = append(out, f.format)
		}
	}
	return out
}

func writePart(zw *zip.Writer, name, content string) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
