package layout

import (
	"testing"

	"github.com/maximecaruchet/html2pptx/internal/classify"
	"github.com/maximecaruchet/html2pptx/internal/deck"
)

func TestBuild_SingleTextIsOneTitledRegion(t *testing.T) {
	tpl, err := Build(SingleText, classify.Manifest{TextNodes: 1, TextChars: 10, TextLens: []int{10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tpl.Regions) != 1 {
		t.Fatalf("expected one region, got %d", len(tpl.Regions))
	}
	r := tpl.Regions[0]
	if r.Kind != deck.KindText || !r.Title {
		t.Fatalf("expected a titled text region, got %+v", r)
	}
	if r.Box != (RelBox{X: 0, Y: 0, W: 1, H: 1}) {
		t.Fatalf("expected the full content area, got %+v", r.Box)
	}
}

func TestBuild_TextListProportionalHeights(t *testing.T) {
	lens := []int{10, 90}
	tpl, err := Build(TextList, classify.Manifest{TextNodes: 2, TextLens: lens})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tpl.Count(deck.KindText); got != 2 {
		t.Fatalf("expected 2 text regions, got %d", got)
	}
	a, b := tpl.Regions[0].Box, tpl.Regions[1].Box
	if a.H >= b.H {
		t.Fatalf("longer text should get the taller region: %+v vs %+v", a, b)
	}
	if a.H < minStackHeight || b.H < minStackHeight {
		t.Fatalf("stack heights below floor: %g, %g", a.H, b.H)
	}
	if a.Y >= b.Y {
		t.Fatalf("regions must stack top to bottom: %+v vs %+v", a, b)
	}
}

func TestBuild_TextListManyItemsEqualRows(t *testing.T) {
	lens := make([]int, 15)
	for i := range lens {
		lens[i] = (i + 1) * 10
	}
	tpl, err := Build(TextList, classify.Manifest{TextNodes: len(lens), TextLens: lens})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := tpl.Regions[0].Box.H
	for i, r := range tpl.Regions {
		if diff := r.Box.H - h; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("region %d: expected equal rows when the stack is crowded, got %g vs %g", i, r.Box.H, h)
		}
	}
}

func TestBuild_SideImageSplitsCanvas(t *testing.T) {
	tpl, err := Build(SideImage, classify.Manifest{TextNodes: 1, ImageNodes: 1, TextLens: []int{40}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Count(deck.KindText) != 1 || tpl.Count(deck.KindImage) != 1 {
		t.Fatalf("expected one text and one image region, got %+v", tpl.Regions)
	}
	var text, img RelBox
	for _, r := range tpl.Regions {
		if r.Kind == deck.KindImage {
			img = r.Box
		} else {
			text = r.Box
		}
	}
	if text.X+text.W > img.X+1e-9 {
		t.Fatalf("text and image halves overlap: %+v vs %+v", text, img)
	}
}

func TestBuild_SideImageWithoutTextFillsCanvas(t *testing.T) {
	tpl, err := Build(SideImage, classify.Manifest{ImageNodes: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tpl.Regions) != 1 || tpl.Regions[0].Kind != deck.KindImage {
		t.Fatalf("expected one image region, got %+v", tpl.Regions)
	}
	if tpl.Regions[0].Box != (RelBox{X: 0, Y: 0, W: 1, H: 1}) {
		t.Fatalf("lone image should get the whole area, got %+v", tpl.Regions[0].Box)
	}
}

func TestBuild_ImageGridThreeImagesTwoByTwo(t *testing.T) {
	tpl, err := Build(ImageGrid, classify.Manifest{ImageNodes: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tpl.Count(deck.KindImage); got != 3 {
		t.Fatalf("expected 3 image regions, got %d", got)
	}
	// Three cells in a 2x2 arrangement: two distinct column offsets and two
	// distinct row offsets.
	xs, ys := map[float64]bool{}, map[float64]bool{}
	for _, r := range tpl.Regions {
		xs[r.Box.X] = true
		ys[r.Box.Y] = true
	}
	if len(xs) != 2 || len(ys) != 2 {
		t.Fatalf("expected a 2x2 arrangement, got %d columns and %d rows", len(xs), len(ys))
	}
}

func TestBuild_ImageGridCaptions(t *testing.T) {
	tpl, err := Build(ImageGrid, classify.Manifest{ImageNodes: 4, TextNodes: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Count(deck.KindImage) != 4 {
		t.Fatalf("expected 4 image regions, got %d", tpl.Count(deck.KindImage))
	}
	if tpl.Count(deck.KindText) != 2 {
		t.Fatalf("expected 2 caption regions, got %d", tpl.Count(deck.KindText))
	}
}

func TestBuild_MixedAccommodatesAnyManifest(t *testing.T) {
	manifests := []classify.Manifest{
		{TextNodes: 1, TextLens: []int{200}, ImageNodes: 5},
		{TextNodes: 6, TextLens: []int{10, 20, 30, 40, 50, 60}, ImageNodes: 1},
		{ImageNodes: 9},
		{TextNodes: 3, TextLens: []int{5, 5, 5}},
	}
	for i, m := range manifests {
		tpl, err := Build(Mixed, m)
		if err != nil {
			t.Fatalf("manifest %d: %v", i, err)
		}
		if tpl.Count(deck.KindText) < m.TextNodes {
			t.Fatalf("manifest %d: %d text regions for %d nodes", i, tpl.Count(deck.KindText), m.TextNodes)
		}
		if tpl.Count(deck.KindImage) < m.ImageNodes {
			t.Fatalf("manifest %d: %d image regions for %d nodes", i, tpl.Count(deck.KindImage), m.ImageNodes)
		}
	}
}

func TestBuild_RegionsStayInsideUnitArea(t *testing.T) {
	kinds := []Kind{SingleText, TextList, SideImage, ImageGrid, Mixed}
	m := classify.Manifest{TextNodes: 3, TextLens: []int{30, 60, 90}, TextChars: 180, ImageNodes: 4}
	for _, k := range kinds {
		tpl, err := Build(k, m)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		for _, r := range tpl.Regions {
			if r.Box.X < -1e-9 || r.Box.Y < -1e-9 ||
				r.Box.X+r.Box.W > 1+1e-9 || r.Box.Y+r.Box.H > 1+1e-9 {
				t.Fatalf("%s: region %s outside unit area: %+v", k, r.Name, r.Box)
			}
			if r.Box.W <= 0 || r.Box.H <= 0 {
				t.Fatalf("%s: region %s has non-positive extent: %+v", k, r.Name, r.Box)
			}
		}
	}
}

func TestGridShape(t *testing.T) {
	cases := []struct {
		n, rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{6, 2, 3},
		{7, 3, 3},
		{9, 3, 3},
		{10, 3, 4},
	}
	for _, tc := range cases {
		rows, cols := gridShape(tc.n)
		if rows != tc.rows || cols != tc.cols {
			t.Fatalf("gridShape(%d) = (%d, %d), want (%d, %d)", tc.n, rows, cols, tc.rows, tc.cols)
		}
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	if _, err := Build(Kind("bogus"), classify.Manifest{}); err == nil {
		t.Fatal("expected an error for an unknown template kind")
	}
}
