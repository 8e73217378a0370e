package overlay

import (
	"strings"
	"testing"

	"github.com/gogpu/sandbox/camera"
)

func testAtlas(t *testing.T) *Atlas {
	t.Helper()
	a, err := DefaultAtlas()
	if err != nil {
		t.Fatalf("DefaultAtlas: %v", err)
	}
	return a
}

// glyphVertices returns the vertices that sample glyph masks rather than
// the opaque block.
func glyphVertices(verts []Vertex, a *Atlas) []Vertex {
	solid := a.solidUV()
	var out []Vertex
	for _, v := range verts {
		if v.UV != solid {
			out = append(out, v)
		}
	}
	return out
}

func TestBuildVertices(t *testing.T) {
	a := testAtlas(t)
	p := NewPanel()
	verts := BuildVertices(p, camera.Default(), a)
	if len(verts) == 0 || len(verts)%6 != 0 {
		t.Fatalf("vertex count = %d, want a positive multiple of 6", len(verts))
	}
	b := p.Bounds()
	for i, v := range verts {
		x, y := v.Position[0], v.Position[1]
		if x < b.X || x > b.X+b.W || y < b.Y || y > b.Y+b.H {
			t.Errorf("vertex %d at (%v, %v) outside panel %+v", i, x, y, b)
		}
		// Premultiplied: no channel exceeds alpha.
		for c := range 3 {
			if v.Color[c] > v.Color[3] {
				t.Errorf("vertex %d colour %v not premultiplied", i, v.Color)
				break
			}
		}
		if v.UV[0] < 0 || v.UV[0] > 1 || v.UV[1] < 0 || v.UV[1] > 1 {
			t.Errorf("vertex %d uv %v outside the atlas", i, v.UV)
		}
	}
	if verts[0].Color != colorBackground {
		t.Errorf("first quad colour = %v, want background", verts[0].Color)
	}
}

func TestBuildVerticesEmitsLabels(t *testing.T) {
	a := testAtlas(t)
	p := NewPanel()
	cam := camera.Default()
	glyphs := glyphVertices(BuildVertices(p, cam, a), a)
	if len(glyphs) == 0 || len(glyphs)%6 != 0 {
		t.Fatalf("glyph vertices = %d, want a positive multiple of 6", len(glyphs))
	}

	// Every row carries a label inside its label area.
	for i := range p.Params() {
		lr := p.LabelRect(i)
		n := 0
		for _, v := range glyphs {
			if lr.Contains(v.Position[0], v.Position[1]) {
				n++
			}
		}
		if n == 0 {
			t.Errorf("row %d (%s): no label glyphs in %+v", i, p.Params()[i].Name, lr)
		}
	}
	for i, v := range glyphs {
		if v.Color != colorText {
			t.Fatalf("glyph vertex %d colour = %v, want text colour", i, v.Color)
		}
	}
}

func TestBuildVerticesLabelTracksValue(t *testing.T) {
	a := testAtlas(t)
	p := NewPanel()
	info := p.Params()[0]
	// Both values have the same glyph count but different digits.
	lo, _ := camera.Set(camera.Default(), info.Param, 11)
	hi, _ := camera.Set(camera.Default(), info.Param, 99)

	gl := glyphVertices(BuildVertices(p, lo, a), a)
	gh := glyphVertices(BuildVertices(p, hi, a), a)
	if len(gl) != len(gh) {
		t.Fatalf("glyph vertices %d vs %d, want equal", len(gl), len(gh))
	}
	same := true
	for i := range gl {
		if gl[i].UV != gh[i].UV {
			same = false
			break
		}
	}
	if same {
		t.Error("label glyphs unchanged after the value changed")
	}
}

func TestBuildVerticesFillTracksValue(t *testing.T) {
	a := testAtlas(t)
	p := NewPanel()
	info := p.Params()[0]
	lo, _ := camera.Set(camera.Default(), info.Param, info.Min)
	hi, _ := camera.Set(camera.Default(), info.Param, info.Max)

	solidCount := func(cam camera.Camera) int {
		verts := BuildVertices(p, cam, a)
		return len(verts) - len(glyphVertices(verts, a))
	}
	// At the minimum the selected row draws no fill quad.
	if d := solidCount(hi) - solidCount(lo); d != 6 {
		t.Errorf("fill quad delta = %d vertices, want 6", d)
	}
}

func TestBuildVerticesHidden(t *testing.T) {
	p := NewPanel()
	p.SetVisible(false)
	if verts := BuildVertices(p, camera.Default(), testAtlas(t)); len(verts) != 0 {
		t.Errorf("hidden panel built %d vertices", len(verts))
	}
}

func TestBuilderReuses(t *testing.T) {
	a := testAtlas(t)
	p := NewPanel()
	var b builder
	buf := make([]Vertex, 0, 4096)
	out := b.build(buf, p, camera.Default(), a)
	if &out[0] != &buf[:1][0] {
		t.Error("build did not reuse dst")
	}
	again := b.build(out, p, camera.Default(), a)
	if len(again) != len(out) {
		t.Errorf("second build = %d vertices, want %d", len(again), len(out))
	}
}

func TestLabel(t *testing.T) {
	info := camera.Params()[0]
	got := Label(info, 60)
	if !strings.HasPrefix(got, info.Name+" ") || !strings.HasSuffix(got, "60.00") {
		t.Errorf("Label = %q, want %q followed by 60.00", got, info.Name)
	}
}

func TestAtlas(t *testing.T) {
	a := testAtlas(t)
	w, h := a.Size()
	if w != AtlasWidth || h <= 0 || h > maxAtlasHeight {
		t.Fatalf("atlas size = %dx%d", w, h)
	}
	if len(a.Pixels()) != w*h {
		t.Errorf("pixels = %d bytes, want %d", len(a.Pixels()), w*h)
	}
	if a.Pixels()[0] != 0xff {
		t.Error("opaque block missing at the atlas origin")
	}
	for r := '!'; r <= '~'; r++ {
		if a.glyphs[r].src.Empty() {
			t.Errorf("glyph %q not in the atlas", r)
		}
	}
	if !a.glyphs[' '].src.Empty() {
		t.Error("space has a mask")
	}
}

func TestLayoutClipsAtLimit(t *testing.T) {
	a := testAtlas(t)
	full := a.layout(nil, "Target X -10.00", 0, 20, 1000)
	clipped := a.layout(nil, "Target X -10.00", 0, 20, 30)
	if len(clipped) == 0 || len(clipped) >= len(full) {
		t.Fatalf("clipped = %d glyphs, full = %d", len(clipped), len(full))
	}
	for _, g := range clipped {
		if g.dst.X+g.dst.W > 30 {
			t.Errorf("glyph at %+v past the limit", g.dst)
		}
	}
	for i := 1; i < len(full); i++ {
		if full[i].dst.X <= full[i-1].dst.X {
			t.Errorf("glyph %d not right of glyph %d", i, i-1)
		}
	}
}
