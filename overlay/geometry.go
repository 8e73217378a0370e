package overlay

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/sandbox/camera"
)

// VertexStride is the byte stride per overlay vertex.
//
//	position (vec2<f32>) = 8 bytes  (location 0)
//	color    (vec4<f32>) = 16 bytes (location 1)
//	uv       (vec2<f32>) = 8 bytes  (location 2)
const VertexStride = 32

// Vertex is one overlay vertex in window pixels with a premultiplied colour.
// The colour is scaled by the atlas coverage at UV.
type Vertex struct {
	Position [2]float32
	Color    [4]float32
	UV       [2]float32
}

// Panel colours, premultiplied alpha.
var (
	colorBackground = [4]float32{0.05, 0.05, 0.06, 0.75}
	colorTrack      = [4]float32{0.18, 0.18, 0.2, 0.9}
	colorFill       = [4]float32{0.25, 0.55, 0.85, 1}
	colorFillActive = [4]float32{0.95, 0.65, 0.2, 1}
	colorMarker     = [4]float32{0.95, 0.95, 0.95, 1}
	colorText       = [4]float32{0.9, 0.9, 0.9, 1}
)

var labelPrinter = message.NewPrinter(language.English)

// Label returns the text shown next to a parameter's bar.
func Label(info camera.ParamInfo, v float32) string {
	return labelPrinter.Sprintf("%s %.2f", info.Name, v)
}

// BuildVertices returns the triangle list for the panel showing cam, with
// labels drawn from a. A hidden panel produces no vertices.
func BuildVertices(p *Panel, cam camera.Camera, a *Atlas) []Vertex {
	var b builder
	return b.build(nil, p, cam, a)
}

// builder keeps scratch space between frames.
type builder struct {
	glyphs []placedGlyph
}

// build appends the panel geometry to dst[:0].
func (b *builder) build(dst []Vertex, p *Panel, cam camera.Camera, a *Atlas) []Vertex {
	dst = dst[:0]
	if !p.visible {
		return dst
	}
	solid := a.solidUV()
	dst = appendQuad(dst, p.Bounds(), colorBackground, solid)
	for i, info := range p.params {
		v := camera.Get(cam, info.Param)
		bar := p.BarRect(i)
		dst = appendQuad(dst, bar, colorTrack, solid)

		fill := bar
		fill.W = bar.W * info.Fraction(v)
		c := colorFill
		if i == p.selected {
			c = colorFillActive
			dst = appendQuad(dst, p.MarkerRect(i), colorMarker, solid)
		}
		if fill.W > 0 {
			dst = appendQuad(dst, fill, c, solid)
		}

		label := p.LabelRect(i)
		baseline := float32(int(label.Y + (label.H+a.capHeight)/2))
		b.glyphs = a.layout(b.glyphs[:0], Label(info, v), label.X, baseline, label.X+label.W)
		for _, g := range b.glyphs {
			u0, v0, u1, v1 := a.uv(g.src)
			dst = appendTexturedQuad(dst, g.dst, colorText, u0, v0, u1, v1)
		}
	}
	return dst
}

// appendQuad appends two triangles covering r that sample a single texel.
// Winding is irrelevant: the overlay pipeline does not cull.
func appendQuad(dst []Vertex, r Rect, c [4]float32, uv [2]float32) []Vertex {
	return appendTexturedQuad(dst, r, c, uv[0], uv[1], uv[0], uv[1])
}

// appendTexturedQuad appends two triangles covering r, mapping its corners
// to the atlas rectangle (u0, v0)-(u1, v1).
func appendTexturedQuad(dst []Vertex, r Rect, c [4]float32, u0, v0, u1, v1 float32) []Vertex {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	return append(dst,
		Vertex{Position: [2]float32{x0, y0}, Color: c, UV: [2]float32{u0, v0}},
		Vertex{Position: [2]float32{x1, y0}, Color: c, UV: [2]float32{u1, v0}},
		Vertex{Position: [2]float32{x1, y1}, Color: c, UV: [2]float32{u1, v1}},
		Vertex{Position: [2]float32{x0, y0}, Color: c, UV: [2]float32{u0, v0}},
		Vertex{Position: [2]float32{x1, y1}, Color: c, UV: [2]float32{u1, v1}},
		Vertex{Position: [2]float32{x0, y1}, Color: c, UV: [2]float32{u0, v1}},
	)
}
