package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// AtlasWidth is the glyph atlas width in texels. One R8 row is then 256
// bytes, the row alignment texture uploads require.
const AtlasWidth = 256

// LabelSize is the label font size in pixels.
const LabelSize = 13

const (
	maxAtlasHeight = 256
	glyphPad       = 1
	solidSize      = 2 // opaque block at the atlas origin
)

// ErrAtlasFull is returned when the glyphs do not fit the atlas.
var ErrAtlasFull = errors.New("overlay: glyph atlas full")

type glyphEntry struct {
	// src is the glyph's rectangle in the atlas.
	src image.Rectangle
	// offset is the top-left corner relative to the pen on the baseline.
	offset image.Point
}

// Atlas holds coverage masks for printable ASCII in Go Regular at one size,
// plus an opaque block that solid quads sample. Labels are shaped with
// HarfBuzz and drawn from the atlas.
//
// An Atlas is safe for concurrent use.
type Atlas struct {
	img       *image.Alpha
	glyphs    map[rune]glyphEntry
	size      float64
	capHeight float32

	mu     sync.Mutex
	face   *gtfont.Face
	shaper shaping.HarfbuzzShaper
}

// NewAtlas rasterises the label glyphs at size pixels.
func NewAtlas(size float64) (*Atlas, error) {
	sf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse label font: %w", err)
	}
	face, err := opentype.NewFace(sf, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("overlay: label face: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	shapeFace, err := gtfont.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("overlay: parse shaping font: %w", err)
	}

	a := &Atlas{
		img:       image.NewAlpha(image.Rect(0, 0, AtlasWidth, maxAtlasHeight)),
		glyphs:    make(map[rune]glyphEntry, '~'-' '+1),
		size:      size,
		capHeight: float32(face.Metrics().CapHeight.Ceil()),
		face:      shapeFace,
	}
	draw.Draw(a.img, image.Rect(0, 0, solidSize, solidSize), image.Opaque, image.Point{}, draw.Src)

	x, y, rowH := solidSize+glyphPad, 0, solidSize
	for r := ' '; r <= '~'; r++ {
		// The mask is only valid until the next Glyph call.
		dr, mask, mp, _, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		if dr.Empty() {
			a.glyphs[r] = glyphEntry{}
			continue
		}
		w, h := dr.Dx(), dr.Dy()
		if x+w > AtlasWidth {
			x, y, rowH = 0, y+rowH+glyphPad, 0
		}
		if y+h > maxAtlasHeight {
			return nil, fmt.Errorf("%w at %q (%vpx)", ErrAtlasFull, r, size)
		}
		dst := image.Rect(x, y, x+w, y+h)
		draw.Draw(a.img, dst, mask, mp, draw.Src)
		a.glyphs[r] = glyphEntry{src: dst, offset: dr.Min}
		x += w + glyphPad
		rowH = max(rowH, h)
	}
	height := y + rowH
	a.img = a.img.SubImage(image.Rect(0, 0, AtlasWidth, height)).(*image.Alpha)
	slogger().Debug("overlay: glyph atlas built", "size", size, "glyphs", len(a.glyphs), "height", height)
	return a, nil
}

// Size returns the atlas dimensions in texels.
func (a *Atlas) Size() (width, height int) {
	b := a.img.Bounds()
	return b.Dx(), b.Dy()
}

// Pixels returns the coverage texels row by row.
func (a *Atlas) Pixels() []byte {
	_, h := a.Size()
	return a.img.Pix[:h*a.img.Stride]
}

// solidUV addresses the centre of the opaque block.
func (a *Atlas) solidUV() [2]float32 {
	_, h := a.Size()
	return [2]float32{solidSize / 2 / float32(AtlasWidth), solidSize / 2 / float32(h)}
}

// placedGlyph is one glyph quad in window pixels with its atlas source.
type placedGlyph struct {
	dst Rect
	src image.Rectangle
}

// layout shapes s and places its glyphs with the pen starting at x on the
// baseline. Glyphs reaching past limit are dropped.
func (a *Atlas) layout(dst []placedGlyph, s string, x, baseline, limit float32) []placedGlyph {
	runes := []rune(s)
	if len(runes) == 0 {
		return dst
	}
	a.mu.Lock()
	out := a.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      a.face,
		Size:      fixed.Int26_6(a.size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	a.mu.Unlock()

	pen := x
	for _, g := range out.Glyphs {
		e := a.glyphs[runes[g.ClusterIndex]]
		if !e.src.Empty() {
			gx := float32(int(pen+fixedToFloat(g.XOffset))) + float32(e.offset.X)
			gy := baseline - fixedToFloat(g.YOffset) + float32(e.offset.Y)
			r := Rect{X: gx, Y: gy, W: float32(e.src.Dx()), H: float32(e.src.Dy())}
			if r.X+r.W > limit {
				break
			}
			dst = append(dst, placedGlyph{dst: r, src: e.src})
		}
		pen += fixedToFloat(g.XAdvance)
	}
	return dst
}

// uv returns the texture coordinates of the corners of src.
func (a *Atlas) uv(src image.Rectangle) (u0, v0, u1, v1 float32) {
	_, h := a.Size()
	fw, fh := float32(AtlasWidth), float32(h)
	return float32(src.Min.X) / fw, float32(src.Min.Y) / fh, float32(src.Max.X) / fw, float32(src.Max.Y) / fh
}

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }

var (
	defaultAtlasOnce sync.Once
	defaultAtlas     *Atlas
	defaultAtlasErr  error
)

// DefaultAtlas returns the shared atlas at LabelSize.
func DefaultAtlas() (*Atlas, error) {
	defaultAtlasOnce.Do(func() {
		defaultAtlas, defaultAtlasErr = NewAtlas(LabelSize)
	})
	return defaultAtlas, defaultAtlasErr
}
