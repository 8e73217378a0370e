// Package overlay draws an interactive camera parameter panel over the
// rendered mesh.
//
// The panel is a column of horizontal bars, one per camera.Param, in the
// top-left corner of the window. Each bar's fill shows where the current
// value lies in the parameter's range, and a label beside it names the
// parameter and its value. The selected row is marked; the
// keyboard moves the selection and steps the value, and dragging a bar
// sets the value directly.
//
// The panel never mutates the camera itself. It calls Controls, whose
// implementation is responsible for recomputing and uploading the camera
// transform after each change.
package overlay

import (
	"github.com/gogpu/sandbox/camera"
)

// Controls is the camera owner the panel edits.
type Controls interface {
	Camera() camera.Camera

	// SetCameraParam applies a new value and reports whether it was accepted.
	SetCameraParam(p camera.Param, v float32) bool
}

// Key is a panel keyboard command.
type Key int

const (
	KeyNone Key = iota
	KeyNext
	KeyPrev
	KeyIncrease
	KeyDecrease
	KeyToggle
)

// Layout constants in pixels.
const (
	Margin     = 12
	RowHeight  = 22
	BarWidth   = 200
	BarHeight  = 12
	LabelWidth = 130
	markerW    = 6
	labelGap   = 8
)

// Rect is an axis-aligned rectangle in window pixels, origin top-left.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Panel is the parameter panel state.
type Panel struct {
	params   []camera.ParamInfo
	selected int
	visible  bool
	dragging int
}

// NewPanel returns a visible panel listing every camera parameter.
func NewPanel() *Panel {
	return &Panel{
		params:   camera.Params(),
		visible:  true,
		dragging: -1,
	}
}

// Params returns the rows in display order.
func (p *Panel) Params() []camera.ParamInfo { return p.params }

// Selected returns the selected parameter.
func (p *Panel) Selected() camera.Param { return p.params[p.selected].Param }

// Visible reports whether the panel is drawn and accepts input.
func (p *Panel) Visible() bool { return p.visible }

// SetVisible shows or hides the panel.
func (p *Panel) SetVisible(v bool) {
	p.visible = v
	if !v {
		p.dragging = -1
	}
}

// Bounds returns the panel background rectangle.
func (p *Panel) Bounds() Rect {
	n := float32(len(p.params))
	return Rect{
		X: Margin / 2,
		Y: Margin / 2,
		W: BarWidth + LabelWidth + 2*Margin,
		H: n*RowHeight + Margin,
	}
}

// BarRect returns the track rectangle of row i.
func (p *Panel) BarRect(i int) Rect {
	return Rect{
		X: Margin + markerW + 4,
		Y: Margin + float32(i)*RowHeight + (RowHeight-BarHeight)/2,
		W: BarWidth - markerW - 4,
		H: BarHeight,
	}
}

// LabelRect returns the label area of row i, right of its bar.
func (p *Panel) LabelRect(i int) Rect {
	bar := p.BarRect(i)
	return Rect{
		X: bar.X + bar.W + labelGap,
		Y: Margin + float32(i)*RowHeight,
		W: LabelWidth - labelGap,
		H: RowHeight,
	}
}

// MarkerRect returns the selection marker rectangle of row i.
func (p *Panel) MarkerRect(i int) Rect {
	bar := p.BarRect(i)
	return Rect{X: Margin, Y: bar.Y, W: markerW, H: BarHeight}
}

// HandleKey applies a keyboard command. It reports whether the panel
// consumed the key.
func (p *Panel) HandleKey(k Key, c Controls) bool {
	if k == KeyToggle {
		p.SetVisible(!p.visible)
		return true
	}
	if !p.visible {
		return false
	}
	switch k {
	case KeyNext:
		p.selected = (p.selected + 1) % len(p.params)
	case KeyPrev:
		p.selected = (p.selected + len(p.params) - 1) % len(p.params)
	case KeyIncrease, KeyDecrease:
		info := p.params[p.selected]
		step := info.Step
		if k == KeyDecrease {
			step = -step
		}
		v := camera.Get(c.Camera(), info.Param) + step
		p.apply(c, info, v)
	default:
		return false
	}
	return true
}

// HandlePointer processes a pointer position with the primary button state.
// Pressing on a bar selects its row and starts a drag; moving while pressed
// updates the value. It reports whether the panel consumed the event.
func (p *Panel) HandlePointer(x, y float32, pressed bool, c Controls) bool {
	if !p.visible {
		return false
	}
	if !pressed {
		wasDragging := p.dragging >= 0
		p.dragging = -1
		return wasDragging
	}
	if p.dragging < 0 {
		row := p.hitRow(x, y)
		if row < 0 {
			return false
		}
		p.dragging = row
		p.selected = row
	}
	bar := p.BarRect(p.dragging)
	frac := min(max((x-bar.X)/bar.W, 0), 1)
	info := p.params[p.dragging]
	p.apply(c, info, info.Min+frac*(info.Max-info.Min))
	return true
}

func (p *Panel) hitRow(x, y float32) int {
	for i := range p.params {
		if p.BarRect(i).Contains(x, y) {
			return i
		}
	}
	return -1
}

func (p *Panel) apply(c Controls, info camera.ParamInfo, v float32) {
	v = info.Clamp(v)
	if c.SetCameraParam(info.Param, v) {
		slogger().Debug("overlay: parameter changed", "param", info.Name, "value", v)
	} else {
		slogger().Debug("overlay: parameter rejected", "param", info.Name, "value", v)
	}
}
