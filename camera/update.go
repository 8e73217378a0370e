package camera

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a discrete movement input.
type Direction int

const (
	// DirectionNone leaves the camera unchanged.
	DirectionNone Direction = iota
	DirectionForward
	DirectionBackward
	DirectionLeft
	DirectionRight
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "None"
	case DirectionForward:
		return "Forward"
	case DirectionBackward:
		return "Backward"
	case DirectionLeft:
		return "Left"
	case DirectionRight:
		return "Right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Move returns c translated one Speed step in direction d.
//
// Eye and Target move together, so the view direction is preserved and
// Eye never reaches Target. Right is Up x Forward in the left-handed frame.
// If the forward or right axis is degenerate, c is returned unchanged.
func Move(c Camera, d Direction) Camera {
	fwd := c.Target.Sub(c.Eye)
	if fwd.Len() < epsilon {
		return c
	}
	fwd = fwd.Normalize()

	var step mgl32.Vec3
	switch d {
	case DirectionForward:
		step = fwd
	case DirectionBackward:
		step = fwd.Mul(-1)
	case DirectionLeft, DirectionRight:
		right := c.Up.Cross(fwd)
		if right.Len() < epsilon {
			return c
		}
		step = right.Normalize()
		if d == DirectionLeft {
			step = step.Mul(-1)
		}
	default:
		return c
	}

	step = step.Mul(c.Speed)
	c.Eye = c.Eye.Add(step)
	c.Target = c.Target.Add(step)
	return c
}

// OnInput applies Move to the camera in place.
func (c *Camera) OnInput(d Direction) {
	*c = Move(*c, d)
}

// Param identifies an editable camera parameter.
type Param int

const (
	ParamFOV Param = iota
	ParamEyeX
	ParamEyeY
	ParamEyeZ
	ParamTargetX
	ParamTargetY
	ParamTargetZ
	ParamSpeed
)

// ParamInfo describes the range and step of an editable parameter.
type ParamInfo struct {
	Param Param
	Name  string
	Min   float32
	Max   float32
	Step  float32
}

// Clamp limits v to the parameter range.
func (p ParamInfo) Clamp(v float32) float32 {
	return min(max(v, p.Min), p.Max)
}

// Fraction returns where v lies in the parameter range, in [0, 1].
func (p ParamInfo) Fraction(v float32) float32 {
	if p.Max <= p.Min {
		return 0
	}
	return (p.Clamp(v) - p.Min) / (p.Max - p.Min)
}

var params = []ParamInfo{
	{Param: ParamFOV, Name: "FOV", Min: 1, Max: 120, Step: 1},
	{Param: ParamEyeX, Name: "Eye X", Min: -100, Max: 100, Step: 0.1},
	{Param: ParamEyeY, Name: "Eye Y", Min: -100, Max: 100, Step: 0.1},
	{Param: ParamEyeZ, Name: "Eye Z", Min: -100, Max: 100, Step: 0.1},
	{Param: ParamTargetX, Name: "Target X", Min: -10, Max: 10, Step: 0.05},
	{Param: ParamTargetY, Name: "Target Y", Min: -10, Max: 10, Step: 0.05},
	{Param: ParamTargetZ, Name: "Target Z", Min: -10, Max: 10, Step: 0.05},
	{Param: ParamSpeed, Name: "Speed", Min: 0.01, Max: 5, Step: 0.01},
}

// Params returns the editable parameters in display order.
func Params() []ParamInfo {
	out := make([]ParamInfo, len(params))
	copy(out, params)
	return out
}

// Info returns the description of p.
func (p Param) Info() (ParamInfo, bool) {
	if p < 0 || int(p) >= len(params) {
		return ParamInfo{}, false
	}
	return params[p], true
}

// String returns the display name of p.
func (p Param) String() string {
	if info, ok := p.Info(); ok {
		return info.Name
	}
	return fmt.Sprintf("Param(%d)", int(p))
}

// Get returns the current value of p.
func Get(c Camera, p Param) float32 {
	switch p {
	case ParamFOV:
		return c.FOV
	case ParamEyeX, ParamEyeY, ParamEyeZ:
		return c.Eye[p-ParamEyeX]
	case ParamTargetX, ParamTargetY, ParamTargetZ:
		return c.Target[p-ParamTargetX]
	case ParamSpeed:
		return c.Speed
	}
	return 0
}

// Set returns c with parameter p set to v, clamped to the parameter range.
// It reports false, returning c unchanged, when p is unknown or the new
// pose would be degenerate.
func Set(c Camera, p Param, v float32) (Camera, bool) {
	info, ok := p.Info()
	if !ok {
		return c, false
	}
	v = info.Clamp(v)

	next := c
	switch p {
	case ParamFOV:
		next.FOV = v
	case ParamEyeX, ParamEyeY, ParamEyeZ:
		next.Eye[p-ParamEyeX] = v
	case ParamTargetX, ParamTargetY, ParamTargetZ:
		next.Target[p-ParamTargetX] = v
	case ParamSpeed:
		next.Speed = v
	}
	if next.Validate() != nil {
		return c, false
	}
	return next, true
}
