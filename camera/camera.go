// Package camera holds the viewer pose and turns it into the
// model-view-projection matrix consumed by the mesh shader.
//
// # Conventions
//
// The camera uses a left-handed coordinate system: +X right, +Y up, +Z into
// the screen. The projection maps view-space depth into [0, 1] clip depth,
// which is what WebGPU expects. Matrices are mgl32.Mat4 values, stored
// column-major, so a Mat4 can be copied into a uniform buffer as-is.
//
// # Mutation
//
// A Camera is a plain value. All changes go through the pure functions
// Move and Set in update.go, which return a new Camera and never produce
// a degenerate pose.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection constants.
const (
	// Near is the distance to the near clip plane.
	Near float32 = 0.1

	// Far is the distance to the far clip plane.
	Far float32 = 100.0

	// epsilon is the length below which a direction vector is treated as zero.
	epsilon = 1e-6
)

// Camera errors.
var (
	// ErrEyeAtTarget is returned when Eye and Target coincide.
	ErrEyeAtTarget = errors.New("camera: eye and target coincide")

	// ErrUpParallel is returned when Up is parallel to the view direction.
	ErrUpParallel = errors.New("camera: up vector is parallel to view direction")

	// ErrInvalidFOV is returned when the field of view is outside (0, 180) degrees.
	ErrInvalidFOV = errors.New("camera: field of view out of range")
)

// Camera is a look-at camera.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// FOV is the vertical field of view in degrees.
	FOV float32

	// Speed is the distance moved by one input step.
	Speed float32
}

// Default returns a camera three units behind the origin looking at it.
func Default() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 0, -3},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FOV:    45,
		Speed:  0.1,
	}
}

// Validate reports whether the pose can produce a finite view matrix.
func (c Camera) Validate() error {
	fwd := c.Target.Sub(c.Eye)
	if fwd.Len() < epsilon {
		return fmt.Errorf("%w: eye=%v target=%v", ErrEyeAtTarget, c.Eye, c.Target)
	}
	if c.Up.Cross(fwd.Normalize()).Len() < epsilon {
		return fmt.Errorf("%w: up=%v", ErrUpParallel, c.Up)
	}
	if !(c.FOV > 0 && c.FOV < 180) {
		return fmt.Errorf("%w: %v", ErrInvalidFOV, c.FOV)
	}
	return nil
}

// Forward returns the normalized view direction.
func (c Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Eye).Normalize()
}

// BuildMVP returns projection * view * model for a viewport of the given
// size in pixels. The model matrix is the identity. Dimensions below 1 are
// treated as 1.
//
// BuildMVP panics if the pose is degenerate (see Validate).
func (c Camera) BuildMVP(width, height int) mgl32.Mat4 {
	if err := c.Validate(); err != nil {
		panic(err)
	}
	width = max(width, 1)
	height = max(height, 1)

	aspect := float32(width) / float32(height)
	proj := PerspectiveLH(mgl32.DegToRad(c.FOV), aspect, Near, Far)
	view := LookAtLH(c.Eye, c.Target, c.Up)
	model := mgl32.Ident4()
	return proj.Mul4(view).Mul4(model)
}

// PerspectiveLH returns a left-handed perspective projection with depth
// mapped to [0, 1]. fovy is in radians.
func PerspectiveLH(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	depth := far / (far - near)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, depth, 1,
		0, 0, -near * depth, 0,
	}
}

// LookAtLH returns a left-handed view matrix looking from eye toward target.
func LookAtLH(eye, target, up mgl32.Vec3) mgl32.Mat4 {
	f := target.Sub(eye).Normalize()
	s := up.Cross(f).Normalize()
	u := f.Cross(s)
	return mgl32.Mat4{
		s[0], u[0], f[0], 0,
		s[1], u[1], f[1], 0,
		s[2], u[2], f[2], 0,
		-s.Dot(eye), -u.Dot(eye), -f.Dot(eye), 1,
	}
}
