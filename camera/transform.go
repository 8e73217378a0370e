package camera

import "github.com/go-gl/mathgl/mgl32"

// TransformSize is the byte size of Transform in a uniform buffer.
const TransformSize = 64

// Transform is the uniform block read by the mesh vertex shader at
// group 0, binding 0: one column-major mat4x4<f32>.
type Transform struct {
	MVP [16]float32
}

// NewTransform returns a Transform holding m.
func NewTransform(m mgl32.Mat4) Transform {
	return Transform{MVP: m}
}

// Set replaces the stored matrix with m.
func (t *Transform) Set(m mgl32.Mat4) {
	t.MVP = m
}

// Mat4 returns the stored matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	return mgl32.Mat4(t.MVP)
}
