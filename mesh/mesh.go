// Package mesh defines the vertex layout and the static geometry drawn by the
// renderer.
//
// A Mesh is an indexed triangle list. It is created once, uploaded once and
// never mutated afterwards.
package mesh

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mesh errors.
var (
	// ErrEmptyMesh is returned when a mesh has no vertices or no indices.
	ErrEmptyMesh = errors.New("mesh: mesh has no vertices or indices")

	// ErrIndexCount is returned when the index count is not a multiple of 3.
	ErrIndexCount = errors.New("mesh: index count is not a multiple of 3")

	// ErrIndexRange is returned when an index refers past the vertex list.
	ErrIndexRange = errors.New("mesh: index out of range")

	// ErrUnknownMesh is returned by Builtin for an unregistered name.
	ErrUnknownMesh = errors.New("mesh: unknown built-in mesh")
)

// VertexStride is the byte stride of one Vertex in the vertex buffer.
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
const VertexStride = 24

// Attribute offsets within a Vertex.
const (
	PositionOffset = 0
	ColorOffset    = 12
)

// Vertex is one mesh vertex. The struct has no padding, so its in-memory
// layout matches the GPU vertex layout exactly.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

// Mesh is an indexed triangle list with 16-bit indices.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// IndexCount returns the number of indices drawn for the mesh.
func (m *Mesh) IndexCount() uint32 {
	return uint32(len(m.Indices)) //nolint:gosec // bounded by uint16 vertex addressing
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Validate reports whether the mesh can be drawn as a triangle list.
func (m *Mesh) Validate() error {
	if m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return ErrEmptyMesh
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: got %d", ErrIndexCount, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at position %d, %d vertices",
				ErrIndexRange, idx, i, len(m.Vertices))
		}
	}
	return nil
}

// builtins maps a mesh name to its constructor.
var builtins = map[string]func() *Mesh{
	"triangle": Triangle,
	"quad":     Quad,
	"pentagon": Pentagon,
}

// Builtin returns a fresh copy of the named built-in mesh.
// Names are matched case-insensitively.
func Builtin(name string) (*Mesh, error) {
	ctor, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownMesh, name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names returns the sorted names of the built-in meshes.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Triangle returns a single RGB triangle.
func Triangle() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: [3]float32{0.0, 0.5, 0.0}, Color: [3]float32{1.0, 0.0, 0.0}},
			{Position: [3]float32{-0.5, -0.5, 0.0}, Color: [3]float32{0.0, 1.0, 0.0}},
			{Position: [3]float32{0.5, -0.5, 0.0}, Color: [3]float32{0.0, 0.0, 1.0}},
		},
		Indices: []uint16{0, 1, 2},
	}
}

// Quad returns a unit square made of two triangles.
func Quad() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: [3]float32{-0.5, 0.5, 0.0}, Color: [3]float32{1.0, 0.5, 0.0}},
			{Position: [3]float32{-0.5, -0.5, 0.0}, Color: [3]float32{0.0, 0.5, 1.0}},
			{Position: [3]float32{0.5, -0.5, 0.0}, Color: [3]float32{0.5, 0.0, 1.0}},
			{Position: [3]float32{0.5, 0.5, 0.0}, Color: [3]float32{0.0, 1.0, 0.5}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

// Pentagon returns a five-vertex fan pentagon.
func Pentagon() *Mesh {
	purple := [3]float32{0.5, 0.0, 0.5}
	return &Mesh{
		Vertices: []Vertex{
			{Position: [3]float32{-0.0868241, 0.49240386, 0.0}, Color: purple},
			{Position: [3]float32{-0.49513406, 0.06958647, 0.0}, Color: purple},
			{Position: [3]float32{-0.21918549, -0.44939706, 0.0}, Color: purple},
			{Position: [3]float32{0.35966998, -0.3473291, 0.0}, Color: purple},
			{Position: [3]float32{0.44147372, 0.2347359, 0.0}, Color: purple},
		},
		Indices: []uint16{0, 1, 4, 1, 2, 4, 2, 3, 4},
	}
}
