package mesh

import (
	"encoding/binary"
	"errors"
	"testing"
	"unsafe"
)

func TestVertexLayout(t *testing.T) {
	var v Vertex
	if got := unsafe.Sizeof(v); got != VertexStride {
		t.Errorf("unsafe.Sizeof(Vertex) = %d, want %d", got, VertexStride)
	}
	if got := binary.Size(v); got != VertexStride {
		t.Errorf("binary.Size(Vertex) = %d, want %d", got, VertexStride)
	}
	if got := unsafe.Offsetof(v.Color); got != ColorOffset {
		t.Errorf("Color offset = %d, want %d", got, ColorOffset)
	}
}

func TestBuiltinsValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			m, err := Builtin(name)
			if err != nil {
				t.Fatalf("Builtin(%q): %v", name, err)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestPentagon(t *testing.T) {
	m := Pentagon()
	want := []uint16{0, 1, 4, 1, 2, 4, 2, 3, 4}
	if len(m.Vertices) != 5 {
		t.Fatalf("vertices = %d, want 5", len(m.Vertices))
	}
	if len(m.Indices) != len(want) {
		t.Fatalf("indices = %v, want %v", m.Indices, want)
	}
	for i := range want {
		if m.Indices[i] != want[i] {
			t.Errorf("Indices[%d] = %d, want %d", i, m.Indices[i], want[i])
		}
	}
	if m.IndexCount() != 9 || m.Triangles() != 3 {
		t.Errorf("IndexCount=%d Triangles=%d, want 9 and 3", m.IndexCount(), m.Triangles())
	}
}

func TestBuiltinReturnsCopy(t *testing.T) {
	a, _ := Builtin("quad")
	b, _ := Builtin("QUAD")
	a.Indices[0] = 3
	if b.Indices[0] != 0 {
		t.Error("Builtin meshes share backing storage")
	}
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := Builtin("teapot")
	if !errors.Is(err, ErrUnknownMesh) {
		t.Errorf("err = %v, want ErrUnknownMesh", err)
	}
}

func TestValidate(t *testing.T) {
	tri := Triangle().Vertices
	tests := []struct {
		name string
		mesh *Mesh
		want error
	}{
		{"nil", nil, ErrEmptyMesh},
		{"no vertices", &Mesh{Indices: []uint16{0, 1, 2}}, ErrEmptyMesh},
		{"no indices", &Mesh{Vertices: tri}, ErrEmptyMesh},
		{"partial triangle", &Mesh{Vertices: tri, Indices: []uint16{0, 1}}, ErrIndexCount},
		{"out of range", &Mesh{Vertices: tri, Indices: []uint16{0, 1, 3}}, ErrIndexRange},
		{"ok", &Mesh{Vertices: tri, Indices: []uint16{2, 1, 0}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
