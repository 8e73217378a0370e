// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/sandbox/camera"
	"github.com/gogpu/sandbox/mesh"
)

// flakySurface wraps an OffscreenSurface and fails the next acquires with
// the queued kinds.
type flakySurface struct {
	*OffscreenSurface
	failures    []SurfaceErrorKind
	configured  int
	compatible  bool
	presentFail *SurfaceErrorKind
}

func newFlakySurface() *flakySurface {
	return &flakySurface{OffscreenSurface: NewOffscreenSurface(), compatible: true}
}

func (s *flakySurface) source() SurfaceSource {
	return func(hal.Instance) (Surface, error) { return s, nil }
}

func (s *flakySurface) Capabilities(a hal.Adapter) (SurfaceCapabilities, bool) {
	if !s.compatible {
		return SurfaceCapabilities{}, false
	}
	return s.OffscreenSurface.Capabilities(a)
}

func (s *flakySurface) Configure(device hal.Device, cfg SurfaceConfiguration) error {
	s.configured++
	return s.OffscreenSurface.Configure(device, cfg)
}

func (s *flakySurface) Acquire() (hal.Texture, error) {
	if len(s.failures) > 0 {
		kind := s.failures[0]
		s.failures = s.failures[1:]
		return nil, NewSurfaceError(kind, "acquire", nil)
	}
	return s.OffscreenSurface.Acquire()
}

func (s *flakySurface) Present(q hal.Queue) error {
	if s.presentFail != nil {
		kind := *s.presentFail
		s.presentFail = nil
		s.OffscreenSurface.Discard()
		return NewSurfaceError(kind, "present", nil)
	}
	return s.OffscreenSurface.Present(q)
}

func newTestRenderer(t *testing.T, s *flakySurface, m *mesh.Mesh, opts ...Option) *Renderer {
	t.Helper()
	opts = append([]Option{WithBackend(&noop.API{})}, opts...)
	r, err := New(s.source(), 800, 600, m, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(r.Destroy)
	return r
}

func TestRendererInit(t *testing.T) {
	s := newFlakySurface()
	m := mesh.Pentagon()
	r := newTestRenderer(t, s, m)

	if r.State() != StateReady {
		t.Fatalf("state = %v, want Ready", r.State())
	}
	cfg := r.SurfaceConfig()
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("surface = %dx%d, want 800x600", cfg.Width, cfg.Height)
	}
	if cfg.PresentMode != PresentModeFifo {
		t.Errorf("present mode = %v, want Fifo", cfg.PresentMode)
	}
	if cfg.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want the surface's first format", cfg.Format)
	}
	if r.IndexCount() != uint32(len(m.Indices)) {
		t.Errorf("IndexCount = %d, want %d", r.IndexCount(), len(m.Indices))
	}
	if got := r.CameraBuffer().Buffer().Size(); got != camera.TransformSize {
		t.Errorf("camera buffer size = %d, want %d", got, camera.TransformSize)
	}
	if r.CameraBuffer().Buffer().Usage()&gputypes.BufferUsageUniform == 0 {
		t.Error("camera buffer is not a uniform buffer")
	}
}

func TestRenderFrameDrawsAllIndices(t *testing.T) {
	s := newFlakySurface()
	m := mesh.Pentagon()
	rec := &recorder{}
	r := newTestRenderer(t, s, m, WithBackend(recordingBackend{rec: rec}))

	mvp := camera.Default().BuildMVP(800, 600)
	if err := r.UploadCameraTransform(mvp); err != nil {
		t.Fatalf("UploadCameraTransform: %v", err)
	}
	if got := r.CameraBuffer().Transform().Mat4(); got != mvp {
		t.Errorf("camera transform = %v, want %v", got, mvp)
	}
	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if r.State() != StateRendering {
		t.Errorf("state = %v, want Rendering", r.State())
	}
	if w, h := f.Size(); w != 800 || h != 600 {
		t.Errorf("frame size = %dx%d", w, h)
	}
	if s.Presented() != 0 {
		t.Error("RenderFrame presented before FinishFrame")
	}

	p := rec.pass("mesh_pass")
	if p == nil {
		t.Fatalf("no mesh_pass recorded; passes = %d", len(rec.passes))
	}
	if len(p.draws) != 1 {
		t.Fatalf("mesh_pass issued %d draws, want 1", len(p.draws))
	}
	want := drawCall{indexCount: uint32(len(m.Indices)), instanceCount: 1}
	if p.draws[0] != want {
		t.Errorf("DrawIndexed = %+v, want %+v", p.draws[0], want)
	}
	if p.indexBuf != r.indices.Raw() || p.indexFormat != gputypes.IndexFormatUint16 {
		t.Errorf("index buffer = %v/%v, want mesh indices as Uint16", p.indexBuf, p.indexFormat)
	}
	if p.vertexBufs[0] != r.vertices.Raw() {
		t.Error("slot 0 is not bound to the mesh vertex buffer")
	}
	if p.bindGroups[0] != r.bindGroup {
		t.Error("group 0 is not bound to the camera bind group")
	}
	if p.pipeline != r.pipeline.pipeline {
		t.Error("mesh pipeline not bound")
	}
	if p.loadOp != gputypes.LoadOpClear || p.clear != DefaultClearColor {
		t.Errorf("load = %v clear = %+v, want clear to %+v", p.loadOp, p.clear, DefaultClearColor)
	}
	if !p.ended {
		t.Error("mesh pass not ended")
	}

	if err := r.FinishFrame(f); err != nil {
		t.Fatalf("FinishFrame: %v", err)
	}
	if s.Presented() != 1 {
		t.Errorf("presented = %d, want 1", s.Presented())
	}
	if r.State() != StateReady {
		t.Errorf("state = %v, want Ready", r.State())
	}
}

func TestRenderFrameDrawsEveryBuiltinMesh(t *testing.T) {
	for _, m := range []*mesh.Mesh{mesh.Triangle(), mesh.Quad(), mesh.Pentagon()} {
		rec := &recorder{}
		r := newTestRenderer(t, newFlakySurface(), m, WithBackend(recordingBackend{rec: rec}))
		f, err := r.RenderFrame()
		if err != nil {
			t.Fatalf("RenderFrame: %v", err)
		}
		if err := r.FinishFrame(f); err != nil {
			t.Fatalf("FinishFrame: %v", err)
		}
		p := rec.pass("mesh_pass")
		if p == nil || len(p.draws) != 1 || p.draws[0].indexCount != uint32(len(m.Indices)) {
			t.Errorf("%d-index mesh: draws = %+v", len(m.Indices), p)
		}
	}
}

func TestAppendPass(t *testing.T) {
	s := newFlakySurface()
	r := newTestRenderer(t, s, mesh.Quad())

	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	called := false
	if err := f.AppendPass("overlay", func(rp hal.RenderPassEncoder) {
		called = rp != nil
	}); err != nil {
		t.Fatalf("AppendPass: %v", err)
	}
	if !called {
		t.Error("record callback not invoked with an encoder")
	}
	passes := f.Passes()
	if len(passes) != 2 || passes[0] != "mesh_pass" || passes[1] != "overlay" {
		t.Errorf("passes = %v", passes)
	}
	if err := r.FinishFrame(f); err != nil {
		t.Fatalf("FinishFrame: %v", err)
	}

	if err := f.AppendPass("late", func(hal.RenderPassEncoder) {}); !errors.Is(err, ErrStaleFrame) {
		t.Errorf("AppendPass after finish: err = %v, want ErrStaleFrame", err)
	}
	if err := r.FinishFrame(f); !errors.Is(err, ErrStaleFrame) {
		t.Errorf("second FinishFrame: err = %v, want ErrStaleFrame", err)
	}
}

func TestFrameInFlight(t *testing.T) {
	r := newTestRenderer(t, newFlakySurface(), mesh.Triangle())
	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if _, err := r.RenderFrame(); !errors.Is(err, ErrFrameInFlight) {
		t.Errorf("err = %v, want ErrFrameInFlight", err)
	}
	if err := r.FinishFrame(f); err != nil {
		t.Fatalf("FinishFrame: %v", err)
	}
	f2, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame after finish: %v", err)
	}
	if f2.Index() != f.Index()+1 {
		t.Errorf("frame index = %d, want %d", f2.Index(), f.Index()+1)
	}
	if err := r.FinishFrame(f2); err != nil {
		t.Fatalf("FinishFrame: %v", err)
	}
}

func TestResize(t *testing.T) {
	s := newFlakySurface()
	r := newTestRenderer(t, s, mesh.Pentagon())

	if err := r.Resize(1024, 768); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	first := r.SurfaceConfig()
	if err := r.Resize(1024, 768); err != nil {
		t.Fatalf("second Resize: %v", err)
	}
	if r.SurfaceConfig() != first {
		t.Errorf("repeated resize changed config: %+v -> %+v", first, r.SurfaceConfig())
	}
	if s.Config() != first {
		t.Errorf("surface config = %+v, want %+v", s.Config(), first)
	}

	if err := r.Resize(0, 0); err != nil {
		t.Fatalf("Resize(0, 0): %v", err)
	}
	if cfg := r.SurfaceConfig(); cfg.Width != 1 || cfg.Height != 1 {
		t.Errorf("Resize(0, 0) = %dx%d, want 1x1", cfg.Width, cfg.Height)
	}
	if w, h := r.Size(); w != 1 || h != 1 {
		t.Errorf("Size() = %dx%d, want 1x1", w, h)
	}

	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame at 1x1: %v", err)
	}
	if err := r.FinishFrame(f); err != nil {
		t.Fatalf("FinishFrame at 1x1: %v", err)
	}
}

func TestSurfaceLostRecovery(t *testing.T) {
	s := newFlakySurface()
	r := newTestRenderer(t, s, mesh.Pentagon())
	s.failures = []SurfaceErrorKind{SurfaceErrorLost}

	_, err := r.RenderFrame()
	var se *SurfaceError
	if !errors.As(err, &se) || se.Kind != SurfaceErrorLost {
		t.Fatalf("err = %v, want Lost SurfaceError", err)
	}
	if Classify(err) != RecoverReconfigure {
		t.Fatalf("Classify = %v, want Reconfigure", Classify(err))
	}

	before := s.configured
	if err := r.Reconfigure(); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if s.configured != before+1 {
		t.Errorf("surface configured %d times, want %d", s.configured, before+1)
	}

	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame after reconfigure: %v", err)
	}
	if err := r.FinishFrame(f); err != nil {
		t.Fatalf("FinishFrame: %v", err)
	}
}

func TestPresentFailureReleasesFrame(t *testing.T) {
	s := newFlakySurface()
	r := newTestRenderer(t, s, mesh.Pentagon())

	kind := SurfaceErrorOutdated
	s.presentFail = &kind
	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	err = r.FinishFrame(f)
	if !errors.Is(err, ErrSurfaceOutdated) {
		t.Fatalf("err = %v, want ErrSurfaceOutdated", err)
	}
	if r.State() != StateReady {
		t.Errorf("state = %v, want Ready", r.State())
	}
}

func TestReconfigureAbandonsFrame(t *testing.T) {
	s := newFlakySurface()
	r := newTestRenderer(t, s, mesh.Pentagon())

	f, err := r.RenderFrame()
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if err := r.Resize(640, 480); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.FinishFrame(f); !errors.Is(err, ErrStaleFrame) {
		t.Errorf("FinishFrame of abandoned frame: err = %v, want ErrStaleFrame", err)
	}
	if s.Presented() != 0 {
		t.Error("abandoned frame was presented")
	}
}

func TestAdapterNotFound(t *testing.T) {
	s := newFlakySurface()
	s.compatible = false
	_, err := New(s.source(), 800, 600, mesh.Pentagon(), WithBackend(&noop.API{}))
	if !errors.Is(err, ErrAdapterNotFound) {
		t.Fatalf("err = %v, want ErrAdapterNotFound", err)
	}
}

func TestSurfaceSourceError(t *testing.T) {
	boom := errors.New("no window")
	src := func(hal.Instance) (Surface, error) { return nil, boom }
	_, err := New(src, 800, 600, mesh.Pentagon(), WithBackend(&noop.API{}))
	if !errors.Is(err, ErrSurfaceCreation) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrSurfaceCreation wrapping cause", err)
	}
}

func TestInvalidMesh(t *testing.T) {
	_, err := New(newFlakySurface().source(), 800, 600, &mesh.Mesh{}, WithBackend(&noop.API{}))
	if !errors.Is(err, mesh.ErrEmptyMesh) {
		t.Fatalf("err = %v, want mesh.ErrEmptyMesh", err)
	}
}

func TestInvalidShader(t *testing.T) {
	_, err := New(newFlakySurface().source(), 800, 600, mesh.Pentagon(),
		WithBackend(&noop.API{}),
		WithShaderSource("this is @@ not wgsl"))
	if !errors.Is(err, ErrPipelineCreation) {
		t.Fatalf("err = %v, want ErrPipelineCreation", err)
	}
}

func TestSurfaceFormatOption(t *testing.T) {
	s := newFlakySurface()
	s.OffscreenSurface = NewOffscreenSurface(gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm)
	r := newTestRenderer(t, s, mesh.Pentagon(), WithSurfaceFormat(gputypes.TextureFormatRGBA8Unorm))
	if got := r.SurfaceConfig().Format; got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v, want RGBA8Unorm", got)
	}
}

func TestDestroy(t *testing.T) {
	s := newFlakySurface()
	r, err := New(s.source(), 800, 600, mesh.Pentagon(), WithBackend(&noop.API{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Destroy()
	r.Destroy()
	if r.State() != StateDestroyed {
		t.Errorf("state = %v, want Destroyed", r.State())
	}
	if _, err := r.RenderFrame(); !errors.Is(err, ErrNotReady) {
		t.Errorf("RenderFrame after Destroy: err = %v, want ErrNotReady", err)
	}
	if err := r.Resize(10, 10); !errors.Is(err, ErrNotReady) {
		t.Errorf("Resize after Destroy: err = %v, want ErrNotReady", err)
	}
}
