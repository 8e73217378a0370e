package client

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/sandbox/camera"
	"github.com/gogpu/sandbox/mesh"
	"github.com/gogpu/sandbox/overlay"
	"github.com/gogpu/sandbox/render"
)

// scriptedSurface fails acquires with the queued kinds, then behaves like
// an offscreen surface.
type scriptedSurface struct {
	*render.OffscreenSurface
	failures []render.SurfaceErrorKind
}

func (s *scriptedSurface) Acquire() (hal.Texture, error) {
	if len(s.failures) > 0 {
		kind := s.failures[0]
		s.failures = s.failures[1:]
		return nil, render.NewSurfaceError(kind, "acquire", nil)
	}
	return s.OffscreenSurface.Acquire()
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *render.Renderer, *scriptedSurface) {
	t.Helper()
	s := &scriptedSurface{OffscreenSurface: render.NewOffscreenSurface()}
	source := func(hal.Instance) (render.Surface, error) { return s, nil }
	r, err := render.New(source, 800, 600, mesh.Pentagon(), render.WithBackend(&noop.API{}))
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	t.Cleanup(r.Destroy)
	c, err := New(r, camera.Default(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c, r, s
}

func uploaded(r *render.Renderer) mgl32.Mat4 {
	return r.CameraBuffer().Transform().Mat4()
}

func TestNewUploadsCamera(t *testing.T) {
	_, r, _ := newTestClient(t)
	want := camera.Default().BuildMVP(800, 600)
	if !uploaded(r).ApproxEqual(want) {
		t.Errorf("uploaded MVP = %v, want %v", uploaded(r), want)
	}
}

func TestNewRejectsDegenerateCamera(t *testing.T) {
	s := render.NewOffscreenSurface()
	r, err := render.New(s.Source(), 800, 600, mesh.Triangle(), render.WithBackend(&noop.API{}))
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	defer r.Destroy()

	cam := camera.Default()
	cam.Target = cam.Eye
	if _, err := New(r, cam); !errors.Is(err, camera.ErrEyeAtTarget) {
		t.Errorf("err = %v, want ErrEyeAtTarget", err)
	}
}

func TestStrafeRight(t *testing.T) {
	c, r, _ := newTestClient(t)
	start := c.Camera()
	for range 4 {
		if err := c.HandleEvent(KeyEvent{Key: KeyD, Action: Press}); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	got := c.Camera().Eye.Sub(start.Eye)
	want := float64(4 * start.Speed)
	if math.Abs(float64(got.Len())-want) > 1e-5 {
		t.Errorf("eye moved %v (len %v), want %v", got, got.Len(), want)
	}
	if got.X() <= 0 {
		t.Errorf("strafe right moved eye by %v, want +X", got)
	}
	if !uploaded(r).ApproxEqual(c.Camera().BuildMVP(800, 600)) {
		t.Error("transform not uploaded after move")
	}
}

func TestKeyReleaseIgnored(t *testing.T) {
	c, _, _ := newTestClient(t)
	start := c.Camera()
	if err := c.HandleEvent(KeyEvent{Key: KeyW, Action: Release}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if c.Camera() != start {
		t.Error("release moved the camera")
	}
	if err := c.HandleEvent(KeyEvent{Key: KeyUp, Action: Repeat}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if c.Camera() == start {
		t.Error("repeat did not move the camera")
	}
}

func TestPanelKeysUpload(t *testing.T) {
	c, r, _ := newTestClient(t)
	if c.Panel() == nil {
		t.Fatal("panel missing")
	}
	if c.Panel().Selected() != camera.ParamFOV {
		t.Fatalf("selected = %v, want FOV", c.Panel().Selected())
	}
	fov := c.Camera().FOV
	if err := c.HandleEvent(KeyEvent{Key: KeyPlus, Action: Press}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if c.Camera().FOV <= fov {
		t.Errorf("FOV = %v, want > %v", c.Camera().FOV, fov)
	}
	if !uploaded(r).ApproxEqual(c.Camera().BuildMVP(800, 600)) {
		t.Error("transform not uploaded after parameter change")
	}

	c.HandleEvent(KeyEvent{Key: KeyTab, Action: Press})              //nolint:errcheck // never fails
	c.HandleEvent(KeyEvent{Key: KeyTab, Action: Press, Shift: true}) //nolint:errcheck // never fails
	c.HandleEvent(KeyEvent{Key: KeyTab, Action: Press, Shift: true}) //nolint:errcheck // never fails
	last := c.Panel().Params()[len(c.Panel().Params())-1].Param
	if c.Panel().Selected() != last {
		t.Errorf("selected = %v, want %v", c.Panel().Selected(), last)
	}
}

func TestPointerDragUsesScale(t *testing.T) {
	c, _, _ := newTestClient(t)
	row := 1
	bar := c.Panel().BarRect(row)
	info := c.Panel().Params()[row]

	c.HandleEvent(ScaleFactor{Scale: 2}) //nolint:errcheck // never fails
	// Window coordinates are half the framebuffer pixels.
	x := float64(bar.X+bar.W/2) / 2
	y := float64(bar.Y+bar.H/2) / 2
	if err := c.HandleEvent(PointerButton{X: x, Y: y, Pressed: true}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if c.Panel().Selected() != info.Param {
		t.Fatalf("selected = %v, want %v", c.Panel().Selected(), info.Param)
	}
	c.HandleEvent(PointerMove{X: float64(bar.X+bar.W+10) / 2, Y: y}) //nolint:errcheck // never fails
	if got := camera.Get(c.Camera(), info.Param); got != info.Max {
		t.Errorf("%v = %v, want %v", info.Name, got, info.Max)
	}
	c.HandleEvent(PointerMove{X: float64(bar.X) / 2, Y: y}) //nolint:errcheck // never fails
	if got := camera.Get(c.Camera(), info.Param); got != info.Min {
		t.Errorf("%v after drag = %v, want %v", info.Name, got, info.Min)
	}
	c.HandleEvent(PointerButton{X: 0, Y: 0, Pressed: false}) //nolint:errcheck // never fails
	before := c.Camera()
	c.HandleEvent(PointerMove{X: x, Y: y}) //nolint:errcheck // never fails
	if c.Camera() != before {
		t.Error("move after release changed the camera")
	}
}

func TestRedrawPresents(t *testing.T) {
	c, _, s := newTestClient(t)
	for range 3 {
		if err := c.HandleEvent(Redraw{}); err != nil {
			t.Fatalf("Redraw: %v", err)
		}
	}
	if s.Presented() != 3 || c.Stats().Frames != 3 {
		t.Errorf("presented %d, frames %d, want 3", s.Presented(), c.Stats().Frames)
	}
}

func TestRedrawWithoutOverlay(t *testing.T) {
	c, _, s := newTestClient(t, WithoutOverlay())
	if c.Panel() != nil {
		t.Error("panel created with WithoutOverlay")
	}
	if err := c.HandleEvent(Redraw{}); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	if s.Presented() != 1 {
		t.Errorf("presented = %d, want 1", s.Presented())
	}
}

func TestRedrawLostReconfigures(t *testing.T) {
	c, _, s := newTestClient(t)
	s.failures = []render.SurfaceErrorKind{render.SurfaceErrorLost}

	if err := c.HandleEvent(Redraw{}); err != nil {
		t.Fatalf("Redraw after Lost: %v", err)
	}
	st := c.Stats()
	if st.Reconfigured != 1 || st.Skipped != 1 || st.Frames != 0 {
		t.Errorf("stats = %+v", st)
	}
	if err := c.HandleEvent(Redraw{}); err != nil {
		t.Fatalf("Redraw after reconfigure: %v", err)
	}
	if s.Presented() != 1 {
		t.Errorf("presented = %d, want 1", s.Presented())
	}
}

func TestRedrawErrorPolicy(t *testing.T) {
	tests := []struct {
		kind      render.SurfaceErrorKind
		fatal     bool
		reconfigs uint64
	}{
		{render.SurfaceErrorOutdated, false, 1},
		{render.SurfaceErrorTimeout, false, 0},
		{render.SurfaceErrorOther, false, 0},
		{render.SurfaceErrorOutOfMemory, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c, _, s := newTestClient(t)
			s.failures = []render.SurfaceErrorKind{tt.kind}
			err := c.HandleEvent(Redraw{})
			if got := errors.Is(err, ErrFatal); got != tt.fatal {
				t.Fatalf("err = %v, fatal = %v, want %v", err, got, tt.fatal)
			}
			if tt.fatal && !errors.Is(err, render.ErrSurfaceOutOfMemory) {
				t.Errorf("fatal error %v does not wrap ErrSurfaceOutOfMemory", err)
			}
			if c.Stats().Reconfigured != tt.reconfigs {
				t.Errorf("reconfigured = %d, want %d", c.Stats().Reconfigured, tt.reconfigs)
			}
		})
	}
}

func TestResize(t *testing.T) {
	c, r, _ := newTestClient(t)
	if err := c.HandleEvent(Resize{Width: 1024, Height: 256}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := r.Size(); w != 1024 || h != 256 {
		t.Errorf("size = %dx%d", w, h)
	}
	if !uploaded(r).ApproxEqual(c.Camera().BuildMVP(1024, 256)) {
		t.Error("transform not recomputed for new aspect")
	}
	if err := c.HandleEvent(Resize{}); err != nil {
		t.Fatalf("Resize(0, 0): %v", err)
	}
	if w, h := r.Size(); w != 1 || h != 1 {
		t.Errorf("size = %dx%d, want 1x1", w, h)
	}
	if err := c.HandleEvent(Redraw{}); err != nil {
		t.Errorf("Redraw at 1x1: %v", err)
	}
}

func TestClose(t *testing.T) {
	c, _, _ := newTestClient(t)
	if err := c.HandleEvent(Close{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Close = %v, want ErrClosed", err)
	}
	if !c.Closed() {
		t.Error("Closed() = false")
	}
	if err := c.HandleEvent(Redraw{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Redraw after close = %v, want ErrClosed", err)
	}
}

func TestSetCamera(t *testing.T) {
	c, r, _ := newTestClient(t)
	cam := camera.Default()
	cam.Eye = mgl32.Vec3{1, 2, -5}
	if err := c.SetCamera(cam); err != nil {
		t.Fatalf("SetCamera: %v", err)
	}
	if !uploaded(r).ApproxEqual(cam.BuildMVP(800, 600)) {
		t.Error("transform not uploaded")
	}
	cam.Up = mgl32.Vec3{}
	if err := c.SetCamera(cam); err == nil {
		t.Error("degenerate camera accepted")
	}
}

func TestClientImplementsControls(t *testing.T) {
	var _ overlay.Controls = (*Client)(nil)
}

func TestKeyString(t *testing.T) {
	if KeyTab.String() != "Tab" || Key(99).String() != "Key(99)" {
		t.Errorf("String = %q, %q", KeyTab.String(), Key(99).String())
	}
	if Repeat.String() != "Repeat" {
		t.Errorf("Repeat.String() = %q", Repeat.String())
	}
}
