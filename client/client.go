// Package client drives the sandbox frame loop.
//
// A Client owns the camera and turns window events into camera updates,
// uniform uploads and frames. Every camera change is followed by an upload
// of the new transform, so the next frame always draws the current pose.
//
// Frame errors follow a fixed policy: Lost and Outdated surfaces are
// reconfigured and the frame is skipped, OutOfMemory stops the loop, and
// anything else is logged and the frame is skipped.
//
// Client is not safe for concurrent use.
package client

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/sandbox/camera"
	"github.com/gogpu/sandbox/overlay"
	"github.com/gogpu/sandbox/render"
)

var (
	// ErrClosed is returned by HandleEvent once a Close event was handled.
	ErrClosed = errors.New("client: closed")

	// ErrFatal wraps frame errors the loop cannot recover from.
	ErrFatal = errors.New("client: fatal frame error")
)

// Renderer is the device the client draws with. *render.Renderer
// implements it.
type Renderer interface {
	RenderFrame() (*render.Frame, error)
	FinishFrame(f *render.Frame) error
	Resize(width, height int) error
	Reconfigure() error
	Size() (width, height int)
	UploadCameraTransform(m mgl32.Mat4) error
	Provider() render.DeviceHandle
}

var _ Renderer = (*render.Renderer)(nil)

// Stats counts frame outcomes.
type Stats struct {
	Frames       uint64
	Skipped      uint64
	Reconfigured uint64
}

// Option configures a Client.
type Option func(*Client)

// WithoutOverlay disables the parameter panel.
func WithoutOverlay() Option {
	return func(c *Client) { c.overlayEnabled = false }
}

// Client is the frame orchestrator.
type Client struct {
	renderer Renderer
	cam      camera.Camera

	overlayEnabled bool
	panel          *overlay.Panel
	overlay        *overlay.Renderer

	scale    float64
	pointerX float32
	pointerY float32
	pressed  bool

	stats  Stats
	closed bool
}

// New returns a client for r starting at cam and uploads its transform.
// It returns an error if cam is not a valid pose.
func New(r Renderer, cam camera.Camera, opts ...Option) (*Client, error) {
	if err := cam.Validate(); err != nil {
		return nil, fmt.Errorf("client: initial camera: %w", err)
	}
	c := &Client{
		renderer:       r,
		cam:            cam,
		overlayEnabled: true,
		scale:          1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlayEnabled {
		c.panel = overlay.NewPanel()
		o, err := overlay.NewRenderer(r.Provider())
		if err != nil {
			slogger().Warn("client: overlay disabled", "error", err)
			c.overlayEnabled = false
		} else {
			c.overlay = o
		}
	}
	c.upload()
	return c, nil
}

// Camera returns the current camera. It implements overlay.Controls.
func (c *Client) Camera() camera.Camera { return c.cam }

// SetCameraParam applies v to p and uploads the new transform. It reports
// whether the resulting pose was valid. It implements overlay.Controls.
func (c *Client) SetCameraParam(p camera.Param, v float32) bool {
	next, ok := camera.Set(c.cam, p, v)
	if !ok {
		return false
	}
	c.cam = next
	c.upload()
	return true
}

// SetCamera replaces the camera and uploads its transform.
func (c *Client) SetCamera(cam camera.Camera) error {
	if err := cam.Validate(); err != nil {
		return fmt.Errorf("client: set camera: %w", err)
	}
	c.cam = cam
	c.upload()
	return nil
}

// Panel returns the parameter panel, or nil when the overlay is disabled.
func (c *Client) Panel() *overlay.Panel { return c.panel }

// Stats returns the frame counters.
func (c *Client) Stats() Stats { return c.stats }

// Closed reports whether a Close event was handled.
func (c *Client) Closed() bool { return c.closed }

// HandleEvent processes one event. It returns ErrClosed after Close and an
// error wrapping ErrFatal when a frame fails unrecoverably.
func (c *Client) HandleEvent(ev Event) error {
	if c.closed {
		return ErrClosed
	}
	switch e := ev.(type) {
	case Resize:
		return c.resize(e.Width, e.Height)
	case Redraw:
		return c.redraw()
	case KeyEvent:
		c.key(e)
	case PointerMove:
		c.pointer(e.X, e.Y, c.pressed)
	case PointerButton:
		c.pointer(e.X, e.Y, e.Pressed)
	case ScaleFactor:
		if e.Scale > 0 {
			c.scale = e.Scale
		}
	case Close:
		c.closed = true
		c.destroyOverlay()
		slogger().Info("client: closed", "frames", c.stats.Frames, "skipped", c.stats.Skipped)
		return ErrClosed
	default:
		slogger().Debug("client: ignoring event", "type", fmt.Sprintf("%T", ev))
	}
	return nil
}

// Destroy releases the overlay's GPU objects. The renderer is not owned by
// the client and stays alive.
func (c *Client) Destroy() {
	c.destroyOverlay()
}

func (c *Client) destroyOverlay() {
	if c.overlay != nil {
		c.overlay.Destroy()
		c.overlay = nil
	}
	c.overlayEnabled = false
}

// upload recomputes the MVP for the current surface size.
func (c *Client) upload() {
	w, h := c.renderer.Size()
	if err := c.renderer.UploadCameraTransform(c.cam.BuildMVP(w, h)); err != nil {
		slogger().Warn("client: camera upload failed", "error", err)
	}
}

func (c *Client) resize(width, height int) error {
	if err := c.renderer.Resize(width, height); err != nil {
		return c.frameError("resize", err)
	}
	c.upload()
	return nil
}

// redraw runs one frame: acquire, overlay pass, submit and present.
func (c *Client) redraw() error {
	frame, err := c.renderer.RenderFrame()
	if err != nil {
		return c.frameError("render", err)
	}
	if c.overlay != nil {
		if err := c.overlay.Draw(frame, c.panel, c.cam); err != nil {
			slogger().Warn("client: overlay pass failed", "frame", frame.Index(), "error", err)
		}
	}
	if err := c.renderer.FinishFrame(frame); err != nil {
		return c.frameError("finish", err)
	}
	c.stats.Frames++
	return nil
}

// frameError applies the frame loop error policy to err.
func (c *Client) frameError(op string, err error) error {
	switch render.Classify(err) {
	case render.RecoverReconfigure:
		c.stats.Skipped++
		slogger().Warn("client: surface needs reconfiguration", "op", op, "error", err)
		if rerr := c.renderer.Reconfigure(); rerr != nil {
			if render.Classify(rerr) == render.RecoverFatal {
				return fmt.Errorf("%w: reconfigure: %w", ErrFatal, rerr)
			}
			slogger().Warn("client: reconfigure failed", "error", rerr)
			return nil
		}
		c.stats.Reconfigured++
		c.upload()
		return nil
	case render.RecoverFatal:
		slogger().Error("client: fatal frame error", "op", op, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrFatal, op, err)
	default:
		c.stats.Skipped++
		slogger().Warn("client: frame skipped", "op", op, "error", err)
		return nil
	}
}

func (c *Client) key(e KeyEvent) {
	if e.Action == Release {
		return
	}
	if d := direction(e.Key); d != camera.DirectionNone {
		c.cam = camera.Move(c.cam, d)
		c.upload()
		return
	}
	if c.panel == nil {
		return
	}
	if k := panelKey(e); k != overlay.KeyNone {
		c.panel.HandleKey(k, c)
	}
}

func (c *Client) pointer(x, y float64, pressed bool) {
	c.pointerX = float32(x * c.scale)
	c.pointerY = float32(y * c.scale)
	c.pressed = pressed
	if c.panel == nil {
		return
	}
	c.panel.HandlePointer(c.pointerX, c.pointerY, pressed, c)
}

// direction maps movement keys to camera directions.
func direction(k Key) camera.Direction {
	switch k {
	case KeyW, KeyUp:
		return camera.DirectionForward
	case KeyS, KeyDown:
		return camera.DirectionBackward
	case KeyA, KeyLeft:
		return camera.DirectionLeft
	case KeyD, KeyRight:
		return camera.DirectionRight
	default:
		return camera.DirectionNone
	}
}

// panelKey maps keys to panel commands.
func panelKey(e KeyEvent) overlay.Key {
	switch e.Key {
	case KeyTab:
		if e.Shift {
			return overlay.KeyPrev
		}
		return overlay.KeyNext
	case KeyPlus:
		return overlay.KeyIncrease
	case KeyMinus:
		return overlay.KeyDecrease
	case KeyF1:
		return overlay.KeyToggle
	default:
		return overlay.KeyNone
	}
}
