// Package window opens the sandbox window with gogpu and feeds its input
// to a client.
//
// gogpu owns the window, the GPU device and the swapchain. The sandbox
// renderer borrows the device through gpucontext and draws into the
// swapchain view gogpu hands out for each frame. Everything here is pure
// Go, so the binary builds with CGO_ENABLED=0 like the GPU backend.
package window

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/client"
	"github.com/gogpu/sandbox/render"
)

// ErrNoDevice is returned when the window's GPU device is not available
// when the first frame is drawn.
var ErrNoDevice = errors.New("window: GPU device not available")

// Config describes the window to open.
type Config struct {
	Title           string
	Width, Height   int
	PowerPreference render.PowerPreference
}

// Host is what Setup receives once the GPU exists.
type Host struct {
	// Provider shares the window's device. It is valid until the release
	// function returned by Setup has run.
	Provider gpucontext.DeviceProvider

	// Surface draws into the window's swapchain.
	Surface render.Surface

	// Width and Height are the swapchain size in pixels.
	Width, Height int

	// Scale is the ratio of swapchain pixels to window coordinates.
	Scale float64
}

// Handler consumes window events on the render thread.
type Handler interface {
	HandleEvent(ev client.Event) error
}

// Setup builds the handler for the first frame. release runs on the render
// thread before the device is destroyed.
type Setup func(host Host) (h Handler, release func(), err error)

// Window is a gogpu application window.
type Window struct {
	app *gogpu.App

	mu     sync.Mutex
	events []client.Event

	surface *surface
	handler Handler
	release func()

	width, height uint32
	scale         float64
	err           error
}

// New prepares a window. Nothing is opened until Run.
func New(cfg Config) *Window {
	gcfg := gogpu.DefaultConfig().
		WithTitle(cfg.Title).
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(true).
		WithVSync(true).
		WithPowerPreference(powerPreference(cfg.PowerPreference))
	w := &Window{
		app:     gogpu.NewApp(gcfg),
		surface: &surface{},
	}
	w.attach(w.app.EventSource())
	return w
}

// SetLogger routes the windowing library's logs to l.
func SetLogger(l *slog.Logger) {
	gogpu.SetLogger(l)
}

// Run opens the window and blocks until it closes. setup is called on the
// render thread for the first frame; the handler then receives every
// event followed by one Redraw per frame.
//
// Run returns the first error from setup or the handler, except
// client.ErrClosed, which ends the loop normally.
func (w *Window) Run(setup Setup) error {
	w.app.OnDraw(func(dc *gogpu.Context) {
		w.draw(dc, setup)
	})
	w.app.OnClose(w.shutdown)
	if err := w.app.Run(); err != nil {
		return err
	}
	return w.err
}

// attach registers the event callbacks. They run on the main thread and
// only queue events.
func (w *Window) attach(src gpucontext.EventSource) {
	src.OnKeyPress(func(k gpucontext.Key, mods gpucontext.Modifiers) {
		if ev, ok := translateKey(k, mods, true); ok {
			w.push(ev)
		}
	})
	src.OnKeyRelease(func(k gpucontext.Key, mods gpucontext.Modifiers) {
		if ev, ok := translateKey(k, mods, false); ok {
			w.push(ev)
		}
	})
	src.OnMouseMove(func(x, y float64) {
		w.push(client.PointerMove{X: x, Y: y})
	})
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		if b == gpucontext.MouseButtonLeft {
			w.push(client.PointerButton{X: x, Y: y, Pressed: true})
		}
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		if b == gpucontext.MouseButtonLeft {
			w.push(client.PointerButton{X: x, Y: y, Pressed: false})
		}
	})
}

func (w *Window) push(ev client.Event) {
	w.mu.Lock()
	w.events = append(w.events, ev)
	w.mu.Unlock()
}

// drain returns the queued events.
func (w *Window) drain() []client.Event {
	w.mu.Lock()
	events := w.events
	w.events = nil
	w.mu.Unlock()
	return events
}

// draw runs one frame on the render thread.
func (w *Window) draw(dc *gogpu.Context, setup Setup) {
	if w.err != nil {
		return
	}
	width, height := dc.SurfaceSize()
	if width == 0 || height == 0 {
		return
	}
	if w.handler == nil {
		provider := w.app.GPUContextProvider()
		if provider == nil {
			w.fail(ErrNoDevice)
			return
		}
		w.surface.format = dc.Format()
		w.width, w.height, w.scale = width, height, dc.ScaleFactor()
		h, release, err := setup(Host{
			Provider: provider,
			Surface:  w.surface,
			Width:    int(width),
			Height:   int(height),
			Scale:    w.scale,
		})
		if err != nil {
			w.fail(err)
			return
		}
		w.handler, w.release = h, release
		w.push(client.ScaleFactor{Scale: w.scale})
	}

	w.surface.begin(func() hal.TextureView {
		tv := dc.SurfaceView()
		if tv == nil {
			return nil
		}
		return tv.HalTextureView()
	})
	defer w.surface.end()

	if err := w.frame(width, height, dc.ScaleFactor()); err != nil {
		if errors.Is(err, client.ErrClosed) {
			w.app.Quit()
			return
		}
		w.fail(err)
	}
}

// frame delivers size changes, queued input and one Redraw.
func (w *Window) frame(width, height uint32, scale float64) error {
	for _, ev := range w.pending(width, height, scale) {
		if err := w.handler.HandleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// pending returns the events for the next frame, ending with a Redraw.
func (w *Window) pending(width, height uint32, scale float64) []client.Event {
	var events []client.Event
	if scale != w.scale && scale > 0 {
		w.scale = scale
		events = append(events, client.ScaleFactor{Scale: scale})
	}
	if width != w.width || height != w.height {
		w.width, w.height = width, height
		events = append(events, client.Resize{Width: int(width), Height: int(height)})
	}
	events = append(events, w.drain()...)
	return append(events, client.Redraw{})
}

func (w *Window) fail(err error) {
	w.err = err
	w.app.Quit()
}

// shutdown releases the handler while the device is still alive.
func (w *Window) shutdown() {
	if w.handler != nil {
		_ = w.handler.HandleEvent(client.Close{})
	}
	if w.release != nil {
		w.release()
		w.release = nil
	}
	w.handler = nil
}

func powerPreference(p render.PowerPreference) gputypes.PowerPreference {
	switch p {
	case render.PowerLow:
		return gputypes.PowerPreferenceLowPower
	case render.PowerHigh:
		return gputypes.PowerPreferenceHighPerformance
	default:
		return gputypes.PowerPreferenceNone
	}
}
