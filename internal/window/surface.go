package window

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/render"
)

var (
	errNoFrame   = errors.New("no frame in progress")
	errNoTexture = errors.New("swapchain texture unavailable")
	errViewsOnly = errors.New("window surfaces hand out views")
)

// surface is a render.ViewSurface over the swapchain gogpu manages.
//
// gogpu configures, acquires and presents the swapchain itself. The
// renderer only borrows the view of the current frame, which is valid
// between begin and end.
type surface struct {
	format gputypes.TextureFormat
	config render.SurfaceConfiguration

	view     func() hal.TextureView
	acquired bool
}

// begin makes view the source of the current frame's texture view.
func (s *surface) begin(view func() hal.TextureView) {
	s.view = view
	s.acquired = false
}

// end closes the frame. Views must not be used afterwards.
func (s *surface) end() {
	s.view = nil
	s.acquired = false
}

// Capabilities implements render.Surface. The swapchain format is fixed
// by gogpu.
func (s *surface) Capabilities(hal.Adapter) (render.SurfaceCapabilities, bool) {
	if s.format == gputypes.TextureFormatUndefined {
		return render.SurfaceCapabilities{}, false
	}
	return render.SurfaceCapabilities{
		Formats:      []gputypes.TextureFormat{s.format},
		PresentModes: []render.PresentMode{render.PresentModeFifo},
	}, true
}

// Configure implements render.Surface. gogpu resizes the swapchain on its
// own, so only the configuration is recorded.
func (s *surface) Configure(_ hal.Device, config render.SurfaceConfiguration) error {
	s.config = config
	return nil
}

// Unconfigure implements render.Surface.
func (s *surface) Unconfigure(hal.Device) {
	s.acquired = false
}

// Acquire implements render.Surface. The renderer uses AcquireView.
func (s *surface) Acquire() (hal.Texture, error) {
	return nil, render.NewSurfaceError(render.SurfaceErrorOther, "acquire", errViewsOnly)
}

// AcquireView implements render.ViewSurface.
func (s *surface) AcquireView() (hal.TextureView, error) {
	if s.view == nil {
		return nil, render.NewSurfaceError(render.SurfaceErrorOther, "acquire", errNoFrame)
	}
	if s.acquired {
		return nil, render.NewSurfaceError(render.SurfaceErrorOther, "acquire", errors.New("view already acquired"))
	}
	v := s.view()
	if v == nil {
		// Minimised or mid-resize: gogpu had no texture to hand out.
		return nil, render.NewSurfaceError(render.SurfaceErrorOutdated, "acquire", errNoTexture)
	}
	s.acquired = true
	return v, nil
}

// Present implements render.Surface. gogpu presents after the draw
// callback returns.
func (s *surface) Present(hal.Queue) error {
	if !s.acquired {
		return render.NewSurfaceError(render.SurfaceErrorOther, "present", errNoFrame)
	}
	s.acquired = false
	return nil
}

// Discard implements render.Surface.
func (s *surface) Discard() {
	s.acquired = false
}

// Destroy implements render.Surface.
func (s *surface) Destroy() {
	s.end()
}

var _ render.ViewSurface = (*surface)(nil)
