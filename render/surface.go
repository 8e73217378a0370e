// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PresentMode controls how presented frames are queued for display.
type PresentMode int

const (
	// PresentModeFifo waits for vertical blank and never tears.
	PresentModeFifo PresentMode = iota
	PresentModeFifoRelaxed
	PresentModeMailbox
	PresentModeImmediate
)

// String returns the present mode name.
func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "Fifo"
	case PresentModeFifoRelaxed:
		return "FifoRelaxed"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeImmediate:
		return "Immediate"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(m))
	}
}

// SurfaceConfiguration describes the swapchain. Width and Height are
// always at least 1.
type SurfaceConfiguration struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	PresentMode PresentMode
}

// SurfaceCapabilities lists what a surface supports on one adapter.
// Formats are in preference order.
type SurfaceCapabilities struct {
	Formats      []gputypes.TextureFormat
	PresentModes []PresentMode
}

// Surface is a presentable target.
//
// Acquire and Present report failures as *SurfaceError so the frame loop
// can classify them. At most one texture is acquired at a time; Present or
// Discard releases it.
type Surface interface {
	// Capabilities reports what the surface supports on adapter, or false
	// if the adapter cannot present to it.
	Capabilities(adapter hal.Adapter) (SurfaceCapabilities, bool)

	Configure(device hal.Device, config SurfaceConfiguration) error
	Unconfigure(device hal.Device)

	// Acquire returns the next texture to render into.
	Acquire() (hal.Texture, error)

	// Present queues the acquired texture for display.
	Present(queue hal.Queue) error

	// Discard releases the acquired texture without presenting it.
	Discard()

	Destroy()
}

// SurfaceSource creates the surface for a window once the instance exists.
type SurfaceSource func(instance hal.Instance) (Surface, error)

// clampExtent limits window dimensions to the range a surface accepts.
func clampExtent(width, height int) (uint32, uint32) {
	return uint32(max(width, 1)), uint32(max(height, 1)) //nolint:gosec // clamped positive
}

// chooseFormat returns want if the surface supports it, else the surface's
// preferred format.
func chooseFormat(caps SurfaceCapabilities, want gputypes.TextureFormat) (gputypes.TextureFormat, bool) {
	if len(caps.Formats) == 0 {
		return gputypes.TextureFormatUndefined, false
	}
	if want != gputypes.TextureFormatUndefined && slices.Contains(caps.Formats, want) {
		return want, true
	}
	return caps.Formats[0], true
}

// OffscreenSurface is a Surface backed by a single device texture. It is
// used for headless rendering and accepts every adapter.
type OffscreenSurface struct {
	formats []gputypes.TextureFormat

	device   hal.Device
	texture  hal.Texture
	config   SurfaceConfiguration
	acquired bool

	presented int
}

// NewOffscreenSurface returns an unconfigured offscreen surface. The first
// format is the preferred one; BGRA8Unorm is used if none are given.
func NewOffscreenSurface(formats ...gputypes.TextureFormat) *OffscreenSurface {
	if len(formats) == 0 {
		formats = []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}
	}
	return &OffscreenSurface{formats: formats}
}

// Source returns a SurfaceSource that yields s.
func (s *OffscreenSurface) Source() SurfaceSource {
	return func(hal.Instance) (Surface, error) { return s, nil }
}

// Capabilities implements Surface.
func (s *OffscreenSurface) Capabilities(hal.Adapter) (SurfaceCapabilities, bool) {
	return SurfaceCapabilities{
		Formats:      slices.Clone(s.formats),
		PresentModes: []PresentMode{PresentModeFifo, PresentModeImmediate},
	}, true
}

// Configure implements Surface. It recreates the backing texture.
func (s *OffscreenSurface) Configure(device hal.Device, config SurfaceConfiguration) error {
	s.Unconfigure(device)
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "offscreen_surface",
		Size: hal.Extent3D{
			Width:              config.Width,
			Height:             config.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        config.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	s.device = device
	s.texture = tex
	s.config = config
	return nil
}

// Unconfigure implements Surface.
func (s *OffscreenSurface) Unconfigure(hal.Device) {
	if s.texture != nil && s.device != nil {
		s.device.DestroyTexture(s.texture)
	}
	s.texture = nil
	s.acquired = false
}

// Acquire implements Surface.
func (s *OffscreenSurface) Acquire() (hal.Texture, error) {
	if s.texture == nil {
		return nil, NewSurfaceError(SurfaceErrorOutdated, "acquire", fmt.Errorf("surface not configured"))
	}
	if s.acquired {
		return nil, NewSurfaceError(SurfaceErrorOther, "acquire", fmt.Errorf("texture already acquired"))
	}
	s.acquired = true
	return s.texture, nil
}

// Present implements Surface.
func (s *OffscreenSurface) Present(hal.Queue) error {
	if !s.acquired {
		return NewSurfaceError(SurfaceErrorOther, "present", fmt.Errorf("no texture acquired"))
	}
	s.acquired = false
	s.presented++
	return nil
}

// Discard implements Surface.
func (s *OffscreenSurface) Discard() {
	s.acquired = false
}

// Destroy implements Surface.
func (s *OffscreenSurface) Destroy() {
	s.Unconfigure(s.device)
	s.device = nil
}

// Config returns the last applied configuration.
func (s *OffscreenSurface) Config() SurfaceConfiguration { return s.config }

// Presented returns the number of frames presented so far.
func (s *OffscreenSurface) Presented() int { return s.presented }
