// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halsurface implements render.Surface on a native window using the
// wgpu HAL surface API.
package halsurface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/render"
)

// Surface wraps a hal.Surface created from native window handles.
type Surface struct {
	raw     hal.Surface
	current hal.SurfaceTexture
}

// Source returns a render.SurfaceSource creating a surface for the window
// identified by display and window. On Linux these are the X11 Display
// pointer and Window id; on Windows the HINSTANCE and HWND.
func Source(display, window uintptr) render.SurfaceSource {
	return func(instance hal.Instance) (render.Surface, error) {
		raw, err := instance.CreateSurface(display, window)
		if err != nil {
			return nil, err
		}
		return &Surface{raw: raw}, nil
	}
}

// Capabilities implements render.Surface.
func (s *Surface) Capabilities(adapter hal.Adapter) (render.SurfaceCapabilities, bool) {
	caps := adapter.SurfaceCapabilities(s.raw)
	if caps == nil || len(caps.Formats) == 0 {
		return render.SurfaceCapabilities{}, false
	}
	out := render.SurfaceCapabilities{
		Formats: append([]gputypes.TextureFormat(nil), caps.Formats...),
	}
	for _, m := range caps.PresentModes {
		if pm, ok := fromHALPresentMode(m); ok {
			out.PresentModes = append(out.PresentModes, pm)
		}
	}
	return out, true
}

// Configure implements render.Surface.
func (s *Surface) Configure(device hal.Device, config render.SurfaceConfiguration) error {
	err := s.raw.Configure(device, &hal.SurfaceConfiguration{
		Width:       config.Width,
		Height:      config.Height,
		Format:      config.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: toHALPresentMode(config.PresentMode),
		AlphaMode:   hal.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return classify("configure", err)
	}
	return nil
}

// Unconfigure implements render.Surface.
func (s *Surface) Unconfigure(device hal.Device) {
	s.Discard()
	s.raw.Unconfigure(device)
}

// Acquire implements render.Surface.
func (s *Surface) Acquire() (hal.Texture, error) {
	acquired, err := s.raw.AcquireTexture(nil)
	if err != nil {
		return nil, classify("acquire", err)
	}
	s.current = acquired.Texture
	return acquired.Texture, nil
}

// Present implements render.Surface.
func (s *Surface) Present(queue hal.Queue) error {
	if s.current == nil {
		return render.NewSurfaceError(render.SurfaceErrorOther, "present", errors.New("no texture acquired"))
	}
	tex := s.current
	s.current = nil
	if err := queue.Present(s.raw, tex, nil); err != nil {
		return classify("present", err)
	}
	return nil
}

// Discard implements render.Surface.
func (s *Surface) Discard() {
	if s.current == nil {
		return
	}
	s.raw.DiscardTexture(s.current)
	s.current = nil
}

// Destroy implements render.Surface.
func (s *Surface) Destroy() {
	s.raw.Destroy()
}

// classify maps HAL surface errors to render.SurfaceError kinds.
func classify(op string, err error) error {
	kind := render.SurfaceErrorOther
	switch {
	case errors.Is(err, hal.ErrSurfaceLost):
		kind = render.SurfaceErrorLost
	case errors.Is(err, hal.ErrSurfaceOutdated):
		kind = render.SurfaceErrorOutdated
	case errors.Is(err, hal.ErrTimeout):
		kind = render.SurfaceErrorTimeout
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		kind = render.SurfaceErrorOutOfMemory
	}
	return render.NewSurfaceError(kind, op, err)
}

func toHALPresentMode(m render.PresentMode) hal.PresentMode {
	switch m {
	case render.PresentModeFifoRelaxed:
		return hal.PresentModeFifoRelaxed
	case render.PresentModeMailbox:
		return hal.PresentModeMailbox
	case render.PresentModeImmediate:
		return hal.PresentModeImmediate
	default:
		return hal.PresentModeFifo
	}
}

func fromHALPresentMode(m hal.PresentMode) (render.PresentMode, bool) {
	switch m {
	case hal.PresentModeFifo:
		return render.PresentModeFifo, true
	case hal.PresentModeFifoRelaxed:
		return render.PresentModeFifoRelaxed, true
	case hal.PresentModeMailbox:
		return render.PresentModeMailbox, true
	case hal.PresentModeImmediate:
		return render.PresentModeImmediate, true
	}
	return 0, false
}

var _ render.Surface = (*Surface)(nil)

// String describes the surface for logs.
func (s *Surface) String() string {
	return fmt.Sprintf("halsurface(%T)", s.raw)
}
