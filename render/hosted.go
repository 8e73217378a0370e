// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/mesh"
)

// ErrNoHalDevice is returned when a DeviceProvider does not expose HAL
// device and queue objects.
var ErrNoHalDevice = errors.New("render: provider does not expose a HAL device")

// ViewSurface is a Surface whose owner hands out ready texture views.
//
// The renderer draws into the view returned by AcquireView and leaves its
// lifetime to the surface. Present only signals that the renderer is done
// with the view; the owner presents it.
type ViewSurface interface {
	Surface
	AcquireView() (hal.TextureView, error)
}

// NewHosted creates a renderer on a device owned by someone else, usually
// the windowing layer. The renderer builds its pipeline and buffers on the
// provider's device and draws into surface, but it never opens, configures
// or destroys the device itself. Destroy releases only what the renderer
// created and must run while the device is still alive.
//
// The provider must expose HAL objects, either through
// HalDevice() any / HalQueue() any on the provider or through a Device()
// value with HalDevice() hal.Device / HalQueue() hal.Queue.
func NewHosted(provider gpucontext.DeviceProvider, surface Surface, width, height int, m *mesh.Mesh, opts ...Option) (*Renderer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrNoHalDevice)
	}
	if surface == nil {
		return nil, fmt.Errorf("%w: no surface", ErrSurfaceCreation)
	}
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}

	r := &Renderer{opts: defaultOptions(), hosted: true}
	for _, opt := range opts {
		opt(&r.opts)
	}
	r.surface = surface
	r.device = device
	r.queue = queue
	info := provider.AdapterInfo()
	r.info = AdapterInfo{Name: info.Name, DeviceType: deviceType(info.Type)}

	caps, ok := surface.Capabilities(nil)
	if !ok {
		caps = SurfaceCapabilities{}
	}
	if len(caps.Formats) == 0 {
		if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			caps.Formats = []gputypes.TextureFormat{f}
		}
	}
	if len(caps.Formats) == 0 {
		r.release()
		return nil, fmt.Errorf("%w: host reports no surface format", ErrSurfaceCreation)
	}

	if err := r.setup(caps, width, height, m); err != nil {
		r.release()
		return nil, err
	}
	r.ready()
	return r, nil
}

// Hosted reports whether the renderer borrows its device.
func (r *Renderer) Hosted() bool { return r.hosted }

// halFromProvider extracts the HAL device and queue from provider.
func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	}); ok {
		device, dok := hp.HalDevice().(hal.Device)
		queue, qok := hp.HalQueue().(hal.Queue)
		if dok && qok && device != nil && queue != nil {
			return device, queue, nil
		}
	}
	if wd, ok := provider.Device().(interface {
		HalDevice() hal.Device
		HalQueue() hal.Queue
	}); ok {
		device, queue := wd.HalDevice(), wd.HalQueue()
		if device != nil && queue != nil {
			return device, queue, nil
		}
	}
	return nil, nil, ErrNoHalDevice
}

func deviceType(t gpucontext.AdapterType) gputypes.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}
