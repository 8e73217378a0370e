// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle gives collaborators, such as the overlay, access to the
// renderer's device without handing over ownership.
//
// Collaborators that need HAL objects assert for:
//
//	interface {
//	    HalDevice() any
//	    HalQueue() any
//	}
//
// and type-assert the results to hal.Device and hal.Queue.
type DeviceHandle = gpucontext.DeviceProvider

// deviceProvider implements DeviceHandle for a Renderer.
type deviceProvider struct {
	r *Renderer
}

// Device returns the shared hal.Device, or nil before initialisation.
func (p deviceProvider) Device() gpucontext.Device {
	if p.r.device == nil {
		return nil
	}
	return p.r.device
}

// Queue returns the shared hal.Queue.
func (p deviceProvider) Queue() gpucontext.Queue {
	if p.r.queue == nil {
		return nil
	}
	return p.r.queue
}

// Adapter returns the selected hal.Adapter.
func (p deviceProvider) Adapter() gpucontext.Adapter {
	if p.r.adapter == nil {
		return nil
	}
	return p.r.adapter
}

// AdapterInfo returns the selected adapter's name and class.
func (p deviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: p.r.info.Name,
		Type: adapterType(p.r.info.DeviceType),
	}
}

// SurfaceFormat returns the configured surface format.
func (p deviceProvider) SurfaceFormat() gputypes.TextureFormat {
	return p.r.config.Format
}

// HalDevice returns the hal.Device.
func (p deviceProvider) HalDevice() any { return p.r.device }

// HalQueue returns the hal.Queue.
func (p deviceProvider) HalQueue() any { return p.r.queue }

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

var _ DeviceHandle = deviceProvider{}
