// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AdapterInfo describes the adapter the renderer runs on.
type AdapterInfo struct {
	Name       string
	DeviceType gputypes.DeviceType
}

// adapterCandidate is an enumerated adapter as seen by the selection policy.
type adapterCandidate struct {
	name       string
	deviceType gputypes.DeviceType
	compatible bool
}

// pickAdapter returns the index of the adapter to open, or -1 if none is
// compatible with the surface.
//
// PowerLow prefers an integrated GPU and PowerHigh a discrete one. Without
// a preferred match, or with PowerNone, the first compatible adapter wins.
func pickAdapter(cands []adapterCandidate, pref PowerPreference) int {
	var want gputypes.DeviceType
	hasWant := true
	switch pref {
	case PowerLow:
		want = gputypes.DeviceTypeIntegratedGPU
	case PowerHigh:
		want = gputypes.DeviceTypeDiscreteGPU
	default:
		hasWant = false
	}

	first := -1
	for i, c := range cands {
		if !c.compatible {
			continue
		}
		if hasWant && c.deviceType == want {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// selectAdapter enumerates the instance's adapters, logs each one and picks
// one that can present to surface.
func selectAdapter(instance hal.Instance, surface Surface, pref PowerPreference) (*hal.ExposedAdapter, SurfaceCapabilities, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, SurfaceCapabilities{}, ErrAdapterNotFound
	}

	caps := make([]SurfaceCapabilities, len(adapters))
	cands := make([]adapterCandidate, len(adapters))
	for i := range adapters {
		a := &adapters[i]
		c, ok := surface.Capabilities(a.Adapter)
		ok = ok && len(c.Formats) > 0
		caps[i] = c
		cands[i] = adapterCandidate{
			name:       a.Info.Name,
			deviceType: a.Info.DeviceType,
			compatible: ok,
		}
		slogger().Info("render: adapter found",
			"index", i,
			"name", a.Info.Name,
			"vendor", a.Info.Vendor,
			"type", a.Info.DeviceType,
			"backend", a.Info.Backend,
			"compatible", ok)
	}

	idx := pickAdapter(cands, pref)
	if idx < 0 {
		return nil, SurfaceCapabilities{}, ErrAdapterNotFound
	}
	slogger().Info("render: adapter selected",
		"name", cands[idx].name,
		"type", cands[idx].deviceType,
		"power_preference", pref)
	return &adapters[idx], caps[idx], nil
}
