// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PowerPreference selects between adapters when several can present.
type PowerPreference int

const (
	// PowerLow prefers integrated GPUs.
	PowerLow PowerPreference = iota

	// PowerHigh prefers discrete GPUs.
	PowerHigh

	// PowerNone takes the first compatible adapter.
	PowerNone
)

// String returns the config spelling of p.
func (p PowerPreference) String() string {
	switch p {
	case PowerLow:
		return "low-power"
	case PowerHigh:
		return "high-performance"
	case PowerNone:
		return "none"
	default:
		return fmt.Sprintf("PowerPreference(%d)", int(p))
	}
}

// ParsePowerPreference parses "low-power", "high-performance" or "none".
func ParsePowerPreference(s string) (PowerPreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low", "low-power":
		return PowerLow, nil
	case "high", "high-performance":
		return PowerHigh, nil
	case "none":
		return PowerNone, nil
	}
	return PowerLow, fmt.Errorf("render: unknown power preference %q", s)
}

// Backend creates HAL instances. hal.Backend and the noop API satisfy it.
type Backend interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// DefaultClearColor is the background colour behind the mesh.
var DefaultClearColor = gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	backend        Backend
	power          PowerPreference
	clearColor     gputypes.Color
	shaderSource   string
	vertexEntry    string
	fragmentEntry  string
	format         gputypes.TextureFormat
	validateShader bool
}

func defaultOptions() options {
	return options{
		power:          PowerLow,
		clearColor:     DefaultClearColor,
		shaderSource:   meshShaderSource,
		vertexEntry:    "vs_main",
		fragmentEntry:  "fs_main",
		format:         gputypes.TextureFormatUndefined,
		validateShader: true,
	}
}

// WithBackend sets the HAL backend. The default is Vulkan.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithPowerPreference sets the adapter preference. The default is PowerLow.
func WithPowerPreference(p PowerPreference) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithClearColor sets the colour the surface is cleared to each frame.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithShaderSource replaces the built-in WGSL mesh shader. The shader must
// read the vertex layout at locations 0 and 1 and the transform uniform at
// group 0, binding 0. An empty source keeps the built-in shader.
func WithShaderSource(wgsl string) Option {
	return func(o *options) {
		if wgsl != "" {
			o.shaderSource = wgsl
		}
	}
}

// WithEntryPoints sets the vertex and fragment entry point names.
func WithEntryPoints(vertex, fragment string) Option {
	return func(o *options) {
		if vertex != "" {
			o.vertexEntry = vertex
		}
		if fragment != "" {
			o.fragmentEntry = fragment
		}
	}
}

// WithSurfaceFormat requests a surface format. It is used when the surface
// supports it; otherwise the surface's preferred format is used.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithShaderValidation enables or disables compiling the shader with naga
// before pipeline creation. Enabled by default.
func WithShaderValidation(enabled bool) Option {
	return func(o *options) {
		o.validateShader = enabled
	}
}
