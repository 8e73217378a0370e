// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/buffer"
	"github.com/gogpu/sandbox/camera"
	"github.com/gogpu/sandbox/mesh"
)

// State is the renderer lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRendering
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateRendering:
		return "Rendering"
	case StateDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Renderer owns the GPU device, the surface, the mesh pipeline and the
// buffers it reads. It is not safe for concurrent use.
type Renderer struct {
	opts  options
	state State

	instance hal.Instance
	surface  Surface
	adapter  hal.Adapter
	info     AdapterInfo
	device   hal.Device
	queue    hal.Queue

	config SurfaceConfiguration

	pipeline  *meshPipeline
	vertices  *buffer.Typed[mesh.Vertex]
	indices   *buffer.Typed[uint16]
	camera    *CameraBuffer
	bindGroup hal.BindGroup

	indexCount uint32
	frame      *Frame
	frameIndex uint64
	inflight   []submission

	// hosted renderers borrow the device and never destroy it.
	hosted bool
}

// New brings up the GPU for the surface produced by source, configures it
// at width x height and uploads m.
//
// New returns ErrAdapterNotFound when no adapter can present to the
// surface and ErrDeviceRequestFailed when the selected adapter cannot open
// a device. Anything created before a failure is released.
func New(source SurfaceSource, width, height int, m *mesh.Mesh, opts ...Option) (*Renderer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&r.opts)
	}
	if err := r.init(source, width, height, m); err != nil {
		r.release()
		return nil, err
	}
	r.ready()
	return r, nil
}

func (r *Renderer) ready() {
	r.state = StateReady
	slogger().Info("render: renderer ready",
		"adapter", r.info.Name,
		"width", r.config.Width,
		"height", r.config.Height,
		"format", r.config.Format,
		"present_mode", r.config.PresentMode,
		"indices", r.indexCount,
		"hosted", r.hosted)
}

func (r *Renderer) init(source SurfaceSource, width, height int, m *mesh.Mesh) error {
	backend := r.opts.backend
	if backend == nil {
		b, ok := defaultBackend()
		if !ok {
			return ErrBackendUnavailable
		}
		backend = b
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	r.instance = instance

	if source == nil {
		return fmt.Errorf("%w: no surface source", ErrSurfaceCreation)
	}
	surface, err := source(instance)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceCreation, err)
	}
	r.surface = surface

	selected, caps, err := selectAdapter(instance, surface, r.opts.power)
	if err != nil {
		return err
	}
	r.adapter = selected.Adapter
	r.info = AdapterInfo{Name: selected.Info.Name, DeviceType: selected.Info.DeviceType}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeviceRequestFailed, r.info.Name, err)
	}
	r.device = openDev.Device
	r.queue = openDev.Queue

	return r.setup(caps, width, height, m)
}

// setup configures the surface, builds the pipeline and uploads m once the
// device exists.
func (r *Renderer) setup(caps SurfaceCapabilities, width, height int, m *mesh.Mesh) error {
	format, _ := chooseFormat(caps, r.opts.format)
	w, h := clampExtent(width, height)
	r.config = SurfaceConfiguration{
		Width:       w,
		Height:      h,
		Format:      format,
		PresentMode: PresentModeFifo,
	}
	if err := r.surface.Configure(r.device, r.config); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}

	pipeline, err := createMeshPipeline(r.device, format, &r.opts)
	if err != nil {
		return err
	}
	r.pipeline = pipeline

	return r.uploadMesh(m)
}

// uploadMesh creates the vertex, index and camera buffers and the camera
// bind group.
func (r *Renderer) uploadMesh(m *mesh.Mesh) error {
	vertices, err := buffer.New(r.device, r.queue, "mesh_vertices", m.Vertices, gputypes.BufferUsageVertex)
	if err != nil {
		return err
	}
	r.vertices = vertices

	indices, err := buffer.New(r.device, r.queue, "mesh_indices", m.Indices, gputypes.BufferUsageIndex)
	if err != nil {
		return err
	}
	r.indices = indices
	r.indexCount = m.IndexCount()

	initial := camera.Default().BuildMVP(int(r.config.Width), int(r.config.Height))
	cb, err := NewCameraBuffer(r.device, r.queue, initial)
	if err != nil {
		return err
	}
	r.camera = cb

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "camera_bind_group",
		Layout: r.pipeline.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: cb.Buffer().Raw().NativeHandle(),
					Offset: 0,
					Size:   cb.Buffer().Size(),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create camera bind group: %w", err)
	}
	r.bindGroup = bindGroup

	slogger().Debug("render: mesh uploaded",
		"vertices", vertices.Len(),
		"vertex_bytes", vertices.Size(),
		"indices", indices.Len(),
		"index_bytes", indices.Size())
	return nil
}

// UploadCameraTransform writes m into the camera uniform buffer. The next
// frame submitted reads the new value.
func (r *Renderer) UploadCameraTransform(m mgl32.Mat4) error {
	if r.camera == nil || r.state == StateDestroyed {
		return ErrNotReady
	}
	return r.camera.Upload(r.queue, m)
}

// CameraBuffer returns the camera uniform buffer.
func (r *Renderer) CameraBuffer() *CameraBuffer { return r.camera }

// Resize reconfigures the surface for the new window size. Dimensions are
// clamped to at least 1, and repeating a size is harmless.
func (r *Renderer) Resize(width, height int) error {
	if r.state == StateDestroyed || r.state == StateUninitialized {
		return ErrNotReady
	}
	w, h := clampExtent(width, height)
	r.config.Width = w
	r.config.Height = h
	return r.Reconfigure()
}

// Reconfigure applies the current configuration to the surface again. It
// recovers from Lost and Outdated surface errors.
func (r *Renderer) Reconfigure() error {
	if r.state == StateDestroyed || r.state == StateUninitialized {
		return ErrNotReady
	}
	if r.frame != nil {
		r.abandonFrame()
	}
	if err := r.surface.Configure(r.device, r.config); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", r.config.Width, r.config.Height, err)
	}
	slogger().Debug("render: surface configured", "width", r.config.Width, "height", r.config.Height)
	return nil
}

// SurfaceConfig returns the current surface configuration.
func (r *Renderer) SurfaceConfig() SurfaceConfiguration { return r.config }

// Size returns the configured surface size in pixels.
func (r *Renderer) Size() (width, height int) {
	return int(r.config.Width), int(r.config.Height)
}

// State returns the lifecycle state.
func (r *Renderer) State() State { return r.state }

// AdapterInfo returns the selected adapter.
func (r *Renderer) AdapterInfo() AdapterInfo { return r.info }

// IndexCount returns the number of indices drawn per frame.
func (r *Renderer) IndexCount() uint32 { return r.indexCount }

// Provider returns a DeviceHandle sharing the renderer's device.
func (r *Renderer) Provider() DeviceHandle { return deviceProvider{r: r} }

// Destroy releases every GPU object. Safe to call multiple times.
func (r *Renderer) Destroy() {
	if r.state == StateDestroyed {
		return
	}
	if r.frame != nil {
		r.abandonFrame()
	}
	r.release()
	r.state = StateDestroyed
	slogger().Info("render: renderer destroyed")
}

// release frees resources in reverse creation order.
func (r *Renderer) release() {
	if r.device != nil {
		r.drain()
		if r.bindGroup != nil {
			r.device.DestroyBindGroup(r.bindGroup)
			r.bindGroup = nil
		}
		r.camera.Destroy(r.device)
		if r.indices != nil {
			r.indices.Destroy(r.device)
		}
		if r.vertices != nil {
			r.vertices.Destroy(r.device)
		}
		r.pipeline.destroy(r.device)
		r.pipeline = nil
		if r.surface != nil {
			r.surface.Unconfigure(r.device)
		}
	}
	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}
	if r.hosted {
		r.device = nil
		r.queue = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
		r.queue = nil
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
	r.adapter = nil
}
