// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/buffer"
	"github.com/gogpu/sandbox/camera"
)

// CameraBuffer is the uniform buffer holding the camera transform read by
// the mesh shader at group 0, binding 0.
//
// The renderer never checks whether the uploaded matrix is current. Callers
// upload after every camera or viewport change.
type CameraBuffer struct {
	transform camera.Transform
	buf       *buffer.Typed[camera.Transform]
}

// NewCameraBuffer creates the uniform buffer initialised with m.
func NewCameraBuffer(device hal.Device, queue hal.Queue, m mgl32.Mat4) (*CameraBuffer, error) {
	cb := &CameraBuffer{transform: camera.NewTransform(m)}
	buf, err := buffer.New(device, queue, "camera_transform",
		[]camera.Transform{cb.transform},
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	cb.buf = buf
	return cb, nil
}

// Upload stores m and writes it to the GPU.
func (cb *CameraBuffer) Upload(queue hal.Queue, m mgl32.Mat4) error {
	cb.transform.Set(m)
	return cb.buf.Update(queue, []camera.Transform{cb.transform}, 0)
}

// Transform returns the last uploaded transform.
func (cb *CameraBuffer) Transform() camera.Transform { return cb.transform }

// Buffer returns the typed GPU buffer.
func (cb *CameraBuffer) Buffer() *buffer.Typed[camera.Transform] { return cb.buf }

// Destroy releases the GPU buffer.
func (cb *CameraBuffer) Destroy(device hal.Device) {
	if cb == nil || cb.buf == nil {
		return
	}
	cb.buf.Destroy(device)
}
