// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render owns the GPU device, the window surface and the single
// mesh pipeline, and drives the per-frame acquire, record, submit and
// present cycle.
//
// # Lifecycle
//
//	r, err := render.New(source, 800, 600, mesh.Pentagon())
//	if err != nil {
//	    return err
//	}
//	defer r.Destroy()
//
//	r.UploadCameraTransform(cam.BuildMVP(800, 600))
//	frame, err := r.RenderFrame()
//	if err != nil {
//	    // see Classify
//	}
//	frame.AppendPass("overlay", func(rp hal.RenderPassEncoder) { ... })
//	err = r.FinishFrame(frame)
//
// RenderFrame records the clear and the indexed mesh draw and returns the
// in-flight Frame without presenting it. Callers may append load-op passes
// to the same surface texture until FinishFrame submits the command buffer
// and presents.
//
// # Surface errors
//
// Acquire and present failures are returned as *SurfaceError. Classify maps
// them to a Recovery: reconfigure on Lost or Outdated, stop on OutOfMemory,
// skip the frame otherwise.
//
// # Surfaces
//
// The renderer talks to the window through the Surface interface. The
// halsurface subpackage implements it on top of a native window handle.
// Tests use an offscreen implementation backed by a plain texture.
package render
