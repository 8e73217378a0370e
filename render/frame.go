// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submission is a command buffer the GPU may still be executing.
type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

// maxInFlight is the number of unfinished submissions above which the
// renderer reports that the GPU is falling behind.
const maxInFlight = 3

// Frame is one in-flight frame: an acquired surface texture and an open
// command encoder with the mesh pass already recorded.
//
// A Frame is only valid between RenderFrame and FinishFrame. Encoders
// handed to AppendPass callbacks must not be retained.
type Frame struct {
	index    uint64
	texture  hal.Texture
	view     hal.TextureView
	ownsView bool
	encoder  hal.CommandEncoder

	width, height uint32
	format        gputypes.TextureFormat
	indexCount    uint32
	passes        []string
	done          bool
}

// Index returns the frame sequence number, starting at 1.
func (f *Frame) Index() uint64 { return f.index }

// Size returns the surface texture size in pixels.
func (f *Frame) Size() (width, height uint32) { return f.width, f.height }

// Format returns the surface texture format.
func (f *Frame) Format() gputypes.TextureFormat { return f.format }

// IndexCount returns the number of indices drawn by the mesh pass.
func (f *Frame) IndexCount() uint32 { return f.indexCount }

// Passes returns the labels of the passes recorded so far.
func (f *Frame) Passes() []string {
	out := make([]string, len(f.passes))
	copy(out, f.passes)
	return out
}

// AppendPass records an extra render pass on the frame's surface texture.
// The pass loads the existing contents, so it draws over the mesh. The
// encoder passed to record is ended when record returns.
func (f *Frame) AppendPass(label string, record func(rp hal.RenderPassEncoder)) error {
	if f.done {
		return ErrStaleFrame
	}
	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    f.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	record(rp)
	rp.End()
	f.passes = append(f.passes, label)
	return nil
}

// RenderFrame acquires the next surface texture and records the mesh pass:
// clear, bind the pipeline and camera group, bind vertex and index buffers,
// and draw every index. The returned Frame is not yet submitted.
//
// Surface failures are returned as *SurfaceError; see Classify.
func (r *Renderer) RenderFrame() (*Frame, error) {
	switch r.state {
	case StateReady:
	case StateRendering:
		return nil, ErrFrameInFlight
	default:
		return nil, ErrNotReady
	}

	tex, view, ownsView, err := r.acquireView()
	if err != nil {
		return nil, err
	}
	release := func() {
		if ownsView {
			r.device.DestroyTextureView(view)
		}
		r.surface.Discard()
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		release()
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		release()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	r.frameIndex++
	f := &Frame{
		index:      r.frameIndex,
		texture:    tex,
		view:       view,
		ownsView:   ownsView,
		encoder:    encoder,
		width:      r.config.Width,
		height:     r.config.Height,
		format:     r.config.Format,
		indexCount: r.indexCount,
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "mesh_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.opts.clearColor,
		}},
	})
	rp.SetPipeline(r.pipeline.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.SetVertexBuffer(0, r.vertices.Raw(), 0)
	rp.SetIndexBuffer(r.indices.Raw(), gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(r.indexCount, 1, 0, 0, 0)
	rp.End()
	f.passes = append(f.passes, "mesh_pass")

	r.frame = f
	r.state = StateRendering
	return f, nil
}

// acquireView returns the texture view the mesh pass renders into. A
// ViewSurface supplies its own view; otherwise the renderer creates one
// for the acquired texture and destroys it when the frame ends.
func (r *Renderer) acquireView() (hal.Texture, hal.TextureView, bool, error) {
	if vs, ok := r.surface.(ViewSurface); ok {
		view, err := vs.AcquireView()
		if err != nil {
			return nil, nil, false, err
		}
		return nil, view, false, nil
	}
	tex, err := r.surface.Acquire()
	if err != nil {
		return nil, nil, false, err
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "surface_view",
	})
	if err != nil {
		r.surface.Discard()
		return nil, nil, false, fmt.Errorf("create surface view: %w", err)
	}
	return tex, view, true, nil
}

// FinishFrame ends recording, submits the command buffer and presents the
// surface texture. The frame cannot be used afterwards.
//
// Command buffers are freed once the queue reports their submission
// complete, so FinishFrame never blocks on the GPU.
func (r *Renderer) FinishFrame(f *Frame) error {
	if f == nil || f.done || f != r.frame {
		return ErrStaleFrame
	}
	defer r.endFrame(f)

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		r.surface.Discard()
		return fmt.Errorf("end encoding: %w", err)
	}

	idx, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		r.device.FreeCommandBuffer(cmdBuf)
		r.surface.Discard()
		return fmt.Errorf("submit: %w", err)
	}
	r.inflight = append(r.inflight, submission{index: idx, cmd: cmdBuf})
	r.reclaim()

	return r.surface.Present(r.queue)
}

// reclaim frees command buffers whose submissions have completed.
func (r *Renderer) reclaim() {
	done := r.queue.PollCompleted()
	kept := r.inflight[:0]
	for _, s := range r.inflight {
		if s.index <= done {
			r.device.FreeCommandBuffer(s.cmd)
			continue
		}
		kept = append(kept, s)
	}
	clear(r.inflight[len(kept):])
	r.inflight = kept
	if len(r.inflight) > maxInFlight {
		slogger().Warn("render: GPU falling behind", "in_flight", len(r.inflight), "completed", done)
	}
}

// drain waits for the GPU to go idle and frees every in-flight command
// buffer.
func (r *Renderer) drain() {
	if len(r.inflight) == 0 {
		return
	}
	if err := r.device.WaitIdle(); err != nil {
		slogger().Warn("render: wait idle failed", "error", err)
	}
	for _, s := range r.inflight {
		r.device.FreeCommandBuffer(s.cmd)
	}
	clear(r.inflight)
	r.inflight = r.inflight[:0]
}

// abandonFrame drops an unfinished frame without submitting it.
func (r *Renderer) abandonFrame() {
	f := r.frame
	f.encoder.DiscardEncoding()
	r.surface.Discard()
	r.endFrame(f)
	slogger().Debug("render: frame abandoned", "frame", f.index)
}

// endFrame releases per-frame objects and returns the renderer to Ready.
func (r *Renderer) endFrame(f *Frame) {
	if f.view != nil && f.ownsView {
		r.device.DestroyTextureView(f.view)
	}
	f.view = nil
	f.done = true
	f.encoder = nil
	f.texture = nil
	if r.frame == f {
		r.frame = nil
	}
	if r.state == StateRendering {
		r.state = StateReady
	}
}
