// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// drawCall is one DrawIndexed issued inside a render pass.
type drawCall struct {
	indexCount    uint32
	instanceCount uint32
	firstIndex    uint32
	baseVertex    int32
	firstInstance uint32
}

// passRecord captures what a render pass was asked to do.
type passRecord struct {
	label       string
	view        hal.TextureView
	loadOp      gputypes.LoadOp
	clear       gputypes.Color
	pipeline    hal.RenderPipeline
	bindGroups  map[uint32]hal.BindGroup
	vertexBufs  map[uint32]hal.Buffer
	indexBuf    hal.Buffer
	indexFormat gputypes.IndexFormat
	draws       []drawCall
	ended       bool
}

// recorder collects render passes from every encoder of a device.
type recorder struct {
	passes         []*passRecord
	destroyedViews []hal.TextureView
}

func (r *recorder) pass(label string) *passRecord {
	for _, p := range r.passes {
		if p.label == label {
			return p
		}
	}
	return nil
}

// recordingBackend wraps the noop backend so every device it opens
// records its render passes into rec.
type recordingBackend struct {
	rec *recorder
}

func (b recordingBackend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	inst, err := noop.API{}.CreateInstance(desc)
	if err != nil {
		return nil, err
	}
	return recordingInstance{Instance: inst, rec: b.rec}, nil
}

type recordingInstance struct {
	hal.Instance
	rec *recorder
}

func (i recordingInstance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	adapters := i.Instance.EnumerateAdapters(hint)
	for n := range adapters {
		adapters[n].Adapter = recordingAdapter{Adapter: adapters[n].Adapter, rec: i.rec}
	}
	return adapters
}

type recordingAdapter struct {
	hal.Adapter
	rec *recorder
}

func (a recordingAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	dev, err := a.Adapter.Open(features, limits)
	if err != nil {
		return dev, err
	}
	dev.Device = recordingDevice{Device: dev.Device, rec: a.rec}
	return dev, nil
}

// recordingDevice hands out encoders that record their render passes.
type recordingDevice struct {
	hal.Device
	rec *recorder
}

func (d recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return recordingEncoder{CommandEncoder: enc, rec: d.rec}, nil
}

func (d recordingDevice) DestroyTextureView(view hal.TextureView) {
	d.rec.destroyedViews = append(d.rec.destroyedViews, view)
	d.Device.DestroyTextureView(view)
}

type recordingEncoder struct {
	hal.CommandEncoder
	rec *recorder
}

func (e recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &passRecord{
		label:      desc.Label,
		bindGroups: map[uint32]hal.BindGroup{},
		vertexBufs: map[uint32]hal.Buffer{},
	}
	if len(desc.ColorAttachments) > 0 {
		ca := desc.ColorAttachments[0]
		p.view = ca.View
		p.loadOp = ca.LoadOp
		p.clear = ca.ClearValue
	}
	e.rec.passes = append(e.rec.passes, p)
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), rec: p}
}

type recordingPass struct {
	hal.RenderPassEncoder
	rec *passRecord
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.rec.pipeline = pipeline
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.rec.bindGroups[index] = group
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *recordingPass) SetVertexBuffer(slot uint32, buf hal.Buffer, offset uint64) {
	p.rec.vertexBufs[slot] = buf
	p.RenderPassEncoder.SetVertexBuffer(slot, buf, offset)
}

func (p *recordingPass) SetIndexBuffer(buf hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.rec.indexBuf = buf
	p.rec.indexFormat = format
	p.RenderPassEncoder.SetIndexBuffer(buf, format, offset)
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.rec.draws = append(p.rec.draws, drawCall{indexCount, instanceCount, firstIndex, baseVertex, firstInstance})
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *recordingPass) End() {
	p.rec.ended = true
	p.RenderPassEncoder.End()
}
