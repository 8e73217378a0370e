// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/mesh"
)

//go:embed shaders/mesh.wgsl
var meshShaderSource string

// MeshShaderSource returns the built-in WGSL mesh shader.
func MeshShaderSource() string { return meshShaderSource }

// meshPipeline holds the fixed render pipeline for the mesh and the layouts
// it was built from.
type meshPipeline struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// meshVertexLayout returns the vertex buffer layout for mesh.Vertex.
func meshVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: mesh.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: mesh.PositionOffset, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x3, Offset: mesh.ColorOffset, ShaderLocation: 1},    // color
			},
		},
	}
}

// meshPrimitiveState returns the rasterizer state: counter-clockwise
// triangles are front-facing and back faces are culled.
func meshPrimitiveState() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  gputypes.CullModeBack,
	}
}

// cameraBindGroupLayoutEntries describes the transform uniform at group 0.
func cameraBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
}

// validateShader compiles src with naga. Features naga does not implement
// yet are logged and tolerated; the driver compiles the shader again at
// module creation.
func validateShader(src string) error {
	spirv, err := naga.Compile(src)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			slogger().Warn("render: shader validation skipped", "error", err)
			return nil
		}
		return err
	}
	slogger().Debug("render: shader validated", "spirv_bytes", len(spirv))
	return nil
}

// createMeshPipeline builds the mesh pipeline for the given surface format.
// On error every object created so far is released.
func createMeshPipeline(device hal.Device, format gputypes.TextureFormat, o *options) (*meshPipeline, error) {
	if strings.TrimSpace(o.shaderSource) == "" {
		return nil, fmt.Errorf("%w: mesh shader source is empty", ErrPipelineCreation)
	}
	if o.validateShader {
		if err := validateShader(o.shaderSource); err != nil {
			return nil, fmt.Errorf("%w: validate mesh shader: %w", ErrPipelineCreation, err)
		}
	}

	p := &meshPipeline{}
	fail := func(step string, err error) (*meshPipeline, error) {
		p.destroy(device)
		return nil, fmt.Errorf("%w: %s: %w", ErrPipelineCreation, step, err)
	}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "mesh_shader",
		Source: hal.ShaderSource{WGSL: o.shaderSource},
	})
	if err != nil {
		return fail("compile mesh shader", err)
	}
	p.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "camera_bind_group_layout",
		Entries: cameraBindGroupLayoutEntries(),
	})
	if err != nil {
		return fail("create camera bind group layout", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mesh_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fail("create mesh pipeline layout", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mesh_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: o.vertexEntry,
			Buffers:    meshVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: o.fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     nil, // replace
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: meshPrimitiveState(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fail("create mesh pipeline", err)
	}
	p.pipeline = pipeline

	slogger().Debug("render: mesh pipeline created",
		"format", format,
		"stride", mesh.VertexStride,
		"vertex_entry", o.vertexEntry,
		"fragment_entry", o.fragmentEntry)
	return p, nil
}

// destroy releases pipeline resources in reverse creation order.
func (p *meshPipeline) destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
