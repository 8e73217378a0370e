package overlay

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sandbox/buffer"
	"github.com/gogpu/sandbox/camera"
)

//go:embed shaders/overlay.wgsl
var overlayShaderSource string

// ErrNoHALAccess is returned when a device provider does not expose its
// HAL device and queue.
var ErrNoHALAccess = errors.New("overlay: provider does not expose HAL types")

// minVertexCapacity is the smallest vertex buffer allocated, in vertices.
const minVertexCapacity = 256

// Frame is the part of an in-flight frame the overlay draws into.
// *render.Frame implements it.
type Frame interface {
	Size() (width, height uint32)
	AppendPass(label string, record func(rp hal.RenderPassEncoder)) error
}

// viewportUniform is the overlay uniform block, padded to 16 bytes.
type viewportUniform struct {
	Size [2]float32
	_    [2]float32
}

// Renderer draws a Panel using a device shared through a
// gpucontext.DeviceProvider. It owns its pipeline and buffers but not the
// device.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	// GPU objects for the render pipeline.
	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	uniform   *buffer.Typed[viewportUniform]
	vertices  *buffer.Typed[Vertex]
	bindGroup hal.BindGroup

	// Label glyphs.
	atlas       *Atlas
	atlasTex    hal.Texture
	atlasView   hal.TextureView
	atlasSample hal.Sampler

	builder   builder
	staging   []Vertex
	vertCount uint32
}

// NewRenderer creates an overlay renderer on the provider's device. The
// pipeline targets the provider's surface format.
func NewRenderer(provider gpucontext.DeviceProvider) (*Renderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}

	atlas, err := DefaultAtlas()
	if err != nil {
		return nil, err
	}

	r := &Renderer{device: device, queue: queue, format: provider.SurfaceFormat(), atlas: atlas}
	if err := r.createPipeline(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.uploadAtlas(); err != nil {
		r.Destroy()
		return nil, err
	}
	uniform, err := buffer.New(device, queue, "overlay_viewport", []viewportUniform{{}}, gputypes.BufferUsageUniform)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	r.uniform = uniform

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "overlay_bind_group",
		Layout: r.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: uniform.Raw().NativeHandle(),
					Offset: 0,
					Size:   uniform.Size(),
				},
			},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: r.atlasView.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: r.atlasSample.NativeHandle()}},
		},
	})
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("create overlay bind group: %w", err)
	}
	r.bindGroup = bindGroup
	slogger().Debug("overlay: renderer created", "format", r.format)
	return r, nil
}

// Draw uploads the panel geometry and appends an overlay pass to frame.
// Nothing is recorded for a hidden panel.
func (r *Renderer) Draw(frame Frame, p *Panel, cam camera.Camera) error {
	if err := r.Prepare(frame, p, cam); err != nil {
		return err
	}
	if r.vertCount == 0 {
		return nil
	}
	return frame.AppendPass("overlay", r.record)
}

// Prepare uploads the viewport size and panel vertices for the next pass.
func (r *Renderer) Prepare(frame Frame, p *Panel, cam camera.Camera) error {
	r.staging = r.builder.build(r.staging, p, cam, r.atlas)
	r.vertCount = uint32(len(r.staging)) //nolint:gosec // bounded by panel rows
	if r.vertCount == 0 {
		return nil
	}

	w, h := frame.Size()
	if err := r.uniform.Update(r.queue, []viewportUniform{{Size: [2]float32{float32(w), float32(h)}}}, 0); err != nil {
		return err
	}

	if r.vertices == nil || r.vertices.Len() < len(r.staging) {
		if r.vertices != nil {
			r.vertices.Destroy(r.device)
		}
		capacity := max(minVertexCapacity, len(r.staging))
		data := make([]Vertex, capacity)
		copy(data, r.staging)
		vb, err := buffer.New(r.device, r.queue, "overlay_vertices", data, gputypes.BufferUsageVertex)
		if err != nil {
			r.vertices = nil
			return err
		}
		r.vertices = vb
		slogger().Debug("overlay: vertex buffer allocated", "capacity", capacity, "bytes", vb.Size())
		return nil
	}
	return r.vertices.Update(r.queue, r.staging, 0)
}

// VertexCount returns the number of vertices prepared for the next pass.
func (r *Renderer) VertexCount() uint32 { return r.vertCount }

// record draws the prepared vertices into rp.
func (r *Renderer) record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.SetVertexBuffer(0, r.vertices.Raw(), 0)
	rp.Draw(r.vertCount, 1, 0, 0)
}

// uploadAtlas copies the glyph atlas into a sampled texture.
func (r *Renderer) uploadAtlas() error {
	w, h := r.atlas.Size()
	size := hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1} //nolint:gosec // atlas is at most 256x256
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "overlay_atlas",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create overlay atlas: %w", err)
	}
	r.atlasTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "overlay_atlas_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create overlay atlas view: %w", err)
	}
	r.atlasView = view

	// Glyphs are placed on whole pixels, so nearest filtering keeps them sharp.
	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "overlay_atlas_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create overlay atlas sampler: %w", err)
	}
	r.atlasSample = sampler

	err = r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		r.atlas.Pixels(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: AtlasWidth, RowsPerImage: size.Height},
		&size,
	)
	if err != nil {
		return fmt.Errorf("upload overlay atlas: %w", err)
	}
	slogger().Debug("overlay: atlas uploaded", "width", w, "height", h)
	return nil
}

// createPipeline compiles the overlay shader and creates the pipeline with
// premultiplied alpha blending.
func (r *Renderer) createPipeline() error {
	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "overlay_shader",
		Source: hal.ShaderSource{WGSL: overlayShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile overlay shader: %w", err)
	}
	r.shader = shader

	uniformLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "overlay_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create overlay uniform layout: %w", err)
	}
	r.uniformLayout = uniformLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "overlay_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create overlay pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "overlay_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
			Buffers:    overlayVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create overlay pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

// Destroy releases the overlay's GPU objects. Safe to call multiple times.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.vertices != nil {
		r.vertices.Destroy(r.device)
		r.vertices = nil
	}
	if r.uniform != nil {
		r.uniform.Destroy(r.device)
		r.uniform = nil
	}
	if r.atlasSample != nil {
		r.device.DestroySampler(r.atlasSample)
		r.atlasSample = nil
	}
	if r.atlasView != nil {
		r.device.DestroyTextureView(r.atlasView)
		r.atlasView = nil
	}
	if r.atlasTex != nil {
		r.device.DestroyTexture(r.atlasTex)
		r.atlasTex = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.uniformLayout != nil {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// overlayVertexLayout returns the vertex buffer layout for Vertex.
func overlayVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},  // color
				{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // uv
			},
		},
	}
}
