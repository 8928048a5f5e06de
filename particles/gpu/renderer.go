package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefx/particles/core"
	"github.com/gekko3d/particlefx/particles/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

var _ core.BatchAllocator = (*Renderer)(nil)
var _ core.QuadBatch = (*QuadBatch)(nil)

// PixelSource hands out decoded texels for a texture handle.
type PixelSource interface {
	TexturePixels(h core.TextureHandle) (*image.RGBA, error)
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
}

// Renderer owns the quad pipeline and every batch allocated from it. It
// implements core.BatchAllocator.
type Renderer struct {
	device   *wgpu.Device
	queue    *wgpu.Queue
	pixels   PixelSource
	pipeline *wgpu.RenderPipeline
	sampler  *wgpu.Sampler

	textures map[core.TextureHandle]*gpuTexture
	batches  []*QuadBatch
	viewport mgl32.Vec2
}

func NewRenderer(device *wgpu.Device, format wgpu.TextureFormat, pixels PixelSource) (*Renderer, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Particle Quad Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.QuadWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quad shader module: %w", err)
	}
	defer shader.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Particle Quad Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quad pipeline: %w", err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		pipeline.Release()
		return nil, fmt.Errorf("failed to create quad sampler: %w", err)
	}

	return &Renderer{
		device:   device,
		queue:    device.GetQueue(),
		pixels:   pixels,
		pipeline: pipeline,
		sampler:  sampler,
		textures: map[core.TextureHandle]*gpuTexture{},
		viewport: mgl32.Vec2{1, 1},
	}, nil
}

// vertexLayout mirrors the float layout in core/layout.go.
func vertexLayout() wgpu.VertexBufferLayout {
	const f32 = 4
	return wgpu.VertexBufferLayout{
		ArrayStride: core.VertexStride * f32,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: core.PositionOffset * f32, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: core.ColorOffset * f32, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: core.TexCoordOffset * f32, ShaderLocation: 2},
		},
	}
}

// AllocQuads creates a vertex buffer for capacity quads, a matching index
// buffer and a bind group for tex. The texture is uploaded on first use.
func (r *Renderer) AllocQuads(tex core.TextureHandle, capacity int) (core.QuadBatch, error) {
	if capacity <= 0 || capacity > core.MaxCapacity {
		return nil, fmt.Errorf("quad batch capacity %d out of range", capacity)
	}
	gt, err := r.texture(tex)
	if err != nil {
		return nil, err
	}

	b := &QuadBatch{
		renderer: r,
		texture:  tex,
		capacity: capacity,
		vertices: make([]float32, core.QuadFloats(capacity)),
	}
	if err := b.createBuffers(gt); err != nil {
		b.Release()
		return nil, err
	}
	r.batches = append(r.batches, b)
	return b, nil
}

func (r *Renderer) texture(h core.TextureHandle) (*gpuTexture, error) {
	if gt, ok := r.textures[h]; ok {
		return gt, nil
	}
	if r.pixels == nil {
		return nil, fmt.Errorf("no pixel source for texture %s", h)
	}
	img, err := r.pixels.TexturePixels(h)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch texels of %s: %w", h, err)
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         string(h),
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", h, err)
	}
	err = r.queue.WriteTexture(texture.AsImageCopy(), img.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Stride),
		RowsPerImage: uint32(height),
	}, &extent)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to upload texture %s: %w", h, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to create view of %s: %w", h, err)
	}

	gt := &gpuTexture{texture: texture, view: view, width: width, height: height}
	r.textures[h] = gt
	return gt, nil
}

// SetViewport sets the framebuffer size used to map pixel positions to clip space.
func (r *Renderer) SetViewport(width, height int) {
	r.viewport = mgl32.Vec2{float32(max(width, 1)), float32(max(height, 1))}
	for _, b := range r.batches {
		b.viewDirty = true
	}
}

func (r *Renderer) Viewport() mgl32.Vec2 { return r.viewport }

// Batches lists the live batches in allocation order.
func (r *Renderer) Batches() []*QuadBatch { return r.batches }

// Encode records a draw for every batch with quads pending.
func (r *Renderer) Encode(pass *wgpu.RenderPassEncoder) {
	pass.SetPipeline(r.pipeline)
	for _, b := range r.batches {
		b.encode(pass)
	}
}

func (r *Renderer) forget(b *QuadBatch) {
	for i, other := range r.batches {
		if other == b {
			r.batches = append(r.batches[:i], r.batches[i+1:]...)
			return
		}
	}
}

// Release frees every batch, texture and the pipeline.
func (r *Renderer) Release() {
	for len(r.batches) > 0 {
		r.batches[len(r.batches)-1].Release()
	}
	for h, gt := range r.textures {
		gt.view.Release()
		gt.texture.Release()
		delete(r.textures, h)
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
}
