package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefx/particles/core"
	"github.com/go-gl/mathgl/mgl32"
)

// QuadBatch is a core.QuadBatch backed by a webgpu vertex buffer. Vertices are
// packed on the CPU and uploaded by DrawQuads; the draw itself is recorded when
// the renderer encodes its pass.
type QuadBatch struct {
	renderer *Renderer
	texture  core.TextureHandle
	capacity int
	vertices []float32

	vertexBuf *wgpu.Buffer
	indexBuf  *wgpu.Buffer
	viewBuf   *wgpu.Buffer
	bindGroup *wgpu.BindGroup

	origin    mgl32.Vec2
	viewDirty bool
	drawn     int
}

func (b *QuadBatch) createBuffers(gt *gpuTexture) error {
	r := b.renderer
	var err error

	b.vertexBuf, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Particle Vertices",
		Size:             uint64(core.QuadFloats(b.capacity) * 4),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer: %w", err)
	}

	b.indexBuf, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle Indices",
		Contents: wgpu.ToBytes(core.QuadIndices(b.capacity)),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return fmt.Errorf("failed to create index buffer: %w", err)
	}

	b.viewBuf, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle View",
		Contents: wgpu.ToBytes(viewUniform(r.viewport, b.origin)),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create view buffer: %w", err)
	}

	layout := r.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	b.bindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: gt.view},
			{Binding: 1, Sampler: r.sampler},
			{Binding: 2, Buffer: b.viewBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group: %w", err)
	}
	return nil
}

// viewUniform matches struct View in quad.wgsl.
func viewUniform(viewport, origin mgl32.Vec2) []float32 {
	return []float32{viewport.X(), viewport.Y(), origin.X(), origin.Y()}
}

func (b *QuadBatch) Vertices() []float32 { return b.vertices }

// DrawQuads uploads the first n quads. Values above capacity are clamped.
func (b *QuadBatch) DrawQuads(n int) {
	n = max(0, min(n, b.capacity))
	b.drawn = n
	if n == 0 || b.vertexBuf == nil {
		return
	}
	_ = b.renderer.queue.WriteBuffer(b.vertexBuf, 0, wgpu.ToBytes(b.vertices[:core.QuadFloats(n)]))
}

// SetOrigin places the emitter origin on screen, in pixels from the bottom left.
func (b *QuadBatch) SetOrigin(x, y float32) {
	b.origin = mgl32.Vec2{x, y}
	b.viewDirty = true
}

func (b *QuadBatch) Texture() core.TextureHandle { return b.texture }
func (b *QuadBatch) Capacity() int { return b.capacity }
func (b *QuadBatch) Drawn() int { return b.drawn }

func (b *QuadBatch) encode(pass *wgpu.RenderPassEncoder) {
	if b.drawn == 0 || b.bindGroup == nil {
		return
	}
	if b.viewDirty {
		_ = b.renderer.queue.WriteBuffer(b.viewBuf, 0, wgpu.ToBytes(viewUniform(b.renderer.viewport, b.origin)))
		b.viewDirty = false
	}
	pass.SetBindGroup(0, b.bindGroup, nil)
	pass.SetVertexBuffer(0, b.vertexBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(b.indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(b.drawn*core.IndicesPerQuad), 1, 0, 0, 0)
}

// Release frees the GPU buffers and detaches the batch from its renderer.
func (b *QuadBatch) Release() {
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	for _, buf := range []**wgpu.Buffer{&b.vertexBuf, &b.indexBuf, &b.viewBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if b.renderer != nil {
		b.renderer.forget(b)
		b.renderer = nil
	}
	b.vertices = nil
	b.capacity = 0
	b.drawn = 0
}
