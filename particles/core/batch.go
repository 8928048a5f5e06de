package core

// TextureHandle identifies a texture owned by a TextureLoader.
type TextureHandle string

// TextureLoader resolves a texture source. Width is the decoded pixel width.
type TextureLoader interface {
	LoadTexture(src TextureSource) (TextureHandle, error)
	TextureWidth(h TextureHandle) int
}

// QuadBatch is one renderer-owned vertex buffer sized for a fixed number of
// quads. Vertices follows the layout in layout.go.
type QuadBatch interface {
	Vertices() []float32
	// DrawQuads submits the first n quads of Vertices.
	DrawQuads(n int)
	Release()
}

// BatchAllocator creates quad batches bound to a texture.
type BatchAllocator interface {
	AllocQuads(tex TextureHandle, capacity int) (QuadBatch, error)
}

// CPUBatch is a QuadBatch that keeps everything in memory. It backs headless
// hosts and tests.
type CPUBatch struct {
	Texture  TextureHandle
	vertices []float32
	capacity int
	drawn    int
	draws    int
}

func NewCPUBatch(tex TextureHandle, capacity int) *CPUBatch {
	return &CPUBatch{
		Texture:  tex,
		vertices: make([]float32, QuadFloats(capacity)),
		capacity: capacity,
	}
}

func (b *CPUBatch) Vertices() []float32 { return b.vertices }

func (b *CPUBatch) DrawQuads(n int) {
	b.drawn = min(n, b.capacity)
	b.draws++
}

func (b *CPUBatch) Release() {
	b.vertices = nil
	b.capacity = 0
	b.drawn = 0
}

func (b *CPUBatch) Capacity() int { return b.capacity }

// Drawn is the quad count of the last DrawQuads call.
func (b *CPUBatch) Drawn() int { return b.drawn }

// Draws counts DrawQuads calls.
func (b *CPUBatch) Draws() int { return b.draws }

// Quad returns the floats of quad i.
func (b *CPUBatch) Quad(i int) []float32 {
	return b.vertices[i*QuadStride : (i+1)*QuadStride]
}

// CPUBatches allocates CPUBatch values and remembers them.
type CPUBatches struct {
	Batches []*CPUBatch
}

func (a *CPUBatches) AllocQuads(tex TextureHandle, capacity int) (QuadBatch, error) {
	b := NewCPUBatch(tex, capacity)
	a.Batches = append(a.Batches, b)
	return b, nil
}
