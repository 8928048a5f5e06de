package core

// Vertex layout shared with the quad-batch renderer, in float32 units.
//
//	struct QuadVertex { vec3 pos; vec4 color; vec2 uv; }
const (
	PositionOffset = 0
	ColorOffset    = 3
	TexCoordOffset = 7
	VertexStride   = 9

	VerticesPerQuad = 4
	IndicesPerQuad  = 6
	QuadStride      = VertexStride * VerticesPerQuad
)

// Corner order inside a quad.
const (
	CornerBottomLeft = iota
	CornerTopLeft
	CornerBottomRight
	CornerTopRight
)

// QuadFloats is the float count a buffer needs to hold n quads.
func QuadFloats(n int) int {
	return n * QuadStride
}

// QuadIndices builds the triangle list for n quads: (BL, TL, BR) and (TL, TR, BR).
func QuadIndices(n int) []uint32 {
	indices := make([]uint32, 0, n*IndicesPerQuad)
	for i := 0; i < n; i++ {
		base := uint32(i * VerticesPerQuad)
		indices = append(indices,
			base+CornerBottomLeft, base+CornerTopLeft, base+CornerBottomRight,
			base+CornerTopLeft, base+CornerTopRight, base+CornerBottomRight,
		)
	}
	return indices
}

// WriteTexCoords fills the renderer-owned uv attribute of n quads with the
// full texture. Packing never touches these floats.
func WriteTexCoords(buf []float32, n int) {
	uvs := [VerticesPerQuad][2]float32{
		CornerBottomLeft:  {0, 1},
		CornerTopLeft:     {0, 0},
		CornerBottomRight: {1, 1},
		CornerTopRight:    {1, 0},
	}
	for q := 0; q < n; q++ {
		base := q * QuadStride
		for v, uv := range uvs {
			off := base + v*VertexStride + TexCoordOffset
			buf[off] = uv[0]
			buf[off+1] = uv[1]
		}
	}
}
