package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PackQuad writes the position and color attributes of quad idx from p.
// Corners sit at position ± size/2 on x and y, rotated around the particle
// by p.Rotation degrees; z is passed through. All four corners share p.Color.
func PackQuad(buf []float32, idx int, p *Particle) {
	base := idx * QuadStride
	hw := p.Size / 2
	offsets := [VerticesPerQuad]mgl32.Vec2{
		CornerBottomLeft:  {-hw, -hw},
		CornerTopLeft:     {-hw, hw},
		CornerBottomRight: {hw, -hw},
		CornerTopRight:    {hw, hw},
	}
	if p.Rotation != 0 {
		rot := mgl32.Rotate2D(mgl32.DegToRad(p.Rotation))
		for i := range offsets {
			offsets[i] = rot.Mul2x1(offsets[i])
		}
	}

	pos := p.Position
	for v, off := range offsets {
		vi := base + v*VertexStride
		buf[vi+PositionOffset] = pos[0] + off[0]
		buf[vi+PositionOffset+1] = pos[1] + off[1]
		buf[vi+PositionOffset+2] = pos[2]

		buf[vi+ColorOffset] = p.Color[0]
		buf[vi+ColorOffset+1] = p.Color[1]
		buf[vi+ColorOffset+2] = p.Color[2]
		buf[vi+ColorOffset+3] = p.Color[3]
	}
}
