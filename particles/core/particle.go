package core

import "github.com/go-gl/mathgl/mgl32"

// Particle is one pool slot. Deltas are per millisecond; accelerations are in
// units per second squared.
type Particle struct {
	RemainingLife float32

	Position mgl32.Vec3
	Velocity mgl32.Vec2

	Color      mgl32.Vec4
	DeltaColor mgl32.Vec4

	Size      float32
	DeltaSize float32

	// degrees
	Rotation      float32
	DeltaRotation float32

	RadialAccel     float32
	TangentialAccel float32
}

func (p *Particle) Alive() bool {
	return p.RemainingLife > 0
}

// age advances p by dt milliseconds. It returns false once the particle is dead,
// leaving the visual state of a dead particle untouched.
func (p *Particle) age(dt float32, gravity mgl32.Vec2) bool {
	p.RemainingLife -= dt
	if p.RemainingLife <= 0 {
		return false
	}
	p.Color = p.Color.Add(p.DeltaColor.Mul(dt))
	p.Size = max(0, p.Size+p.DeltaSize*dt)
	p.Rotation += p.DeltaRotation * dt

	secs := dt / 1000
	pos := mgl32.Vec2{p.Position.X(), p.Position.Y()}
	var radial mgl32.Vec2
	if pos.X() != 0 || pos.Y() != 0 {
		radial = pos.Normalize()
	}
	tangential := mgl32.Vec2{-radial.Y(), radial.X()}
	accel := radial.Mul(p.RadialAccel).
		Add(tangential.Mul(p.TangentialAccel)).
		Add(gravity)
	p.Velocity = p.Velocity.Add(accel.Mul(secs))
	p.Position[0] += p.Velocity.X() * secs
	p.Position[1] += p.Velocity.Y() * secs
	return true
}
