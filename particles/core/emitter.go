package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Emitter owns a fixed pool of particles. Slots [0, LiveCount()) are always
// live; dead particles are swap-removed at the end of every Update.
type Emitter struct {
	cfg    EffectConfig
	src    Source
	period float64 // ms between spawns, 0 = no automatic emission

	particles []Particle
	live      int

	emitCounter float64 // ms
	elapsed     float64 // ms
	spawned     int
}

// NewEmitter preallocates cfg.MaxParticles slots. A nil src falls back to a
// time-seeded source.
func NewEmitter(cfg EffectConfig, src Source) *Emitter {
	if src == nil {
		src = NewSource(time.Now().UnixNano())
	}
	return &Emitter{
		cfg:       cfg,
		src:       src,
		period:    cfg.EmissionPeriod(),
		particles: make([]Particle, max(cfg.MaxParticles, 0)),
	}
}

func (e *Emitter) Config() EffectConfig { return e.cfg }
func (e *Emitter) Capacity() int { return len(e.particles) }
func (e *Emitter) LiveCount() int { return e.live }

// Elapsed is the emission time since the last reset, in milliseconds. It
// does not advance while emission is inactive.
func (e *Emitter) Elapsed() float64 { return e.elapsed }

// Spawned counts every particle created since construction.
func (e *Emitter) Spawned() int { return e.spawned }

// Particle returns slot i. Only slots below LiveCount hold live particles.
func (e *Emitter) Particle(i int) *Particle { return &e.particles[i] }

// Live returns the live particles. The slice aliases the pool and is only
// valid until the next Update, Spawn or Reset.
func (e *Emitter) Live() []Particle { return e.particles[:e.live] }

// Spawn samples a new particle into slot LiveCount. It reports false, and
// writes nothing, when the pool is full.
func (e *Emitter) Spawn() bool {
	if e.live >= len(e.particles) {
		return false
	}
	c := &e.cfg
	src := e.src

	endColor := Jitter4(src, c.EndColor, &c.EndColorVariance)
	startColor := Jitter4(src, c.StartColor, &c.StartColorVariance)
	startSize := max(0, Jitter(src, c.StartSize, c.StartSizeVariance))
	finishSize := max(0, Jitter(src, c.FinishSize, c.FinishSizeVariance))
	lifespan := max(0, Jitter(src, c.Lifespan, c.LifespanVariance))
	angle := float64(mgl32.DegToRad(Jitter(src, c.Angle, c.AngleVariance)))
	speed := Jitter(src, c.Speed, c.SpeedVariance)
	dir := mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
	radial := Jitter(src, c.RadialAccel, c.RadialAccelVariance)
	tangential := Jitter(src, c.TangentialAccel, c.TangentialAccelVariance)
	rotStart := Jitter(src, c.RotationStart, c.RotationStartVariance)
	rotEnd := Jitter(src, c.RotationEnd, c.RotationEndVariance)
	offset := mgl32.Vec2{
		Jitter(src, 0, c.SourcePositionVariance.X()),
		Jitter(src, 0, c.SourcePositionVariance.Y()),
	}

	p := &e.particles[e.live]
	*p = Particle{
		RemainingLife:   lifespan,
		Position:        mgl32.Vec3{offset.X(), offset.Y(), 0},
		Velocity:        dir.Mul(speed),
		Color:           startColor,
		Size:            startSize,
		Rotation:        rotStart,
		RadialAccel:     radial,
		TangentialAccel: tangential,
	}
	// A zero lifespan particle keeps zero deltas and is retired by the next Update.
	if lifespan > 0 {
		inv := 1 / lifespan
		p.DeltaColor = endColor.Sub(startColor).Mul(inv)
		p.DeltaSize = (finishSize - startSize) * inv
		p.DeltaRotation = (rotEnd - rotStart) * inv
	}
	e.live++
	e.spawned++
	return true
}

// Update advances the emitter by delta milliseconds: emission, aging, retirement.
// The emission clock only runs while the emitter has a spawn period.
func (e *Emitter) Update(delta float64) {
	if e.period > 0 {
		e.emitCounter += delta
		for e.live < len(e.particles) && e.emitCounter > e.period {
			e.Spawn()
			e.emitCounter -= e.period
		}
		e.elapsed += delta
	}

	dt := float32(delta)
	for i := 0; i < e.live; i++ {
		e.particles[i].age(dt, e.cfg.Gravity)
	}
	e.retire()
}

// Reset kills every tracked particle and rewinds the emission clock. The pool
// itself is kept.
func (e *Emitter) Reset() {
	e.elapsed = 0
	e.emitCounter = 0
	for i := 0; i < e.live; i++ {
		e.particles[i].RemainingLife = 0
	}
	e.retire()
}

func (e *Emitter) retire() {
	i := 0
	for i < e.live {
		if e.particles[i].Alive() {
			i++
			continue
		}
		e.killAt(i)
	}
}

// Swap-remove one particle
func (e *Emitter) killAt(i int) {
	last := e.live - 1
	e.particles[i] = e.particles[last]
	e.live--
}
