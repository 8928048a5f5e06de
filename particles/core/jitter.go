package core

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Source is the entropy every stochastic particle parameter is drawn from.
// *rand.Rand satisfies it; tests inject a seeded one.
type Source interface {
	Float32() float32
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// MinusOnePlusOne draws u uniformly from [-1, 1).
func MinusOnePlusOne(src Source) float32 {
	return src.Float32()*2 - 1
}

// Jitter returns base + variance*u.
func Jitter(src Source, base, variance float32) float32 {
	return base + variance*MinusOnePlusOne(src)
}

// Jitter3 perturbs every component of base independently.
// A nil variance returns base unchanged and draws nothing from src.
func Jitter3(src Source, base mgl32.Vec3, variance *mgl32.Vec3) mgl32.Vec3 {
	if variance == nil {
		return base
	}
	var out mgl32.Vec3
	for i := range out {
		out[i] = base[i] + variance[i]*MinusOnePlusOne(src)
	}
	return out
}

// Jitter4 is Jitter3 for four components (colors).
func Jitter4(src Source, base mgl32.Vec4, variance *mgl32.Vec4) mgl32.Vec4 {
	if variance == nil {
		return base
	}
	var out mgl32.Vec4
	for i := range out {
		out[i] = base[i] + variance[i]*MinusOnePlusOne(src)
	}
	return out
}
