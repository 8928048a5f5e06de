package core

import (
	"errors"
	"fmt"
	"time"
)

// SystemOptions wires a System to its collaborators. Source may be nil.
type SystemOptions struct {
	Loader  TextureLoader
	Batches BatchAllocator
	Source  Source
}

// System drives one effect: it ages its emitter, packs live particles into the
// batch and asks the batch to draw them. It is not safe for concurrent use.
type System struct {
	cfg     EffectConfig
	emitter *Emitter
	batch   QuadBatch
	texture TextureHandle

	// TexOriginalSize is the texture width reported by the loader.
	TexOriginalSize int
}

// NewSystem resolves the texture and allocates a batch for cfg.MaxParticles
// quads. A texture that cannot be loaded is fatal.
func NewSystem(cfg EffectConfig, opts SystemOptions) (*System, error) {
	if opts.Loader == nil {
		return nil, errors.New("particle system: no texture loader")
	}
	if opts.Batches == nil {
		return nil, errors.New("particle system: no batch allocator")
	}
	if cfg.MaxParticles <= 0 {
		return nil, invalid(KeyMaxParticles, "must be positive, got %d", cfg.MaxParticles)
	}

	tex, err := opts.Loader.LoadTexture(cfg.Texture)
	if err != nil {
		return nil, fmt.Errorf("particle system: texture %s: %w", cfg.Texture, err)
	}
	batch, err := opts.Batches.AllocQuads(tex, cfg.MaxParticles)
	if err != nil {
		return nil, fmt.Errorf("particle system: allocate %d quads: %w", cfg.MaxParticles, err)
	}
	if len(batch.Vertices()) < QuadFloats(cfg.MaxParticles) {
		batch.Release()
		return nil, fmt.Errorf("particle system: batch holds %d floats, need %d",
			len(batch.Vertices()), QuadFloats(cfg.MaxParticles))
	}
	WriteTexCoords(batch.Vertices(), cfg.MaxParticles)

	s := &System{
		cfg:             cfg,
		emitter:         NewEmitter(cfg, opts.Source),
		batch:           batch,
		texture:         tex,
		TexOriginalSize: opts.Loader.TextureWidth(tex),
	}
	s.Reset()
	return s, nil
}

// Frame runs one tick: update, pack every live particle in slot order, then
// draw LiveCount quads.
func (s *System) Frame(dt time.Duration) {
	s.emitter.Update(float64(dt) / float64(time.Millisecond))

	buf := s.batch.Vertices()
	live := s.emitter.Live()
	for i := range live {
		PackQuad(buf, i, &live[i])
	}
	s.batch.DrawQuads(len(live))
}

// Reset kills all particles; the pool and the batch are kept.
func (s *System) Reset() {
	s.emitter.Reset()
}

// Close releases the batch. The system must not be used afterwards.
func (s *System) Close() {
	if s.batch != nil {
		s.batch.Release()
		s.batch = nil
	}
}

func (s *System) Config() EffectConfig { return s.cfg }
func (s *System) Emitter() *Emitter { return s.emitter }
func (s *System) Batch() QuadBatch { return s.batch }
func (s *System) Texture() TextureHandle { return s.texture }
func (s *System) LiveCount() int { return s.emitter.LiveCount() }

// Elapsed is the time since the last reset.
func (s *System) Elapsed() time.Duration {
	return time.Duration(s.emitter.Elapsed() * float64(time.Millisecond))
}
