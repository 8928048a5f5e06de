package particlefx

import (
	"fmt"
	"path"
	"strconv"

	"github.com/gekko3d/particlefx/particles/core"
	"github.com/go-gl/mathgl/mgl32"
)

// EffectSpec says where an effect definition comes from and where it is shown.
// Definition wins over Path.
type EffectSpec struct {
	Name       string         `yaml:"name" json:"name"`
	Path       string         `yaml:"path,omitempty" json:"path,omitempty"`
	Definition map[string]any `yaml:"definition,omitempty" json:"definition,omitempty"`
	Origin     [2]float32     `yaml:"origin,flow" json:"origin"`
	Seed       int64          `yaml:"seed,omitempty" json:"seed,omitempty"`
	Paused     bool           `yaml:"paused,omitempty" json:"paused,omitempty"`
}

// Effect is a running particle system.
type Effect struct {
	Name   string
	Origin mgl32.Vec2
	Paused bool
	System *core.System
	// Spec is what the effect was built from.
	Spec EffectSpec
}

// MoveTo places the effect. Live particles move with it.
func (e *Effect) MoveTo(x, y float32) {
	e.Origin = mgl32.Vec2{x, y}
	if placed, ok := e.System.Batch().(interface{ SetOrigin(x, y float32) }); ok {
		placed.SetOrigin(x, y)
	}
}

// Particles owns every running effect. Specs added with Spawn are built at
// the next PreUpdate.
type Particles struct {
	// Batches receives quad batch requests. A CPU allocator is used when nil.
	Batches core.BatchAllocator

	scenes  []string
	pending []EffectSpec
	effects []*Effect
	byName  map[string]*Effect
	failed  map[string]error
	serial  int
	// closed is the scene as it was when Close ran.
	closed *SceneDef
}

func newParticles() *Particles {
	return &Particles{
		byName: make(map[string]*Effect),
		failed: make(map[string]error),
	}
}

func (fx *Particles) Spawn(specs ...EffectSpec) {
	fx.pending = append(fx.pending, specs...)
}

// SpawnScene queues every effect of a scene file in the asset root.
func (fx *Particles) SpawnScene(name string) {
	fx.scenes = append(fx.scenes, name)
}

func (fx *Particles) Effect(name string) (*Effect, bool) {
	e, ok := fx.byName[name]
	return e, ok
}

// Effects lists running effects in spawn order.
func (fx *Particles) Effects() []*Effect { return fx.effects }

// Snapshot describes the running effects as a scene, with their current
// origin and pause state.
func (fx *Particles) Snapshot() *SceneDef {
	scene := &SceneDef{Effects: make([]EffectSpec, 0, len(fx.effects))}
	for _, e := range fx.effects {
		spec := e.Spec
		spec.Name = e.Name
		spec.Origin = [2]float32{e.Origin.X(), e.Origin.Y()}
		spec.Paused = e.Paused
		scene.Effects = append(scene.Effects, spec)
	}
	return scene
}

// Failed maps effect or scene names to the error that kept them from spawning.
func (fx *Particles) Failed() map[string]error { return fx.failed }

// Remove stops an effect and releases its batch.
func (fx *Particles) Remove(name string) bool {
	e, ok := fx.byName[name]
	if !ok {
		return false
	}
	e.System.Close()
	delete(fx.byName, name)
	for i, other := range fx.effects {
		if other == e {
			fx.effects = append(fx.effects[:i], fx.effects[i+1:]...)
			break
		}
	}
	return true
}

// Close removes every effect.
func (fx *Particles) Close() {
	if len(fx.effects) > 0 {
		fx.closed = fx.Snapshot()
	}
	for _, e := range fx.effects {
		e.System.Close()
	}
	fx.effects = nil
	clear(fx.byName)
}

func (fx *Particles) build(spec EffectSpec, assets *AssetServer) (*Effect, error) {
	var (
		cfg core.EffectConfig
		err error
	)
	switch {
	case spec.Definition != nil:
		cfg, err = core.Parse(spec.Definition)
	case spec.Path != "" && assets.Root() == nil:
		err = fmt.Errorf("effect %s: no asset root to read %s from", spec.Name, spec.Path)
	case spec.Path != "":
		cfg, err = core.ParseFile(assets.Root(), spec.Path)
		// texture names are relative to the definition file
		if err == nil && len(cfg.Texture.Data) == 0 && !path.IsAbs(cfg.Texture.Name) {
			cfg.Texture.Name = path.Join(path.Dir(spec.Path), cfg.Texture.Name)
		}
	default:
		err = fmt.Errorf("effect %s has neither a path nor a definition", spec.Name)
	}
	if err != nil {
		return nil, err
	}

	var src core.Source
	if spec.Seed != 0 {
		src = core.NewSource(spec.Seed)
	}
	sys, err := core.NewSystem(cfg, core.SystemOptions{
		Loader:  assets,
		Batches: fx.Batches,
		Source:  src,
	})
	if err != nil {
		return nil, err
	}

	effect := &Effect{
		Name:   spec.Name,
		Paused: spec.Paused,
		System: sys,
		Spec:   spec,
	}
	effect.MoveTo(spec.Origin[0], spec.Origin[1])
	return effect, nil
}

func (fx *Particles) nextName(spec EffectSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	if spec.Path != "" {
		return spec.Path
	}
	fx.serial++
	return "effect-" + strconv.Itoa(fx.serial)
}

// ParticleModule installs the Particles resource and the systems that build
// and tick effects. Scene names a scene file in the asset root.
type ParticleModule struct {
	Effects []EffectSpec
	Scene   string
}

func (mod ParticleModule) Install(app *App, cmd *Commands) {
	fx := newParticles()
	fx.Spawn(mod.Effects...)
	if mod.Scene != "" {
		fx.SpawnScene(mod.Scene)
	}
	cmd.AddResources(fx)

	app.UseSystem(
		System(particleSpawnSystem).
			InStage(PreUpdate),
	)
	app.UseSystem(
		System(particleUpdateSystem).
			InStage(Update),
	)
}

func particleSpawnSystem(fx *Particles, assets *AssetServer, cmd *Commands) {
	if len(fx.scenes) == 0 && len(fx.pending) == 0 {
		return
	}
	log := cmd.Logger()

	for _, name := range fx.scenes {
		scene, err := LoadScene(assets.Root(), name)
		if err != nil {
			log.Errorf("Scene %s: %v", name, err)
			fx.failed[name] = err
			continue
		}
		fx.pending = append(fx.pending, scene.Effects...)
	}
	fx.scenes = fx.scenes[:0]

	if fx.Batches == nil {
		fx.Batches = &core.CPUBatches{}
	}

	for _, spec := range fx.pending {
		spec.Name = fx.nextName(spec)
		if _, exists := fx.byName[spec.Name]; exists {
			err := fmt.Errorf("effect %s already exists", spec.Name)
			log.Errorf("%v", err)
			fx.failed[spec.Name] = err
			continue
		}

		effect, err := fx.build(spec, assets)
		if err != nil {
			log.Errorf("Effect %s: %v", spec.Name, err)
			fx.failed[spec.Name] = err
			continue
		}
		delete(fx.failed, spec.Name)
		fx.effects = append(fx.effects, effect)
		fx.byName[effect.Name] = effect

		cfg := effect.System.Config()
		log.Infof("Spawned effect %s: %d particles, texture %s (%dpx)",
			effect.Name, cfg.MaxParticles, cfg.Texture, effect.System.TexOriginalSize)
	}
	fx.pending = fx.pending[:0]
}

func particleUpdateSystem(fx *Particles, t *Time) {
	for _, e := range fx.effects {
		if e.Paused {
			continue
		}
		e.System.Frame(t.Dt)
	}
}
