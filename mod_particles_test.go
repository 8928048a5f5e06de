package particlefx

import (
	"encoding/json"
	"image/color"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gekko3d/particlefx/particles/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// effectDefinition emits one particle every 100ms for 1s lifespans.
func effectDefinition(overrides map[string]any) map[string]any {
	def := map[string]any{
		core.KeyMaxParticles:            10,
		core.KeyLifespan:                1.0,
		core.KeyLifespanVariance:        0.0,
		core.KeyStartSize:               16.0,
		core.KeyStartSizeVariance:       0.0,
		core.KeyFinishSize:              4.0,
		core.KeyFinishSizeVariance:      0.0,
		core.KeyAngle:                   90.0,
		core.KeyAngleVariance:           0.0,
		core.KeySpeed:                   40.0,
		core.KeySpeedVariance:           0.0,
		core.KeyRadialAccel:             0.0,
		core.KeyRadialAccelVariance:     0.0,
		core.KeyTangentialAccel:         0.0,
		core.KeyTangentialAccelVariance: 0.0,
		core.KeyTextureFileName:         "spark.png",
	}
	for prefix, c := range map[string][4]float64{
		"startColor":         {1, 1, 1, 1},
		"startColorVariance": {0, 0, 0, 0},
		"endColor":           {1, 0, 0, 0},
		"endColorVariance":   {0, 0, 0, 0},
	} {
		def[prefix+"Red"] = c[0]
		def[prefix+"Green"] = c[1]
		def[prefix+"Blue"] = c[2]
		def[prefix+"Alpha"] = c[3]
	}
	for k, v := range overrides {
		def[k] = v
	}
	return def
}

func quietLogging() LoggingModule {
	return LoggingModule{Out: io.Discard, ErrOut: io.Discard}
}

// newHeadlessApp steps 250ms per frame.
func newHeadlessApp(t *testing.T, fsys fstest.MapFS, frames int, mods ...Module) *App {
	t.Helper()
	app := NewApp().UseModules(
		quietLogging(),
		TimeModule{FixedDt: 250 * time.Millisecond},
		AssetServerModule{Root: fsys},
	)
	app.UseModules(mods...)
	return app.UseHeadless(frames)
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"spark.png":    {Data: pngBytes(t, 4, 4, color.White)},
		"fx/spark.png": {Data: pngBytes(t, 8, 8, color.White)},
	}
}

func particlesOf(t *testing.T, app *App) *Particles {
	t.Helper()
	fx, ok := Resource[Particles](app)
	require.True(t, ok)
	return fx
}

func TestParticleModule_SpawnsFromDefinition(t *testing.T) {
	app := newHeadlessApp(t, testFS(t), 0, ParticleModule{
		Effects: []EffectSpec{{Name: "sparks", Definition: effectDefinition(nil), Origin: [2]float32{100, 50}}},
	})

	app.Step()

	fx := particlesOf(t, app)
	require.Empty(t, fx.Failed())
	e, ok := fx.Effect("sparks")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec2{100, 50}, e.Origin)
	assert.Equal(t, 4, e.System.TexOriginalSize)
	// 250ms at one particle per 100ms
	assert.Equal(t, 2, e.System.LiveCount())

	headless, ok := Resource[Headless](app)
	require.True(t, ok)
	require.Len(t, headless.Batches.Batches, 1)
	batch := headless.Batches.Batches[0]
	assert.Equal(t, 2, batch.Drawn())
	assert.Equal(t, 10, batch.Capacity())

	app.Step()
	assert.Equal(t, 4, e.System.LiveCount())
	assert.Equal(t, 500*time.Millisecond, e.System.Elapsed())
}

func TestParticleModule_DefinitionFileTextureIsRelative(t *testing.T) {
	fsys := testFS(t)
	raw, err := json.Marshal(effectDefinition(nil))
	require.NoError(t, err)
	fsys["fx/fire.json"] = &fstest.MapFile{Data: raw}

	app := newHeadlessApp(t, fsys, 0, ParticleModule{
		Effects: []EffectSpec{{Path: "fx/fire.json"}},
	})
	app.Step()

	fx := particlesOf(t, app)
	require.Empty(t, fx.Failed())
	e, ok := fx.Effect("fx/fire.json")
	require.True(t, ok)
	assert.Equal(t, "fx/spark.png", e.System.Config().Texture.Name)
	assert.Equal(t, 8, e.System.TexOriginalSize)
}

func TestParticleModule_Scene(t *testing.T) {
	fsys := testFS(t)
	raw, err := json.Marshal(effectDefinition(nil))
	require.NoError(t, err)
	fsys["fx/fire.json"] = &fstest.MapFile{Data: raw}
	fsys["scenes/demo.yaml"] = &fstest.MapFile{Data: []byte(`
effects:
  - name: left
    path: ../fx/fire.json
    origin: [10, 20]
  - name: right
    path: ../fx/fire.json
    origin: [300, 20]
    paused: true
`)}

	app := newHeadlessApp(t, fsys, 0, ParticleModule{Scene: "scenes/demo.yaml"})
	app.Step()

	fx := particlesOf(t, app)
	require.Empty(t, fx.Failed())
	require.Len(t, fx.Effects(), 2)

	left, _ := fx.Effect("left")
	right, _ := fx.Effect("right")
	assert.Equal(t, mgl32.Vec2{10, 20}, left.Origin)
	assert.Equal(t, 2, left.System.LiveCount())
	assert.True(t, right.Paused)
	assert.Equal(t, 0, right.System.LiveCount())
}

func TestParticleModule_RecordsFailures(t *testing.T) {
	fsys := testFS(t)
	fsys["broken.json"] = &fstest.MapFile{Data: []byte("{")}

	app := newHeadlessApp(t, fsys, 0, ParticleModule{
		Effects: []EffectSpec{
			{Name: "ok", Definition: effectDefinition(nil)},
			{Name: "ok", Definition: effectDefinition(nil)},
			{Name: "no-texture", Definition: effectDefinition(map[string]any{core.KeyTextureFileName: "missing.png"})},
			{Name: "bad-config", Definition: effectDefinition(map[string]any{core.KeyMaxParticles: 0})},
			{Name: "broken", Path: "broken.json"},
			{Name: "empty"},
		},
		Scene: "nope.yaml",
	})
	app.Step()

	fx := particlesOf(t, app)
	assert.Len(t, fx.Effects(), 1)

	failed := fx.Failed()
	assert.Len(t, failed, 6)
	assert.ErrorContains(t, failed["ok"], "already exists")
	assert.ErrorIs(t, failed["no-texture"], ErrAssetNotFound)
	assert.ErrorIs(t, failed["bad-config"], core.ErrInvalidValue)
	assert.ErrorIs(t, failed["broken"], core.ErrMalformedInput)
	assert.ErrorContains(t, failed["empty"], "neither a path nor a definition")
	assert.Contains(t, failed, "nope.yaml")
}

func TestParticles_SpawnAtRuntimeAndRemove(t *testing.T) {
	app := newHeadlessApp(t, testFS(t), 0, ParticleModule{})
	fx := particlesOf(t, app)

	fx.Spawn(EffectSpec{Definition: effectDefinition(nil)})
	app.Step()

	require.Len(t, fx.Effects(), 1)
	e := fx.Effects()[0]
	assert.Equal(t, "effect-1", e.Name)

	batch := e.System.Batch().(*core.CPUBatch)
	assert.True(t, fx.Remove("effect-1"))
	assert.Empty(t, fx.Effects())
	assert.Equal(t, 0, batch.Capacity())
	assert.False(t, fx.Remove("effect-1"))

	// the name is free again
	fx.Spawn(EffectSpec{Name: "effect-1", Definition: effectDefinition(nil)})
	app.Step()
	_, ok := fx.Effect("effect-1")
	assert.True(t, ok)
}

func TestParticles_PausedEffectHoldsStill(t *testing.T) {
	app := newHeadlessApp(t, testFS(t), 0, ParticleModule{
		Effects: []EffectSpec{{Name: "sparks", Definition: effectDefinition(nil)}},
	})
	app.Step()

	fx := particlesOf(t, app)
	e, _ := fx.Effect("sparks")
	e.Paused = true
	app.Step()
	app.Step()
	assert.Equal(t, 250*time.Millisecond, e.System.Elapsed())

	e.Paused = false
	app.Step()
	assert.Equal(t, 500*time.Millisecond, e.System.Elapsed())
}

func TestParticles_Snapshot(t *testing.T) {
	def := effectDefinition(nil)
	app := newHeadlessApp(t, testFS(t), 0, ParticleModule{
		Effects: []EffectSpec{{Name: "sparks", Definition: def, Seed: 7}},
	})
	app.Step()

	fx := particlesOf(t, app)
	e, _ := fx.Effect("sparks")
	e.Origin = mgl32.Vec2{5, 6}
	e.Paused = true

	scene := fx.Snapshot()
	require.Len(t, scene.Effects, 1)
	spec := scene.Effects[0]
	assert.Equal(t, "sparks", spec.Name)
	assert.Equal(t, [2]float32{5, 6}, spec.Origin)
	assert.True(t, spec.Paused)
	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, def, spec.Definition)

	fx.Close()
	assert.Empty(t, fx.Effects())
	assert.Empty(t, fx.Snapshot().Effects)
	assert.Equal(t, scene, fx.closed)
}

func TestHeadless_RunStopsAfterFrames(t *testing.T) {
	app := newHeadlessApp(t, testFS(t), 5, ParticleModule{
		Effects: []EffectSpec{{Name: "sparks", Definition: effectDefinition(nil)}},
	})
	app.Run()

	assert.Equal(t, uint64(5), app.Frames())
	fx := particlesOf(t, app)
	e, _ := fx.Effect("sparks")
	assert.Equal(t, 1250*time.Millisecond, e.System.Elapsed())
}

func TestRenderer_OnlyOne(t *testing.T) {
	app := NewApp().UseModules(quietLogging())
	app.UseHeadless(0)

	assert.NotPanics(t, func() { ensureSingleRenderer(app, string(RendererHeadless)) })
	assert.PanicsWithValue(t, "Multiple renderers installed: headless and wgpu", func() {
		ensureSingleRenderer(app, string(RendererWGPU))
	})
}
