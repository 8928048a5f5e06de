package particlefx

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScene_YAML(t *testing.T) {
	fsys := fstest.MapFS{
		"scenes/night.yml": {Data: []byte(`
effects:
  - name: fire
    path: fire.json
    origin: [1.5, 2]
    seed: 3
  - name: abs
    path: /fx/smoke.json
  - name: inline
    definition:
      maxParticles: 5
`)},
	}

	scene, err := LoadScene(fsys, "scenes/night.yml")
	require.NoError(t, err)
	require.Len(t, scene.Effects, 3)

	assert.Equal(t, "scenes/fire.json", scene.Effects[0].Path)
	assert.Equal(t, [2]float32{1.5, 2}, scene.Effects[0].Origin)
	assert.Equal(t, int64(3), scene.Effects[0].Seed)
	assert.Equal(t, "/fx/smoke.json", scene.Effects[1].Path)
	assert.Equal(t, 5, scene.Effects[2].Definition["maxParticles"])
}

func TestLoadScene_JSON(t *testing.T) {
	fsys := fstest.MapFS{
		"demo.JSON": {Data: []byte(`{"effects":[{"name":"a","path":"fx/a.json","origin":[4,5],"paused":true}]}`)},
	}

	scene, err := LoadScene(fsys, "demo.JSON")
	require.NoError(t, err)
	require.Len(t, scene.Effects, 1)
	assert.Equal(t, "fx/a.json", scene.Effects[0].Path)
	assert.Equal(t, [2]float32{4, 5}, scene.Effects[0].Origin)
	assert.True(t, scene.Effects[0].Paused)
}

func TestLoadScene_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.yaml": {Data: []byte("effects: [")},
		"bad.json": {Data: []byte("{")},
	}

	_, err := LoadScene(fsys, "missing.yaml")
	assert.ErrorContains(t, err, "failed to read scene missing.yaml")
	_, err = LoadScene(fsys, "bad.yaml")
	assert.ErrorContains(t, err, "failed to parse scene bad.yaml")
	_, err = LoadScene(fsys, "bad.json")
	assert.ErrorContains(t, err, "failed to parse scene bad.json")
}

func TestSceneDef_WriteYAMLLoadsBack(t *testing.T) {
	scene := &SceneDef{Effects: []EffectSpec{
		{Name: "fire", Path: "fx/fire.json", Origin: [2]float32{640, 360}},
		{Name: "smoke", Path: "fx/smoke.json", Paused: true, Seed: 9},
	}}

	var buf bytes.Buffer
	require.NoError(t, scene.WriteYAML(&buf))
	assert.Contains(t, buf.String(), "origin: [640, 360]")

	loaded, err := LoadScene(fstest.MapFS{"scene.yaml": {Data: buf.Bytes()}}, "scene.yaml")
	require.NoError(t, err)
	assert.Equal(t, scene, loaded)
}
