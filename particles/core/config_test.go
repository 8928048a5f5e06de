package core

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProps() map[string]any {
	props := map[string]any{
		KeyMaxParticles:            10,
		KeyLifespan:                1.0,
		KeyLifespanVariance:        0.0,
		KeyStartSize:               32.0,
		KeyStartSizeVariance:       0.0,
		KeyFinishSize:              8.0,
		KeyFinishSizeVariance:      0.0,
		KeyAngle:                   90.0,
		KeyAngleVariance:           0.0,
		KeySpeed:                   0.0,
		KeySpeedVariance:           0.0,
		KeyRadialAccel:             0.0,
		KeyRadialAccelVariance:     0.0,
		KeyTangentialAccel:         0.0,
		KeyTangentialAccelVariance: 0.0,
		KeyTextureFileName:         "spark.png",
	}
	colors := map[string][4]float64{
		"startColor":         {1, 0.5, 0.25, 1},
		"startColorVariance": {0, 0, 0, 0},
		"endColor":           {0, 0.5, 1, 0},
		"endColorVariance":   {0, 0, 0, 0},
	}
	for prefix, c := range colors {
		props[prefix+"Red"] = c[0]
		props[prefix+"Green"] = c[1]
		props[prefix+"Blue"] = c[2]
		props[prefix+"Alpha"] = c[3]
	}
	return props
}

func toYAML(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		switch v := props[k].(type) {
		case string:
			fmt.Fprintf(&sb, "%s: %q\n", k, v)
		default:
			fmt.Fprintf(&sb, "%s: %v\n", k, v)
		}
	}
	return sb.String()
}

func TestParse_Map(t *testing.T) {
	cfg, err := Parse(validProps())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxParticles)
	assert.Equal(t, float32(1000), cfg.Lifespan)
	assert.Equal(t, float32(32), cfg.StartSize)
	assert.Equal(t, float32(8), cfg.FinishSize)
	assert.Equal(t, float32(90), cfg.Angle)
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, cfg.StartColor)
	assert.Equal(t, mgl32.Vec4{0, 0.5, 1, 0}, cfg.EndColor)
	assert.Equal(t, "spark.png", cfg.Texture.Name)
	assert.Empty(t, cfg.Texture.Data)
}

func TestParse_LifespanSecondsToMilliseconds(t *testing.T) {
	props := validProps()
	props[KeyLifespan] = 2.5
	props[KeyLifespanVariance] = 0.25

	cfg, err := Parse(props)
	require.NoError(t, err)

	assert.Equal(t, float32(2500), cfg.Lifespan)
	assert.Equal(t, float32(250), cfg.LifespanVariance)
}

func TestParse_JSONAndYAMLText(t *testing.T) {
	want, err := Parse(validProps())
	require.NoError(t, err)

	raw, err := json.Marshal(validProps())
	require.NoError(t, err)

	fromJSON, err := Parse(string(raw))
	require.NoError(t, err)
	assert.Equal(t, want, fromJSON)

	fromBytes, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, want, fromBytes)

	fromYAML, err := Parse(toYAML(validProps()))
	require.NoError(t, err)
	assert.Equal(t, want, fromYAML)
}

func TestParse_MalformedInput(t *testing.T) {
	inputs := []any{
		"{not json",
		"",
		"- just\n- a list\n",
		42,
	}
	for _, in := range inputs {
		_, err := Parse(in)
		require.Error(t, err, "input %v", in)
		assert.True(t, errors.Is(err, ErrMalformedInput), "input %v: %v", in, err)

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, MalformedInput, cfgErr.Kind)
	}
}

func TestParse_MissingField(t *testing.T) {
	for _, key := range []string{KeyMaxParticles, KeyLifespan, "endColorVarianceAlpha", KeyTangentialAccelVariance} {
		props := validProps()
		delete(props, key)

		_, err := Parse(props)
		require.Error(t, err, key)
		assert.ErrorIs(t, err, ErrMissingField)

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, key, cfgErr.Field)
		assert.Contains(t, err.Error(), key)
	}
}

func TestParse_MissingTexture(t *testing.T) {
	props := validProps()
	delete(props, KeyTextureFileName)

	_, err := Parse(props)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParse_InvalidValues(t *testing.T) {
	cases := map[string]any{
		KeyMaxParticles: 0,
		KeyLifespan:     -1.0,
		KeyStartSize:    "big",
		KeyEmitterType:  1,
	}
	for key, value := range cases {
		props := validProps()
		props[key] = value

		_, err := Parse(props)
		assert.ErrorIs(t, err, ErrInvalidValue, key)
	}

	props := validProps()
	props[KeyMaxParticles] = 2.5
	_, err := Parse(props)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParse_OptionalFields(t *testing.T) {
	props := validProps()
	props[KeyRotationStart] = 10.0
	props[KeyRotationEnd] = 370.0
	props[KeyGravityX] = 0.0
	props[KeyGravityY] = -98.0
	props[KeySourceVarianceX] = 4.0

	cfg, err := Parse(props)
	require.NoError(t, err)

	assert.Equal(t, float32(10), cfg.RotationStart)
	assert.Equal(t, float32(370), cfg.RotationEnd)
	assert.Equal(t, mgl32.Vec2{0, -98}, cfg.Gravity)
	assert.Equal(t, mgl32.Vec2{4, 0}, cfg.SourcePositionVariance)
}

func TestParse_InlineTexture(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	props := validProps()
	props[KeyTextureImageData] = base64.StdEncoding.EncodeToString(png)
	cfg, err := Parse(props)
	require.NoError(t, err)
	assert.Equal(t, png, cfg.Texture.Data)
	assert.Equal(t, "spark.png", cfg.Texture.Name)

	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err = zw.Write(png)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	props = validProps()
	delete(props, KeyTextureFileName)
	props[KeyTextureImageData] = base64.StdEncoding.EncodeToString(zipped.Bytes())
	cfg, err = Parse(props)
	require.NoError(t, err)
	assert.Equal(t, png, cfg.Texture.Data)

	props[KeyTextureImageData] = "%%%not base64"
	_, err = Parse(props)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEffectConfig_EmissionRate(t *testing.T) {
	cfg, err := Parse(validProps())
	require.NoError(t, err)

	assert.InDelta(t, 0.01, cfg.EmissionRate(), 1e-12)
	assert.Equal(t, 100.0, cfg.EmissionPeriod())

	props := validProps()
	props[KeyLifespan] = 0.0
	cfg, err = Parse(props)
	require.NoError(t, err)
	assert.Zero(t, cfg.EmissionRate())
	assert.Zero(t, cfg.EmissionPeriod())
}

func TestParseFile(t *testing.T) {
	raw, err := json.Marshal(validProps())
	require.NoError(t, err)
	fsys := fstest.MapFS{
		"effects/spark.json":  {Data: raw},
		"effects/spark.yaml":  {Data: []byte(toYAML(validProps()))},
		"effects/broken.json": {Data: []byte("{")},
	}

	a, err := ParseFile(fsys, "effects/spark.json")
	require.NoError(t, err)
	b, err := ParseFile(fsys, "effects/spark.yaml")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = ParseFile(fsys, "effects/missing.json")
	assert.Error(t, err)

	_, err = ParseFile(fsys, "effects/broken.json")
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "effects/broken.json")
}
