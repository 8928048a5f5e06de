package core

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Definition keys.
const (
	KeyMaxParticles            = "maxParticles"
	KeyLifespan                = "particleLifespan"
	KeyLifespanVariance        = "lifeSpanVariance"
	KeyStartSize               = "startSize"
	KeyStartSizeVariance       = "startSizeVariance"
	KeyFinishSize              = "finishSize"
	KeyFinishSizeVariance      = "finishSizeVariance"
	KeyAngle                   = "angle"
	KeyAngleVariance           = "angleVariance"
	KeyTextureFileName         = "textureFileName"
	KeyTextureImageData        = "textureImageData"
	KeySpeed                   = "speed"
	KeySpeedVariance           = "speedVariance"
	KeyRadialAccel             = "radialAcceleration"
	KeyRadialAccelVariance     = "radialAccelVariance"
	KeyTangentialAccel         = "tangentialAcceleration"
	KeyTangentialAccelVariance = "tangAccelVariance"

	KeyRotationStart         = "rotationStart"
	KeyRotationStartVariance = "rotationStartVariance"
	KeyRotationEnd           = "rotationEnd"
	KeyRotationEndVariance   = "rotationEndVariance"
	KeyGravityX              = "gravityx"
	KeyGravityY              = "gravityy"
	KeySourceVarianceX       = "sourcePositionVariancex"
	KeySourceVarianceY       = "sourcePositionVariancey"
	KeyEmitterType           = "emitterType"
)

// MaxCapacity keeps capacity*4 vertices addressable by a uint32 index buffer
// and bounds the preallocated pool.
const MaxCapacity = 1 << 20

// TextureSource names a texture file, or carries encoded image bytes inline.
// Data wins when both are set; Name then only labels the asset.
type TextureSource struct {
	Name string
	Data []byte
}

func (s TextureSource) String() string {
	if len(s.Data) > 0 {
		if s.Name != "" {
			return fmt.Sprintf("inline(%s, %d bytes)", s.Name, len(s.Data))
		}
		return fmt.Sprintf("inline(%d bytes)", len(s.Data))
	}
	return s.Name
}

// EffectConfig is the validated form of an effect definition.
// Times are in milliseconds, angles in degrees.
type EffectConfig struct {
	MaxParticles int

	Lifespan         float32
	LifespanVariance float32

	StartSize          float32
	StartSizeVariance  float32
	FinishSize         float32
	FinishSizeVariance float32

	StartColor         mgl32.Vec4
	StartColorVariance mgl32.Vec4
	EndColor           mgl32.Vec4
	EndColorVariance   mgl32.Vec4

	Angle         float32
	AngleVariance float32

	Speed         float32
	SpeedVariance float32

	RadialAccel             float32
	RadialAccelVariance     float32
	TangentialAccel         float32
	TangentialAccelVariance float32

	RotationStart         float32
	RotationStartVariance float32
	RotationEnd           float32
	RotationEndVariance   float32

	Gravity                mgl32.Vec2
	SourcePositionVariance mgl32.Vec2

	Texture TextureSource
}

// EmissionRate is capacity over mean lifespan, in particles per millisecond.
// Zero means the emitter never spawns on its own.
func (c EffectConfig) EmissionRate() float64 {
	if c.Lifespan <= 0 {
		return 0
	}
	return float64(c.MaxParticles) / float64(c.Lifespan)
}

// EmissionPeriod is the time between two spawns, in milliseconds. Zero when inactive.
func (c EffectConfig) EmissionPeriod() float64 {
	if c.Lifespan <= 0 || c.MaxParticles <= 0 {
		return 0
	}
	return float64(c.Lifespan) / float64(c.MaxParticles)
}

// ParseFile reads and parses a definition (JSON or YAML) from fsys.
func ParseFile(fsys fs.FS, name string) (EffectConfig, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return EffectConfig{}, fmt.Errorf("failed to read effect definition %s: %w", name, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return EffectConfig{}, fmt.Errorf("failed to parse effect definition %s: %w", name, err)
	}
	return cfg, nil
}

// Parse validates an effect definition. raw is a decoded key/value map, or
// its text form as string or []byte.
func Parse(raw any) (EffectConfig, error) {
	var props map[string]any
	switch v := raw.(type) {
	case map[string]any:
		props = v
	case string:
		m, err := decodeText([]byte(v))
		if err != nil {
			return EffectConfig{}, err
		}
		props = m
	case []byte:
		m, err := decodeText(v)
		if err != nil {
			return EffectConfig{}, err
		}
		props = m
	default:
		return EffectConfig{}, malformed(fmt.Errorf("unsupported input type %T", raw))
	}
	return fromProperties(props)
}

func decodeText(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformed(fmt.Errorf("empty input"))
	}
	var props map[string]any
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&props); err != nil {
			return nil, malformed(err)
		}
		return props, nil
	}
	if err := yaml.Unmarshal(trimmed, &props); err != nil {
		return nil, malformed(err)
	}
	if props == nil {
		return nil, malformed(fmt.Errorf("definition is not a key/value map"))
	}
	return props, nil
}

type propReader struct {
	props map[string]any
	err   error
}

func (r *propReader) number(key string, required bool) float64 {
	if r.err != nil {
		return 0
	}
	v, ok := r.props[key]
	if !ok || v == nil {
		if required {
			r.err = missing(key)
		}
		return 0
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			r.err = invalid(key, "not a number: %v", err)
			return 0
		}
		f = parsed
	default:
		r.err = invalid(key, "expected a number, got %T", v)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.err = invalid(key, "must be finite")
		return 0
	}
	return f
}

func (r *propReader) float(key string) float32 {
	return float32(r.number(key, true))
}

func (r *propReader) optional(key string) float32 {
	return float32(r.number(key, false))
}

func (r *propReader) vec4(prefix string) mgl32.Vec4 {
	return mgl32.Vec4{
		r.float(prefix + "Red"),
		r.float(prefix + "Green"),
		r.float(prefix + "Blue"),
		r.float(prefix + "Alpha"),
	}
}

func (r *propReader) str(key string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.props[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.err = invalid(key, "expected a string, got %T", v)
		return ""
	}
	return s
}

func fromProperties(props map[string]any) (EffectConfig, error) {
	r := &propReader{props: props}
	var cfg EffectConfig

	maxParticles := r.number(KeyMaxParticles, true)
	cfg.Lifespan = r.float(KeyLifespan) * 1000
	cfg.LifespanVariance = r.float(KeyLifespanVariance) * 1000
	cfg.StartSize = r.float(KeyStartSize)
	cfg.StartSizeVariance = r.float(KeyStartSizeVariance)
	cfg.FinishSize = r.float(KeyFinishSize)
	cfg.FinishSizeVariance = r.float(KeyFinishSizeVariance)
	cfg.StartColor = r.vec4("startColor")
	cfg.StartColorVariance = r.vec4("startColorVariance")
	cfg.EndColor = r.vec4("endColor")
	cfg.EndColorVariance = r.vec4("endColorVariance")
	cfg.Angle = r.float(KeyAngle)
	cfg.AngleVariance = r.float(KeyAngleVariance)
	cfg.Speed = r.float(KeySpeed)
	cfg.SpeedVariance = r.float(KeySpeedVariance)
	cfg.RadialAccel = r.float(KeyRadialAccel)
	cfg.RadialAccelVariance = r.float(KeyRadialAccelVariance)
	cfg.TangentialAccel = r.float(KeyTangentialAccel)
	cfg.TangentialAccelVariance = r.float(KeyTangentialAccelVariance)

	cfg.RotationStart = r.optional(KeyRotationStart)
	cfg.RotationStartVariance = r.optional(KeyRotationStartVariance)
	cfg.RotationEnd = r.optional(KeyRotationEnd)
	cfg.RotationEndVariance = r.optional(KeyRotationEndVariance)
	cfg.Gravity = mgl32.Vec2{r.optional(KeyGravityX), r.optional(KeyGravityY)}
	cfg.SourcePositionVariance = mgl32.Vec2{r.optional(KeySourceVarianceX), r.optional(KeySourceVarianceY)}
	emitterType := r.number(KeyEmitterType, false)

	cfg.Texture.Name = r.str(KeyTextureFileName)
	imageData := r.str(KeyTextureImageData)
	if r.err != nil {
		return EffectConfig{}, r.err
	}

	if maxParticles != math.Trunc(maxParticles) || maxParticles < 1 || maxParticles > MaxCapacity {
		return EffectConfig{}, invalid(KeyMaxParticles, "must be an integer in [1, %d], got %v", MaxCapacity, maxParticles)
	}
	cfg.MaxParticles = int(maxParticles)
	if cfg.Lifespan < 0 {
		return EffectConfig{}, invalid(KeyLifespan, "must not be negative")
	}
	if emitterType != 0 {
		return EffectConfig{}, invalid(KeyEmitterType, "only gravity emitters (0) are supported, got %v", emitterType)
	}

	if imageData != "" {
		data, err := decodeImageData(imageData)
		if err != nil {
			return EffectConfig{}, &ConfigError{Kind: InvalidValue, Field: KeyTextureImageData, Err: err}
		}
		cfg.Texture.Data = data
	}
	if cfg.Texture.Name == "" && len(cfg.Texture.Data) == 0 {
		return EffectConfig{}, missing(KeyTextureFileName)
	}
	return cfg, nil
}

// decodeImageData undoes the base64 encoding, and the gzip layer particle
// designers wrap around the PNG when present.
func decodeImageData(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return inflated, nil
}
