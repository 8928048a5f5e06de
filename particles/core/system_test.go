package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	width  int
	fail   error
	loaded []TextureSource
}

func (l *fakeLoader) LoadTexture(src TextureSource) (TextureHandle, error) {
	if l.fail != nil {
		return "", l.fail
	}
	l.loaded = append(l.loaded, src)
	return TextureHandle("tex:" + src.Name), nil
}

func (l *fakeLoader) TextureWidth(TextureHandle) int { return l.width }

func newTestSystem(t *testing.T, overrides map[string]any) (*System, *CPUBatch, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{width: 64}
	batches := &CPUBatches{}
	sys, err := NewSystem(testConfig(t, overrides), SystemOptions{
		Loader:  loader,
		Batches: batches,
		Source:  NewSource(1),
	})
	require.NoError(t, err)
	require.Len(t, batches.Batches, 1)
	return sys, batches.Batches[0], loader
}

func TestNewSystem_LoadsTextureAndBatch(t *testing.T) {
	sys, batch, loader := newTestSystem(t, nil)

	require.Len(t, loader.loaded, 1)
	assert.Equal(t, "spark.png", loader.loaded[0].Name)
	assert.Equal(t, TextureHandle("tex:spark.png"), sys.Texture())
	assert.Equal(t, sys.Texture(), batch.Texture)
	assert.Equal(t, 64, sys.TexOriginalSize)
	assert.Equal(t, 10, batch.Capacity())
	assert.Zero(t, sys.LiveCount())
	assert.Zero(t, batch.Draws())

	// uvs are in place before the first frame
	assert.Equal(t, []float32{1, 0}, batch.Quad(9)[CornerTopRight*VertexStride+TexCoordOffset:][:2])
}

func TestNewSystem_TextureFailureIsFatal(t *testing.T) {
	boom := errors.New("no such file")
	batches := &CPUBatches{}
	_, err := NewSystem(testConfig(t, nil), SystemOptions{
		Loader:  &fakeLoader{fail: boom},
		Batches: batches,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "spark.png")
	assert.Empty(t, batches.Batches)
}

func TestNewSystem_MissingCollaborators(t *testing.T) {
	cfg := testConfig(t, nil)

	_, err := NewSystem(cfg, SystemOptions{Batches: &CPUBatches{}})
	assert.Error(t, err)

	_, err = NewSystem(cfg, SystemOptions{Loader: &fakeLoader{}})
	assert.Error(t, err)

	cfg.MaxParticles = 0
	_, err = NewSystem(cfg, SystemOptions{Loader: &fakeLoader{}, Batches: &CPUBatches{}})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSystem_FrameDrawsLiveCount(t *testing.T) {
	sys, batch, _ := newTestSystem(t, nil)

	sys.Frame(500 * time.Millisecond)
	assert.Equal(t, 4, sys.LiveCount())
	assert.Equal(t, 4, batch.Drawn())
	assert.Equal(t, 1, batch.Draws())

	for i := 0; i < 30; i++ {
		sys.Frame(500 * time.Millisecond)
		assert.Equal(t, sys.LiveCount(), batch.Drawn())
		assert.LessOrEqual(t, batch.Drawn(), 10)
	}
	assert.Equal(t, 31, batch.Draws())
	assert.Equal(t, 15500*time.Millisecond, sys.Elapsed())
}

func TestSystem_FramePacksLiveParticles(t *testing.T) {
	sys, batch, _ := newTestSystem(t, nil)

	sys.Frame(250 * time.Millisecond)
	require.Equal(t, 2, sys.LiveCount())

	for i, p := range sys.Emitter().Live() {
		quad := batch.Quad(i)
		color := quad[CornerBottomLeft*VertexStride+ColorOffset:][:4]
		assert.Equal(t, []float32{p.Color[0], p.Color[1], p.Color[2], p.Color[3]}, color)
		half := p.Size / 2
		x := quad[CornerTopRight*VertexStride+PositionOffset]
		assert.InDelta(t, p.Position.X()+half, x, 1e-4)
	}
}

func TestSystem_ResetMatchesFreshSystem(t *testing.T) {
	fresh, _, _ := newTestSystem(t, nil)
	fresh.Frame(350 * time.Millisecond)

	used, batch, _ := newTestSystem(t, nil)
	for i := 0; i < 7; i++ {
		used.Frame(333 * time.Millisecond)
	}
	used.Reset()
	assert.Zero(t, used.LiveCount())
	assert.Zero(t, used.Elapsed())

	used.Frame(350 * time.Millisecond)
	assert.Equal(t, fresh.LiveCount(), used.LiveCount())
	assert.Equal(t, used.LiveCount(), batch.Drawn())
}

func TestSystem_Close(t *testing.T) {
	sys, batch, _ := newTestSystem(t, nil)
	sys.Close()
	assert.Nil(t, sys.Batch())
	assert.Zero(t, batch.Capacity())
	assert.Nil(t, batch.Vertices())

	// second close is a no-op
	sys.Close()
}
