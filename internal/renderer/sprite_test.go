package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritecomp/pkg/coords"
)

// bareTexture has no GPU handles, only dimensions and one reference.
func bareTexture(w, h uint32) *Texture {
	t := &Texture{dimensions: coords.Dims(w, h)}
	t.refs.Store(1)
	return t
}

func TestSpriteWholeTexture(t *testing.T) {
	tex := bareTexture(37, 91)
	s, err := newSprite(tex, nil)
	require.NoError(t, err)

	assert.Equal(t, coords.FullTexture, s.UVs())
	assert.Equal(t, coords.Dims(37, 91), s.Dimensions())
	assert.Nil(t, s.Area())
	assert.Same(t, tex, s.Texture())
	assert.Equal(t, int32(2), tex.refs.Load())
}

func TestSpriteAtlasArea(t *testing.T) {
	tex := bareTexture(100, 100)
	area := coords.Area(10, 10, 20, 30)
	s, err := newSprite(tex, &area)
	require.NoError(t, err)

	assert.Equal(t, [4]coords.TextureCoordinates{
		{U: 0.10, V: 0.10},
		{U: 0.30, V: 0.10},
		{U: 0.10, V: 0.40},
		{U: 0.30, V: 0.40},
	}, s.UVs())
	assert.Equal(t, coords.Dims(20, 30), s.Dimensions())
	require.NotNil(t, s.Area())
	assert.Equal(t, area, *s.Area())

	area.Coordinates = coords.Pt(0, 0)
	assert.Equal(t, coords.Pt(10, 10), s.Area().Coordinates)
}

func TestSpriteRejectsBadAreas(t *testing.T) {
	tests := []struct {
		name string
		area coords.SpriteTextureArea
	}{
		{"overflow", coords.Area(90, 0, 20, 10)},
		{"negative", coords.Area(-1, 0, 10, 10)},
		{"empty", coords.Area(0, 0, 0, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex := bareTexture(100, 100)
			_, err := newSprite(tex, &tt.area)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAreaOutOfBounds), "got %v", err)
			assert.Equal(t, int32(1), tex.refs.Load())
		})
	}
}

func TestSpriteOverReleasedTexture(t *testing.T) {
	tex := bareTexture(4, 4)
	tex.Release()

	_, err := newSprite(tex, nil)
	assert.True(t, errors.Is(err, ErrReleased))
}

func TestSpriteReleaseDropsReference(t *testing.T) {
	tex := bareTexture(4, 4)
	s, err := newSprite(tex, nil)
	require.NoError(t, err)

	tex.Release()
	assert.Equal(t, int32(1), tex.refs.Load())

	s.Release()
	s.Release()
	assert.Equal(t, int32(0), tex.refs.Load())
	assert.Nil(t, s.Texture())
}

func TestRotationByFraction(t *testing.T) {
	quarter := RotationByFraction(0.25, nil)
	assert.Nil(t, quarter.Center)

	// Positive turns go clockwise on screen: right becomes down.
	v := quarter.Matrix.Mul2x1(mgl32.Vec2{1, 0})
	assert.InDelta(t, 0, v[0], 1e-6)
	assert.InDelta(t, 1, v[1], 1e-6)

	center := coords.Pt(4, 4)
	half := RotationByFraction(0.5, &center)
	assert.Equal(t, &center, half.Center)
	assertMat2InDelta(t, mgl32.Rotate2D(math.Pi), half.Matrix)

	assertMat2InDelta(t, mgl32.Ident2(), RotationByFraction(1, nil).Matrix)
}

func assertMat2InDelta(t *testing.T, want, got mgl32.Mat2) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6, "element %d of %v", i, got)
	}
}

func TestRotationFromMatrix(t *testing.T) {
	center := coords.Pt(1, 2)
	rot, err := RotationFromMatrix(mgl32.Rotate2D(1), &center)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Rotate2D(1), rot.Matrix)
	assert.Equal(t, &center, rot.Center)

	_, err = RotationFromMatrix(mgl32.Scale2D(2, 3).Mat2(), nil)
	assert.NoError(t, err)

	tests := []struct {
		name string
		m    mgl32.Mat2
	}{
		{"mirror x", mgl32.Mat2{-1, 0, 0, 1}},
		{"mirror y", mgl32.Mat2{1, 0, 0, -1}},
		{"degenerate", mgl32.Mat2{1, 2, 2, 4}},
		{"zero", mgl32.Mat2{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RotationFromMatrix(tt.m, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRotation), "got %v", err)
		})
	}
}

func TestSpriteNilTexture(t *testing.T) {
	var r Renderer
	var err error
	require.NotPanics(t, func() { _, err = r.CreateSprite(nil, nil) })
	assert.Error(t, err)

	area := coords.Area(0, 0, 1, 1)
	_, err = newSprite(nil, &area)
	assert.Error(t, err)
}
