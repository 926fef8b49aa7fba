package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritecomp/internal/gpu"
	"spritecomp/pkg/coords"
)

var (
	transparent = color.NRGBA{}
	red         = color.NRGBA{R: 255, A: 255}
	green       = color.NRGBA{G: 255, A: 255}
	blue        = color.NRGBA{B: 255, A: 255}
)

func newTestRenderer(t *testing.T, w, h uint32) *Renderer {
	t.Helper()
	b, err := gpu.Acquire(gpu.Options{}, nil)
	if err != nil {
		t.Skipf("no gpu adapter available: %v", err)
	}
	t.Cleanup(b.Release)

	r, err := NewOffscreen(b, coords.Dims(w, h), Options{})
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func solidPixels(w, h uint32, c color.NRGBA) []byte {
	pix := make([]byte, 4*w*h)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pix
}

func solidSprite(t *testing.T, r *Renderer, w, h uint32, c color.NRGBA) *Sprite {
	t.Helper()
	tex, err := r.CreateTexture(solidPixels(w, h, c), coords.Dims(w, h))
	require.NoError(t, err)
	defer tex.Release()

	s, err := r.CreateSprite(tex, nil)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

func readPixels(t *testing.T, s *PixelSurface) *image.NRGBA {
	t.Helper()
	img, err := s.ReadPixels()
	require.NoError(t, err)
	return img
}

func assertEverywhere(t *testing.T, img *image.NRGBA, c color.NRGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !assert.Equal(t, c, img.NRGBAAt(x, y), "pixel (%d,%d)", x, y) {
				return
			}
		}
	}
}

func TestClearIsTransparent(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	require.NoError(t, r.DrawSprite(solidSprite(t, r, 20, 20, red), DrawOptions{}))
	assert.Equal(t, SurfacePopulated, r.SwapSurface().State())

	require.NoError(t, r.Clear())
	assert.Equal(t, SurfaceClean, r.SwapSurface().State())
	assertEverywhere(t, readPixels(t, r.SwapSurface()), transparent)
}

func TestDrawSpriteAtPosition(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	require.NoError(t, r.DrawSprite(solidSprite(t, r, 10, 10, red), At(5, 5)))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, red, img.NRGBAAt(5, 5))
	assert.Equal(t, red, img.NRGBAAt(14, 14))
	assert.Equal(t, transparent, img.NRGBAAt(0, 0))
	assert.Equal(t, transparent, img.NRGBAAt(15, 15))
	assert.Equal(t, transparent, img.NRGBAAt(4, 10))
}

func TestAlphaOverReplacesOpaque(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	require.NoError(t, r.DrawSprite(solidSprite(t, r, 10, 10, blue), At(5, 5)))
	require.NoError(t, r.DrawSprite(solidSprite(t, r, 10, 10, red), At(5, 5)))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, red, img.NRGBAAt(5, 5))
	assert.Equal(t, red, img.NRGBAAt(10, 10))
}

func TestTransparentSpriteKeepsContents(t *testing.T) {
	r := newTestRenderer(t, 8, 8)

	require.NoError(t, r.DrawSprite(solidSprite(t, r, 8, 8, green), DrawOptions{}))
	require.NoError(t, r.DrawSprite(solidSprite(t, r, 8, 8, transparent), DrawOptions{}))

	assertEverywhere(t, readPixels(t, r.SwapSurface()), green)
}

func TestAtlasCell(t *testing.T) {
	r := newTestRenderer(t, 8, 4)

	// Left half red, right half blue.
	pix := solidPixels(8, 4, red)
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			copy(pix[4*(y*8+x):], []byte{0, 0, 255, 255})
		}
	}
	tex, err := r.CreateTexture(pix, coords.Dims(8, 4))
	require.NoError(t, err)
	defer tex.Release()

	area := coords.Area(4, 0, 4, 4)
	cell, err := r.CreateSprite(tex, &area)
	require.NoError(t, err)
	defer cell.Release()

	require.NoError(t, r.DrawSprite(cell, DrawOptions{}))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, blue, img.NRGBAAt(0, 0))
	assert.Equal(t, blue, img.NRGBAAt(3, 3))
	assert.Equal(t, transparent, img.NRGBAAt(4, 0))
}

func TestScaledDraw(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	require.NoError(t, r.DrawSprite(solidSprite(t, r, 2, 2, green), At(0, 0).Scaled(20, 10)))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, green, img.NRGBAAt(19, 9))
	assert.Equal(t, transparent, img.NRGBAAt(0, 10))
}

func TestRotatedDraw(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	// A quarter turn about (10,10) moves the 10x10 square at the origin to
	// the top-right quadrant.
	center := coords.Pt(10, 10)
	opts := DrawOptions{}.Rotated(RotationByFraction(0.25, &center))
	require.NoError(t, r.DrawSprite(solidSprite(t, r, 10, 10, red), opts))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, red, img.NRGBAAt(15, 5))
	assert.Equal(t, transparent, img.NRGBAAt(5, 5))
	assert.Equal(t, transparent, img.NRGBAAt(15, 15))
}

func TestDrawSubsurface(t *testing.T) {
	r := newTestRenderer(t, 20, 20)

	sub, err := r.CreateSubsurface(4, 4)
	require.NoError(t, err)
	defer sub.Release()
	assert.Equal(t, SurfaceClean, sub.State())

	require.NoError(t, sub.DrawSprite(solidSprite(t, r, 4, 4, green), DrawOptions{}))
	require.NoError(t, r.DrawSubsurface(sub, At(2, 2)))

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, green, img.NRGBAAt(2, 2))
	assert.Equal(t, green, img.NRGBAAt(5, 5))
	assert.Equal(t, transparent, img.NRGBAAt(6, 6))
	assert.Equal(t, transparent, img.NRGBAAt(1, 1))
}

func TestAliasingLeavesContents(t *testing.T) {
	r := newTestRenderer(t, 10, 10)

	sub, err := r.CreateSubsurface(10, 10)
	require.NoError(t, err)
	defer sub.Release()
	require.NoError(t, sub.DrawSprite(solidSprite(t, r, 5, 5, red), At(2, 2)))
	before := readPixels(t, sub)

	err = sub.DrawSubsurface(sub, At(1, 1))
	assert.True(t, errors.Is(err, ErrAliasing))

	assert.Equal(t, before.Pix, readPixels(t, sub).Pix)
}

func TestSourceOutlivesCallerReference(t *testing.T) {
	r := newTestRenderer(t, 4, 4)

	tex, err := r.CreateTexture(solidPixels(4, 4, blue), coords.Dims(4, 4))
	require.NoError(t, err)
	s, err := r.CreateSprite(tex, nil)
	require.NoError(t, err)
	tex.Release()

	require.NoError(t, r.DrawSprite(s, DrawOptions{}))
	s.Release()

	assertEverywhere(t, readPixels(t, r.SwapSurface()), blue)
}

func TestResizeOffscreen(t *testing.T) {
	r := newTestRenderer(t, 10, 10)
	require.NoError(t, r.DrawSprite(solidSprite(t, r, 10, 10, red), DrawOptions{}))

	require.NoError(t, r.Resize(coords.Dims(30, 12)))
	assert.Equal(t, coords.Dims(30, 12), r.Dimensions())
	assert.Equal(t, SurfaceClean, r.SwapSurface().State())

	img := readPixels(t, r.SwapSurface())
	assert.Equal(t, image.Rect(0, 0, 30, 12), img.Bounds())
	assertEverywhere(t, img, transparent)

	assert.True(t, errors.Is(r.Present(), ErrNoWindow))
}

func TestCreateTextureOverDeviceLimit(t *testing.T) {
	r := newTestRenderer(t, 4, 4)
	tooBig := r.maxTextureDim + 1

	_, err := r.CreateTexture(make([]byte, 4*tooBig), coords.Dims(tooBig, 1))
	assert.True(t, errors.Is(err, ErrUpload), "got %v", err)

	_, err = r.CreateSubsurface(tooBig, 1)
	assert.True(t, errors.Is(err, ErrUpload), "got %v", err)
}

func TestLoadTextureBytes(t *testing.T) {
	r := newTestRenderer(t, 4, 4)

	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:], []byte{0, 255, 0, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	tex, err := r.LoadTextureBytes(buf.Bytes())
	require.NoError(t, err)
	defer tex.Release()
	assert.Equal(t, coords.Dims(3, 2), tex.Dimensions())

	_, err = r.LoadTextureBytes(buf.Bytes()[:10])
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestRenderPassReportsValidationErrors(t *testing.T) {
	r := newTestRenderer(t, 4, 4)

	// No bind groups or vertex buffer are set for the sprite pipeline.
	err := r.renderPass("unbound_draw", r.SwapSurface().texture.view, wgpu.LoadOp_Load, func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(r.spritePipeline)
		pass.DrawIndexed(uint32(len(QuadIndices)), 1, 0, 0, 0)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpload), "got %v", err)
	assert.False(t, errors.Is(err, ErrDeviceLost))
}
