package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 128})
	img.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNGKeepsStraightAlpha(t *testing.T) {
	src := testImage()

	img, err := Decode(encodePNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, 4*3, img.Stride)
	assert.Len(t, img.Pix, 4*3*2)
	assert.Equal(t, color.NRGBA{G: 255, A: 128}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 40}, img.NRGBAAt(2, 1))
}

func TestDecodeBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		if i%4 == 3 {
			src.Pix[i] = 255
		}
	}
	src.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, img.NRGBAAt(1, 1))
}

func TestDecodeErrors(t *testing.T) {
	valid := encodePNG(t, testImage())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")},
		{"truncated png", valid[:len(valid)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

func TestToNRGBA(t *testing.T) {
	packed := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, packed, ToNRGBA(packed))

	sub := packed.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)
	out := ToNRGBA(sub)
	assert.NotSame(t, sub, out)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, 8, out.Stride)

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 200})
	assert.Equal(t, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, ToNRGBA(gray).NRGBAAt(0, 0))
}

func TestLoaderWithoutFileSystem(t *testing.T) {
	_, err := NewLoader(nil, "textures").Load("atlas.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestLoaderReadsOverlay(t *testing.T) {
	base, mod := t.TempDir(), t.TempDir()
	for _, dir := range []string{base, mod} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "textures", "a.png"), encodePNG(t, testImage()), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mod, "textures", "b.png"), []byte("mod"), 0644))

	ovl, err := NewOverlay(base, mod)
	require.NoError(t, err)
	l := NewLoader(ovl, "textures")

	img, err := l.Load("a.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	data, err := l.ReadFile("b.png")
	require.NoError(t, err)
	assert.Equal(t, "mod", string(data))

	_, err = l.Load("b.png")
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = l.Load("missing.png")
	assert.True(t, errors.Is(err, ErrIO))
}

func TestOverlaySkipsMissingDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textures", "a.png"), encodePNG(t, testImage()), 0644))

	ovl, err := NewOverlay(filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)

	_, err = NewLoader(ovl, "textures").Load("a.png")
	assert.NoError(t, err)
}
