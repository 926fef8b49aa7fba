package imageio

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Error kinds returned by this package. Match them with errors.Is.
var (
	ErrDecode = errors.New("malformed image data")
	ErrIO     = errors.New("asset i/o failure")
)

// sniffLen is how many leading bytes filetype needs to identify every image
// type it knows about.
const sniffLen = 262

// Decode turns compressed image bytes into a straight-alpha RGBA8 image whose
// pixel buffer is tightly packed (Stride == 4*width) and anchored at (0,0).
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrDecode, "empty input")
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, errors.Wrap(ErrDecode, "unrecognized image format")
	}
	if !filetype.IsImage(head) {
		return nil, errors.Wrapf(ErrDecode, "%s is not an image", kind.MIME.Value)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: %v", kind.Extension, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA converts any image into a tightly packed straight-alpha RGBA8 image.
// An *image.NRGBA that is already tightly packed at the origin is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
