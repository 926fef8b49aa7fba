package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"spritecomp/pkg/coords"
)

// Sprite is a read-only view of a texture region, usually an atlas cell.
type Sprite struct {
	texture    *Texture
	uvs        [4]coords.TextureCoordinates
	dimensions coords.PixelDimensions
	area       *coords.SpriteTextureArea
}

// CreateSprite wraps area of tex as a sprite, or the whole texture when area
// is nil. The sprite holds its own reference to tex.
func (r *Renderer) CreateSprite(tex *Texture, area *coords.SpriteTextureArea) (*Sprite, error) {
	return newSprite(tex, area)
}

func newSprite(tex *Texture, area *coords.SpriteTextureArea) (*Sprite, error) {
	if tex == nil {
		return nil, errors.New("nil texture")
	}
	s := &Sprite{texture: tex}
	if area == nil {
		s.uvs = coords.FullTexture
		s.dimensions = tex.dimensions
	} else {
		if !area.Dimensions.Valid() {
			return nil, errors.Wrapf(ErrAreaOutOfBounds, "empty area %s", area.Dimensions)
		}
		if !tex.dimensions.Contains(*area) {
			return nil, errors.Wrapf(ErrAreaOutOfBounds, "area %s at %s in texture %s",
				area.Dimensions, area.Coordinates, tex.dimensions)
		}
		a := *area
		s.area = &a
		s.uvs = a.UVs(tex.dimensions)
		s.dimensions = a.Dimensions
	}

	if err := tex.Retain(); err != nil {
		return nil, err
	}
	return s, nil
}

// Texture returns the texture the sprite samples.
func (s *Sprite) Texture() *Texture { return s.texture }

// UVs returns the corner texture coordinates in corner order.
func (s *Sprite) UVs() [4]coords.TextureCoordinates { return s.uvs }

// Dimensions returns the sprite's natural size in pixels.
func (s *Sprite) Dimensions() coords.PixelDimensions { return s.dimensions }

// Area returns the texture region, or nil for a whole-texture sprite.
func (s *Sprite) Area() *coords.SpriteTextureArea { return s.area }

// Release drops the sprite's texture reference.
func (s *Sprite) Release() {
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}

// SpriteRotation rotates a draw about Center, which defaults to the target's
// top-left corner rather than the sprite's own center.
type SpriteRotation struct {
	Matrix mgl32.Mat2
	Center *coords.PixelCoordinates
}

// RotationByFraction rotates by fraction of a full turn.
func RotationByFraction(fraction float32, center *coords.PixelCoordinates) SpriteRotation {
	return SpriteRotation{Matrix: mgl32.Rotate2D(fraction * 2 * math.Pi), Center: center}
}

// RotationFromMatrix uses m as is. Reflections and degenerate matrices flip
// or collapse the quad, which back-face culling drops, so they fail with
// ErrInvalidRotation.
func RotationFromMatrix(m mgl32.Mat2, center *coords.PixelCoordinates) (SpriteRotation, error) {
	if err := checkRotation(m); err != nil {
		return SpriteRotation{}, err
	}
	return SpriteRotation{Matrix: m, Center: center}, nil
}

func checkRotation(m mgl32.Mat2) error {
	if det := m.Det(); !(det > 0) {
		return errors.Wrapf(ErrInvalidRotation, "determinant %g", det)
	}
	return nil
}
