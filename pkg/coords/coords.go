package coords

import (
	"fmt"
	"math"
)

// PixelCoordinates is an integer offset from the top-left of a render target.
// (0,0) is the top-left pixel and Y grows downward.
type PixelCoordinates struct {
	X int32
	Y int32
}

// TopLeft returns the origin of pixel space.
func TopLeft() PixelCoordinates {
	return PixelCoordinates{}
}

// Pt is shorthand for PixelCoordinates{X: x, Y: y}.
func Pt(x, y int32) PixelCoordinates {
	return PixelCoordinates{X: x, Y: y}
}

func (p PixelCoordinates) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ToRenderPlane converts p to normalized render plane coordinates for a
// target of the given pixel dimensions.
func (p PixelCoordinates) ToRenderPlane(d PixelDimensions) RenderPlaneCoordinates {
	return RenderPlaneCoordinates{
		X: -1 + (float32(p.X)/float32(d.Width))*2,
		Y: 1 - (float32(p.Y)/float32(d.Height))*2,
	}
}

// PixelDimensions are the pixel extents of a texture or surface.
type PixelDimensions struct {
	Width  uint32
	Height uint32
}

// Dims is shorthand for PixelDimensions{Width: w, Height: h}.
func Dims(w, h uint32) PixelDimensions {
	return PixelDimensions{Width: w, Height: h}
}

// Valid reports whether both extents are non-zero.
func (d PixelDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Contains reports whether the area lies entirely within d.
func (d PixelDimensions) Contains(a SpriteTextureArea) bool {
	if a.Coordinates.X < 0 || a.Coordinates.Y < 0 {
		return false
	}
	x, y := uint64(a.Coordinates.X), uint64(a.Coordinates.Y)
	return x+uint64(a.Dimensions.Width) <= uint64(d.Width) &&
		y+uint64(a.Dimensions.Height) <= uint64(d.Height)
}

func (d PixelDimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// RenderPlaneCoordinates are GPU normalized device coordinates in [-1, 1],
// Y pointing up.
type RenderPlaneCoordinates struct {
	X float32
	Y float32
}

// Canonical render plane points.
var (
	PlaneOrigin      = RenderPlaneCoordinates{X: 0, Y: 0}
	PlaneTopLeft     = RenderPlaneCoordinates{X: -1, Y: 1}
	PlaneTopRight    = RenderPlaneCoordinates{X: 1, Y: 1}
	PlaneBottomLeft  = RenderPlaneCoordinates{X: -1, Y: -1}
	PlaneBottomRight = RenderPlaneCoordinates{X: 1, Y: -1}
)

// PlaneCorners lists the plane corners in corner order.
var PlaneCorners = [4]RenderPlaneCoordinates{PlaneTopLeft, PlaneTopRight, PlaneBottomLeft, PlaneBottomRight}

// ToPixelF is the unrounded inverse of PixelCoordinates.ToRenderPlane.
func (r RenderPlaneCoordinates) ToPixelF(d PixelDimensions) (x, y float32) {
	x = (r.X + 1) * float32(d.Width) / 2
	y = (1 - r.Y) * float32(d.Height) / 2
	return x, y
}

// ToPixel converts r back to pixel space, rounding to the nearest pixel.
func (r RenderPlaneCoordinates) ToPixel(d PixelDimensions) PixelCoordinates {
	x, y := r.ToPixelF(d)
	return PixelCoordinates{
		X: int32(math.Round(float64(x))),
		Y: int32(math.Round(float64(y))),
	}
}

// TextureCoordinates are sampling coordinates in [0, 1], V growing downward.
type TextureCoordinates struct {
	U float32
	V float32
}

// Canonical texture corners.
var (
	UVTopLeft     = TextureCoordinates{U: 0, V: 0}
	UVTopRight    = TextureCoordinates{U: 1, V: 0}
	UVBottomLeft  = TextureCoordinates{U: 0, V: 1}
	UVBottomRight = TextureCoordinates{U: 1, V: 1}
)

// FullTexture holds the UVs of a whole texture in corner order:
// top-left, top-right, bottom-left, bottom-right.
var FullTexture = [4]TextureCoordinates{UVTopLeft, UVTopRight, UVBottomLeft, UVBottomRight}

// SpriteTextureArea is a pixel rectangle within a texture, usually an atlas cell.
type SpriteTextureArea struct {
	Coordinates PixelCoordinates
	Dimensions  PixelDimensions
}

// Area is shorthand for a SpriteTextureArea at (x,y) of size w x h.
func Area(x, y int32, w, h uint32) SpriteTextureArea {
	return SpriteTextureArea{Coordinates: Pt(x, y), Dimensions: Dims(w, h)}
}

// UVs divides the area's pixel corners by the texture dimensions and returns
// them in corner order.
func (a SpriteTextureArea) UVs(texture PixelDimensions) [4]TextureCoordinates {
	tw, th := float32(texture.Width), float32(texture.Height)
	x0, y0 := float32(a.Coordinates.X), float32(a.Coordinates.Y)
	w, h := float32(a.Dimensions.Width), float32(a.Dimensions.Height)

	return [4]TextureCoordinates{
		{U: x0 / tw, V: y0 / th},
		{U: (x0 + w) / tw, V: y0 / th},
		{U: x0 / tw, V: (y0 + h) / th},
		{U: (x0 + w) / tw, V: (y0 + h) / th},
	}
}
