package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"spritecomp/pkg/coords"
)

// SpriteUniforms matches the SpriteUniforms struct in spriteShader. It is
// 48 bytes with no padding: four vec2<f32> followed by the column-major
// rotation matrix packed into one vec4<f32>. A uniform mat2x2<f32> would get
// a 16-byte column stride on some backends.
type SpriteUniforms struct {
	RenderTargetDimensions [2]float32
	Position               [2]float32
	Dimensions             [2]float32
	RotationCenter         [2]float32
	Rotation               [4]float32
}

// DrawOptions configures a single draw. Nil fields take their defaults:
// position (0,0), the source's own dimensions, and no rotation.
type DrawOptions struct {
	Position   *coords.PixelCoordinates
	Dimensions *coords.PixelDimensions
	Rotation   *SpriteRotation
}

// At returns options placing the source's top-left corner at (x,y).
func At(x, y int32) DrawOptions {
	p := coords.Pt(x, y)
	return DrawOptions{Position: &p}
}

// Scaled returns a copy of o that stretches the source to w x h.
func (o DrawOptions) Scaled(w, h uint32) DrawOptions {
	d := coords.Dims(w, h)
	o.Dimensions = &d
	return o
}

// Rotated returns a copy of o with rotation r.
func (o DrawOptions) Rotated(r SpriteRotation) DrawOptions {
	o.Rotation = &r
	return o
}

type drawParams struct {
	position   coords.PixelCoordinates
	dimensions coords.PixelDimensions
	rotation   mgl32.Mat2
	center     coords.PixelCoordinates
}

func (o DrawOptions) resolve(source coords.PixelDimensions) drawParams {
	p := drawParams{
		dimensions: source,
		rotation:   mgl32.Ident2(),
	}
	if o.Position != nil {
		p.position = *o.Position
	}
	if o.Dimensions != nil {
		p.dimensions = *o.Dimensions
	}
	if o.Rotation != nil {
		p.rotation = o.Rotation.Matrix
		if o.Rotation.Center != nil {
			p.center = *o.Rotation.Center
		}
	}
	return p
}

func (p drawParams) uniforms(target coords.PixelDimensions) SpriteUniforms {
	m := p.rotation
	return SpriteUniforms{
		RenderTargetDimensions: [2]float32{float32(target.Width), float32(target.Height)},
		Position:               [2]float32{float32(p.position.X), float32(p.position.Y)},
		Dimensions:             [2]float32{float32(p.dimensions.Width), float32(p.dimensions.Height)},
		RotationCenter:         [2]float32{float32(p.center.X), float32(p.center.Y)},
		Rotation:               [4]float32{m[0], m[1], m[2], m[3]},
	}
}
