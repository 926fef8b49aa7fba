package renderer

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spritecomp/pkg/coords"
)

// SurfaceState tracks whether a surface has been drawn to since it was last
// cleared.
type SurfaceState int

const (
	SurfaceClean SurfaceState = iota
	SurfacePopulated
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceClean:
		return "clean"
	case SurfacePopulated:
		return "populated"
	}
	return "unknown"
}

const surfaceUsage = wgpu.TextureUsage_RenderAttachment |
	wgpu.TextureUsage_TextureBinding |
	wgpu.TextureUsage_CopySrc

// PixelSurface is an offscreen render target that can also be sampled as a
// source by draws into other surfaces.
type PixelSurface struct {
	r          *Renderer
	texture    *Texture
	dimensions coords.PixelDimensions
	state      SurfaceState
}

// CreateSubsurface creates a transparent black w x h surface.
func (r *Renderer) CreateSubsurface(w, h uint32) (*PixelSurface, error) {
	return r.newPixelSurface("subsurface", coords.Dims(w, h))
}

func (r *Renderer) newPixelSurface(label string, dims coords.PixelDimensions) (*PixelSurface, error) {
	if r.released {
		return nil, ErrReleased
	}
	if !dims.Valid() {
		return nil, errors.Wrapf(ErrInvalidDimensions, "surface %s", dims)
	}
	if err := r.checkLimits(dims); err != nil {
		return nil, err
	}

	tex, err := r.createTexture(label, dims, surfaceUsage)
	if err != nil {
		return nil, err
	}

	s := &PixelSurface{r: r, texture: tex, dimensions: dims}
	if err := s.Clear(); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

// Dimensions returns the surface size in pixels.
func (s *PixelSurface) Dimensions() coords.PixelDimensions { return s.dimensions }

// State reports whether the surface has been drawn to since the last clear.
func (s *PixelSurface) State() SurfaceState { return s.state }

// Texture exposes the surface contents as a texture, for building sprites
// over part of a surface.
func (s *PixelSurface) Texture() *Texture { return s.texture }

// Release drops the surface's reference to its texture.
func (s *PixelSurface) Release() {
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}

// Clear overwrites the surface with transparent black.
func (s *PixelSurface) Clear() error {
	if s.texture == nil {
		return ErrReleased
	}
	err := s.r.renderPass("clear_surface", s.texture.view, wgpu.LoadOp_Clear, nil)
	if err != nil {
		return err
	}
	s.r.transients.retire()
	s.state = SurfaceClean
	return nil
}

// DrawSprite blends sprite over the surface contents.
func (s *PixelSurface) DrawSprite(sprite *Sprite, opts DrawOptions) error {
	if sprite == nil {
		return errors.New("nil sprite")
	}
	if sprite.texture == nil {
		return errors.Wrap(ErrReleased, "sprite")
	}
	return s.draw(sprite.texture, sprite.uvs, sprite.dimensions, opts)
}

// DrawSubsurface blends the whole of src over the surface contents. src must
// not be s.
func (s *PixelSurface) DrawSubsurface(src *PixelSurface, opts DrawOptions) error {
	if src == nil {
		return errors.New("nil source surface")
	}
	if src == s {
		return errors.WithStack(ErrAliasing)
	}
	if src.texture == nil {
		return errors.Wrap(ErrReleased, "source surface")
	}
	return s.draw(src.texture, coords.FullTexture, src.dimensions, opts)
}

func (s *PixelSurface) draw(src *Texture, uvs [4]coords.TextureCoordinates, srcDims coords.PixelDimensions, opts DrawOptions) error {
	if src == s.texture {
		return errors.WithStack(ErrAliasing)
	}
	if s.texture == nil {
		return ErrReleased
	}

	p := opts.resolve(srcDims)
	if !p.dimensions.Valid() {
		return errors.Wrapf(ErrInvalidDimensions, "draw size %s", p.dimensions)
	}
	if err := checkRotation(p.rotation); err != nil {
		return err
	}

	if err := src.Retain(); err != nil {
		return errors.Wrap(err, "draw source")
	}
	owned := []releaser{src}
	fail := func(err error) error {
		for _, o := range owned {
			o.Release()
		}
		return err
	}

	r := s.r
	uniformBuffer, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "sprite_uniforms",
		Contents: wgpu.ToBytes([]SpriteUniforms{p.uniforms(s.dimensions)}),
		Usage:    wgpu.BufferUsage_Uniform,
	})
	if err != nil {
		return fail(r.backendError(err, ErrUpload, "uniform buffer creation"))
	}
	owned = append(owned, uniformBuffer)

	uniformBindGroup, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "sprite_uniforms_bind_group",
		Layout: r.layouts.spriteUniforms,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: uniformBuffer, Size: uint64(unsafe.Sizeof(SpriteUniforms{}))},
		},
	})
	if err != nil {
		return fail(r.backendError(err, ErrUpload, "uniform bind group creation"))
	}
	owned = append(owned, uniformBindGroup)

	vertices := quadVertices(uvs)
	vertexBuffer, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "sprite_vertices",
		Contents: wgpu.ToBytes(vertices[:]),
		Usage:    wgpu.BufferUsage_Vertex,
	})
	if err != nil {
		return fail(r.backendError(err, ErrUpload, "vertex buffer creation"))
	}
	owned = append(owned, vertexBuffer)

	err = r.renderPass("draw_sprite", s.texture.view, wgpu.LoadOp_Load, func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(r.spritePipeline)
		pass.SetBindGroup(0, src.bindGroup, nil)
		pass.SetBindGroup(1, uniformBindGroup, nil)
		pass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.quadIndices, wgpu.IndexFormat_Uint16, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(len(QuadIndices)), 1, 0, 0, 0)
	})
	if err != nil {
		return fail(err)
	}

	r.transients.track(owned...)
	r.transients.retire()
	s.state = SurfacePopulated
	return nil
}

// renderPass records one pass over view and submits it. A nil record only
// applies the load op.
func (r *Renderer) renderPass(label string, view *wgpu.TextureView, load wgpu.LoadOp, record func(*wgpu.RenderPassEncoder)) error {
	encoder, err := r.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return r.backendError(err, ErrDeviceLost, "command encoder creation")
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOp_Store,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	if record != nil {
		record(pass)
	}
	if err := pass.End(); err != nil {
		return r.backendError(err, ErrUpload, "render pass")
	}

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{Label: label})
	if err != nil {
		return r.backendError(err, ErrUpload, "command buffer finish")
	}
	defer cmdBuffer.Release()

	r.queue.Submit(cmdBuffer)
	return nil
}
