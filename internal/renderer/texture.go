package renderer

import (
	"image"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spritecomp/internal/imageio"
	"spritecomp/pkg/coords"
)

// Texture is a write-once GPU image with its sampler and the bind group that
// exposes both through the texture layout. Textures are reference counted:
// the creator holds one reference, every Sprite holds one, and every draw
// that samples the texture holds one until its commands retire.
type Texture struct {
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	sampler    *wgpu.Sampler
	bindGroup  *wgpu.BindGroup
	dimensions coords.PixelDimensions
	refs       atomic.Int32
}

// Dimensions returns the texture size in pixels.
func (t *Texture) Dimensions() coords.PixelDimensions {
	return t.dimensions
}

// Retain adds a reference. It fails once the texture has been freed.
func (t *Texture) Retain() error {
	for {
		n := t.refs.Load()
		if n <= 0 {
			return ErrReleased
		}
		if t.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference and frees the GPU resources with the last one.
func (t *Texture) Release() {
	n := t.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		t.refs.Store(0)
		return
	}
	if t.bindGroup != nil {
		t.bindGroup.Release()
		t.bindGroup = nil
	}
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// CreateTexture uploads a tightly packed straight-alpha RGBA8 buffer of
// 4*width bytes per row.
func (r *Renderer) CreateTexture(pix []byte, dims coords.PixelDimensions) (*Texture, error) {
	if err := r.checkUpload(pix, dims); err != nil {
		return nil, err
	}

	t, err := r.createTexture("sprite_texture", dims, wgpu.TextureUsage_TextureBinding|wgpu.TextureUsage_CopyDst)
	if err != nil {
		return nil, err
	}

	err = r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.texture, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspect_All},
		pix,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: 4 * dims.Width, RowsPerImage: dims.Height},
		&wgpu.Extent3D{Width: dims.Width, Height: dims.Height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		t.Release()
		return nil, r.backendError(err, ErrUpload, "texture write")
	}
	return t, nil
}

// CreateTextureFromImage uploads img, converting it to straight-alpha RGBA
// first if needed.
func (r *Renderer) CreateTextureFromImage(img image.Image) (*Texture, error) {
	nrgba := imageio.ToNRGBA(img)
	b := nrgba.Bounds()
	return r.CreateTexture(nrgba.Pix, coords.Dims(uint32(b.Dx()), uint32(b.Dy())))
}

func (r *Renderer) checkUpload(pix []byte, dims coords.PixelDimensions) error {
	if r.released {
		return ErrReleased
	}
	if !dims.Valid() {
		return errors.Wrapf(ErrInvalidDimensions, "texture %s", dims)
	}
	if want := 4 * uint64(dims.Width) * uint64(dims.Height); uint64(len(pix)) != want {
		return errors.Wrapf(ErrUpload, "pixel buffer holds %d bytes, %s RGBA8 needs %d", len(pix), dims, want)
	}
	return r.checkLimits(dims)
}

func (r *Renderer) checkLimits(dims coords.PixelDimensions) error {
	if r.maxTextureDim > 0 && (dims.Width > r.maxTextureDim || dims.Height > r.maxTextureDim) {
		return errors.Wrapf(ErrUpload, "texture %s exceeds device limit %d", dims, r.maxTextureDim)
	}
	return nil
}

// createTexture allocates an uninitialized texture with one reference.
func (r *Renderer) createTexture(label string, dims coords.PixelDimensions, usage wgpu.TextureUsage) (*Texture, error) {
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              dims.Width,
			Height:             dims.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        surfaceFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, r.backendError(err, ErrUpload, "texture allocation")
	}

	t := &Texture{texture: texture, dimensions: dims}
	t.refs.Store(1)

	t.view, err = texture.CreateView(&wgpu.TextureViewDescriptor{
		Format:          surfaceFormat,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_All,
	})
	if err != nil {
		t.Release()
		return nil, r.backendError(err, ErrUpload, "texture view creation")
	}

	t.sampler, err = r.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:   wgpu.AddressMode_ClampToEdge,
		AddressModeV:   wgpu.AddressMode_ClampToEdge,
		AddressModeW:   wgpu.AddressMode_ClampToEdge,
		MagFilter:      wgpu.FilterMode_Nearest,
		MinFilter:      wgpu.FilterMode_Nearest,
		MipmapFilter:   wgpu.MipmapFilterMode_Nearest,
		MaxAnisotrophy: 1,
	})
	if err != nil {
		t.Release()
		return nil, r.backendError(err, ErrUpload, "sampler creation")
	}

	t.bindGroup, err = r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + "_bind_group",
		Layout: r.layouts.texture,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.view},
			{Binding: 1, Sampler: t.sampler},
		},
	})
	if err != nil {
		t.Release()
		return nil, r.backendError(err, ErrUpload, "texture bind group creation")
	}

	return t, nil
}
