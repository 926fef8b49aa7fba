package renderer

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spritecomp/internal/assetcache"
	"spritecomp/internal/gpu"
	"spritecomp/internal/imageio"
	"spritecomp/pkg/coords"
)

// Window is the presentable side of a native window.
type Window interface {
	Surface() *wgpu.Surface
	// FramebufferSize is the current drawable size in pixels.
	FramebufferSize() (width, height int)
}

// Options configures a Renderer. Every field is optional.
type Options struct {
	// PresentMode is "fifo" (default), "immediate" or "mailbox".
	PresentMode string
	// Loader resolves texture paths passed to LoadTexture.
	Loader *imageio.Loader
	// Assets resolves http(s) references passed to LoadTexture.
	Assets *assetcache.Cache
}

func presentMode(name string) wgpu.PresentMode {
	switch strings.ToLower(name) {
	case "immediate":
		return wgpu.PresentMode_Immediate
	case "mailbox":
		return wgpu.PresentMode_Mailbox
	}
	return wgpu.PresentMode_Fifo
}

// Renderer owns the GPU pipelines and the swap surface, the pixel surface
// holding the frame that Present copies to the window.
type Renderer struct {
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *wgpu.Queue

	layouts        *bindGroupLayouts
	spritePipeline *wgpu.RenderPipeline
	quadIndices    *wgpu.Buffer
	transients     *retirementQueue
	maxTextureDim  uint32
	deviceLost     func() bool

	window          Window
	swapChain       *wgpu.SwapChain
	swapChainFormat wgpu.TextureFormat
	presentMode     wgpu.PresentMode
	refreshPipeline *wgpu.RenderPipeline
	fullQuad        *wgpu.Buffer

	swap *PixelSurface
	dims coords.PixelDimensions

	loader *imageio.Loader
	assets *assetcache.Cache

	released bool
}

// New creates a renderer presenting to window, with a swap surface sized
// to the window's framebuffer.
func New(backend *gpu.Backend, window Window, opts Options) (*Renderer, error) {
	if window == nil || window.Surface() == nil {
		return nil, errors.WithStack(ErrNoWindow)
	}
	w, h := window.FramebufferSize()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "window framebuffer %dx%d", w, h)
	}

	r := newRenderer(backend, opts)
	r.window = window
	r.presentMode = presentMode(opts.PresentMode)
	if err := r.init(coords.Dims(uint32(w), uint32(h))); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// NewOffscreen creates a renderer without a window. Present fails with
// ErrNoWindow; read the frame with SwapSurface().ReadPixels.
func NewOffscreen(backend *gpu.Backend, dims coords.PixelDimensions, opts Options) (*Renderer, error) {
	if !dims.Valid() {
		return nil, errors.Wrapf(ErrInvalidDimensions, "offscreen frame %s", dims)
	}
	r := newRenderer(backend, opts)
	if err := r.init(dims); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func newRenderer(backend *gpu.Backend, opts Options) *Renderer {
	r := &Renderer{
		adapter:       backend.Adapter,
		device:        backend.Device,
		queue:         backend.Queue,
		maxTextureDim: backend.MaxTextureDimension2D(),
		deviceLost:    backend.Lost,
		loader:        opts.Loader,
		assets:        opts.Assets,
	}
	r.transients = newRetirementQueue(func(wait bool) bool {
		return r.device.Poll(wait, nil)
	}, maxPendingTransients)
	return r
}

func (r *Renderer) init(dims coords.PixelDimensions) error {
	var err error
	r.layouts, err = createBindGroupLayouts(r.device)
	if err != nil {
		return err
	}

	r.spritePipeline, err = createSpritePipeline(r.device, r.layouts)
	if err != nil {
		return err
	}

	r.quadIndices, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "quad_indices",
		Contents: wgpu.ToBytes(QuadIndices[:]),
		Usage:    wgpu.BufferUsage_Index,
	})
	if err != nil {
		return errors.Wrap(err, "index buffer creation failed")
	}

	if r.window != nil {
		r.swapChainFormat = r.window.Surface().GetPreferredFormat(r.adapter)

		r.refreshPipeline, err = createWindowRefreshPipeline(r.device, r.layouts, r.swapChainFormat)
		if err != nil {
			return err
		}

		vertices := quadVertices(coords.FullTexture)
		r.fullQuad, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "window_quad",
			Contents: wgpu.ToBytes(vertices[:]),
			Usage:    wgpu.BufferUsage_Vertex,
		})
		if err != nil {
			return errors.Wrap(err, "window quad creation failed")
		}
	}

	return r.Resize(dims)
}

// Dimensions returns the size of the swap surface.
func (r *Renderer) Dimensions() coords.PixelDimensions { return r.dims }

// SwapSurface returns the surface holding the frame. It is replaced by
// Resize, so do not keep it across resizes.
func (r *Renderer) SwapSurface() *PixelSurface { return r.swap }

// LoadTexture loads an image from the asset file system, or through the asset
// cache when ref is an http(s) URL.
func (r *Renderer) LoadTexture(ref string) (*Texture, error) {
	if r.released {
		return nil, ErrReleased
	}
	if assetcache.IsRemote(ref) {
		if r.assets == nil {
			return nil, errors.Wrapf(ErrIO, "no asset cache for %s", ref)
		}
		Logger().Debug("loading remote texture", "url", ref, "cached", r.assets.IsCached(ref))
		data, err := r.assets.Get(ref)
		if err != nil {
			return nil, errors.Wrapf(ErrIO, "%v", err)
		}
		return r.LoadTextureBytes(data)
	}

	if r.loader == nil {
		return nil, errors.Wrapf(ErrIO, "no texture loader for %s", ref)
	}
	img, err := r.loader.Load(ref)
	if err != nil {
		return nil, err
	}
	return r.CreateTextureFromImage(img)
}

// LoadTextureBytes decodes an encoded image and uploads it.
func (r *Renderer) LoadTextureBytes(data []byte) (*Texture, error) {
	if r.released {
		return nil, ErrReleased
	}
	img, err := imageio.Decode(data)
	if err != nil {
		return nil, err
	}
	return r.CreateTextureFromImage(img)
}

// DrawSprite draws onto the swap surface.
func (r *Renderer) DrawSprite(sprite *Sprite, opts DrawOptions) error {
	if r.swap == nil {
		return ErrReleased
	}
	return r.swap.DrawSprite(sprite, opts)
}

// DrawSubsurface draws src onto the swap surface.
func (r *Renderer) DrawSubsurface(src *PixelSurface, opts DrawOptions) error {
	if r.swap == nil {
		return ErrReleased
	}
	return r.swap.DrawSubsurface(src, opts)
}

// Clear clears the swap surface.
func (r *Renderer) Clear() error {
	if r.swap == nil {
		return ErrReleased
	}
	return r.swap.Clear()
}

// Present copies the swap surface to the window. It fails with
// ErrSurfaceLost when the window size no longer matches; call Resize and
// retry.
func (r *Renderer) Present() error {
	if r.released {
		return ErrReleased
	}
	if r.window == nil {
		return errors.WithStack(ErrNoWindow)
	}
	w, h := r.window.FramebufferSize()
	if w < 0 || h < 0 || uint32(w) != r.dims.Width || uint32(h) != r.dims.Height {
		return errors.Wrapf(ErrSurfaceLost, "window is %dx%d, surface configured for %s", w, h, r.dims)
	}
	if r.swapChain == nil {
		return errors.Wrap(ErrSurfaceLost, "swap chain not configured")
	}

	view, err := r.swapChain.GetCurrentTextureView()
	if err != nil {
		return r.backendError(err, ErrSurfaceLost, "swap chain acquire")
	}
	defer view.Release()

	err = r.renderPass("window_refresh", view, wgpu.LoadOp_Clear, func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(r.refreshPipeline)
		pass.SetBindGroup(0, r.swap.texture.bindGroup, nil)
		pass.SetVertexBuffer(0, r.fullQuad, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.quadIndices, wgpu.IndexFormat_Uint16, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(len(QuadIndices)), 1, 0, 0, 0)
	})
	if err != nil {
		return err
	}

	r.swapChain.Present()
	r.transients.retire()
	return nil
}

// Resize replaces the swap surface with a clear one of the new size and
// reconfigures the window. Zero sizes, as reported for minimised windows,
// are ignored. On failure the previous surface and swap chain stay in place.
func (r *Renderer) Resize(dims coords.PixelDimensions) error {
	if r.released {
		return ErrReleased
	}
	if !dims.Valid() {
		return nil
	}

	swap, err := r.newPixelSurface("swap_surface", dims)
	if err != nil {
		return err
	}

	if r.window != nil {
		swapChain, err := r.createSwapChain(dims)
		if err != nil {
			swap.Release()
			return err
		}
		if r.swapChain != nil {
			r.swapChain.Release()
		}
		r.swapChain = swapChain
	}

	if r.swap != nil {
		r.swap.Release()
	}
	r.swap = swap
	r.dims = dims

	Logger().Debug("resized swap surface", "dims", dims.String())
	return nil
}

func (r *Renderer) createSwapChain(dims coords.PixelDimensions) (*wgpu.SwapChain, error) {
	swapChain, err := r.device.CreateSwapChain(r.window.Surface(), &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      r.swapChainFormat,
		Width:       dims.Width,
		Height:      dims.Height,
		PresentMode: r.presentMode,
	})
	if err != nil {
		return nil, r.backendError(err, ErrSurfaceLost, "swap chain creation")
	}
	return swapChain, nil
}

// Release waits for the GPU and frees everything the renderer created. The
// backend handles stay with their owner.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	r.released = true

	if r.transients != nil {
		r.transients.drain()
	}
	if r.swap != nil {
		r.swap.Release()
		r.swap = nil
	}
	if r.swapChain != nil {
		r.swapChain.Release()
		r.swapChain = nil
	}
	if r.fullQuad != nil {
		r.fullQuad.Release()
	}
	if r.quadIndices != nil {
		r.quadIndices.Release()
	}
	if r.refreshPipeline != nil {
		r.refreshPipeline.Release()
	}
	if r.spritePipeline != nil {
		r.spritePipeline.Release()
	}
	if r.layouts != nil {
		r.layouts.Release()
	}
}
