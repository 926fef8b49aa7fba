package app

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spritecomp/internal/assetcache"
	"spritecomp/internal/config"
	"spritecomp/internal/gpu"
	"spritecomp/internal/imageio"
	"spritecomp/internal/renderer"
	"spritecomp/pkg/coords"
)

// FrameFunc draws one frame into the swap surface. dt is the time since the
// previous frame.
type FrameFunc func(r *renderer.Renderer, dt time.Duration) error

// App owns the window, the GPU backend and the renderer.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	window   *glfw.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	backend  *gpu.Backend

	renderer *renderer.Renderer
	assets   *assetcache.Cache
}

// glfwWindow adapts a glfw window to renderer.Window.
type glfwWindow struct {
	window  *glfw.Window
	surface *wgpu.Surface
}

func (w glfwWindow) Surface() *wgpu.Surface { return w.surface }

func (w glfwWindow) FramebufferSize() (int, int) { return w.window.GetFramebufferSize() }

// New opens the window described by cfg and builds a renderer for it.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "GLFW init failed")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(cfg.Window.Resizable))
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "window creation failed")
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		window: window,
	}

	if err := app.initWebGPU(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initRenderer(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.setupCallbacks()
	return app, nil
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (app *App) initWebGPU() error {
	opts := gpu.Options{
		Backend:         app.cfg.GPU.Backend,
		PowerPreference: app.cfg.GPU.PowerPreference,
		Label:           "SpriteCompDevice",
		Logger:          app.logger,
	}

	var err error
	app.instance, err = gpu.CreateInstance(opts)
	if err != nil {
		return err
	}

	app.surface, err = CreateSurface(app.instance, app.window)
	if err != nil {
		return err
	}

	opts.Instance = app.instance
	app.backend, err = gpu.Acquire(opts, app.surface)
	return err
}

func (app *App) initRenderer() error {
	opts := renderer.Options{PresentMode: app.cfg.GPU.PresentMode}

	if len(app.cfg.Assets.Dirs) > 0 {
		overlay, err := imageio.NewOverlay(app.cfg.Assets.Dirs...)
		if err != nil {
			return err
		}
		opts.Loader = imageio.NewLoader(overlay, app.cfg.Assets.TexturePath)
	}

	if app.cfg.Assets.CacheDir != "" {
		cache, err := assetcache.New(app.cfg.Assets.CacheDir, 4, app.logger)
		if err != nil {
			return errors.WithMessage(err, "texture cache creation failed")
		}
		app.assets = cache
		opts.Assets = cache
		cache.Prefetch(app.cfg.Assets.Prefetch...)
	}

	var err error
	app.renderer, err = renderer.New(app.backend, glfwWindow{window: app.window, surface: app.surface}, opts)
	if err != nil {
		return errors.WithMessage(err, "renderer creation failed")
	}
	return nil
}

func (app *App) setupCallbacks() {
	app.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		app.resize(width, height)
	})

	app.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press && key == glfw.KeyEscape {
			w.SetShouldClose(true)
		}
	})
}

func (app *App) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if err := app.renderer.Resize(coords.Dims(uint32(width), uint32(height))); err != nil {
		app.logger.Error("resize failed", "width", width, "height", height, "err", err)
		return
	}
	config.SetWindowSize(width, height)
	app.logger.Debug("window resized", "width", width, "height", height)
}

// Renderer returns the renderer drawing into the window.
func (app *App) Renderer() *renderer.Renderer {
	return app.renderer
}

// Run calls frame and presents until the window closes. Only device loss
// ends the loop early.
func (app *App) Run(frame FrameFunc) error {
	lastTime := time.Now()
	lastFrame := lastTime
	frames := 0

	for !app.window.ShouldClose() {
		glfw.PollEvents()
		if app.backend.Lost() {
			return errors.Wrap(renderer.ErrDeviceLost, "frame loop")
		}

		if w, h := app.window.GetFramebufferSize(); w == 0 || h == 0 {
			glfw.WaitEvents()
			continue
		}

		now := time.Now()
		if err := frame(app.renderer, now.Sub(lastFrame)); err != nil {
			if errors.Is(err, renderer.ErrDeviceLost) {
				return err
			}
			app.logger.Warn("frame failed", "err", err)
		}
		lastFrame = now

		if err := app.present(); err != nil {
			return err
		}

		frames++
		if time.Since(lastTime) >= time.Second {
			app.window.SetTitle(fmt.Sprintf("%s | FPS: %d", app.cfg.Window.Title, frames))
			frames = 0
			lastTime = time.Now()
		}
	}

	return nil
}

// present shows the frame, reconfiguring once when the window surface is
// lost.
func (app *App) present() error {
	err := app.renderer.Present()
	if errors.Is(err, renderer.ErrSurfaceLost) {
		w, h := app.window.GetFramebufferSize()
		app.logger.Info("window surface lost, reconfiguring", "width", w, "height", h)
		app.resize(w, h)
		err = app.renderer.Present()
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, renderer.ErrDeviceLost):
		app.logger.Error("gpu device lost", "err", err)
		return err
	default:
		app.logger.Warn("present failed", "err", err)
		return nil
	}
}

func (app *App) Cleanup() {
	if app.renderer != nil {
		app.renderer.Release()
	}
	if app.assets != nil {
		app.assets.Close()
	}
	if app.backend != nil {
		app.backend.Release()
	}
	if app.surface != nil {
		app.surface.Release()
	}
	if app.instance != nil {
		app.instance.Release()
	}
	if app.window != nil {
		app.window.Destroy()
	}
	glfw.Terminate()
}
