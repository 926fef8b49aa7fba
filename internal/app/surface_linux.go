//go:build linux && !wayland

package app

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// CreateSurface wraps the window's X11 handle as a WebGPU surface.
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) (*wgpu.Surface, error) {
	display := glfw.GetX11Display()
	if display == nil {
		return nil, errors.New("no X11 display")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "WindowSurface",
		XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{
			Display: unsafe.Pointer(display),
			Window:  uint32(window.GetX11Window()),
		},
	})
	if surface == nil {
		return nil, errors.New("surface creation failed")
	}
	return surface, nil
}
