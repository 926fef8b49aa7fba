//go:build !darwin && !(linux && !wayland)

package app

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// CreateSurface is only implemented for macOS and X11.
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) (*wgpu.Surface, error) {
	return nil, errors.Errorf("window surfaces are not supported on %s", runtime.GOOS)
}
