package app

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework QuartzCore -framework Metal

#import <Cocoa/Cocoa.h>
#import <QuartzCore/CAMetalLayer.h>
#import <Metal/Metal.h>

void* attachMetalLayer(void* nsWindow) {
    if (nsWindow == NULL) {
        return NULL;
    }

    NSWindow* window = (__bridge NSWindow*)nsWindow;
    NSView* view = [window contentView];
    if (view == nil) {
        return NULL;
    }

    [view setWantsLayer:YES];

    CAMetalLayer* layer = [CAMetalLayer layer];
    layer.device = MTLCreateSystemDefaultDevice();
    layer.pixelFormat = MTLPixelFormatBGRA8Unorm;
    layer.framebufferOnly = YES;
    layer.frame = view.bounds;
    layer.contentsScale = [window backingScaleFactor];

    [view setLayer:layer];
    return (__bridge void*)layer;
}
*/
import "C"

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// CreateSurface backs the window's content view with a Metal layer and
// wraps it as a WebGPU surface.
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) (*wgpu.Surface, error) {
	nsWindow := window.GetCocoaWindow()
	if nsWindow == nil {
		return nil, errors.New("GetCocoaWindow returned nil")
	}

	layer := C.attachMetalLayer(nsWindow)
	if layer == nil {
		return nil, errors.New("failed to attach Metal layer")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "WindowSurface",
		MetalLayer: &wgpu.SurfaceDescriptorFromMetalLayer{
			Layer: unsafe.Pointer(layer),
		},
	})
	if surface == nil {
		return nil, errors.New("surface creation failed")
	}
	return surface, nil
}
