package renderer

import (
	"github.com/pkg/errors"

	"spritecomp/internal/imageio"
)

// Error kinds returned by the renderer. Match them with errors.Is.
var (
	ErrDecode = imageio.ErrDecode
	ErrIO     = imageio.ErrIO

	ErrUpload            = errors.New("gpu upload failed")
	ErrAliasing          = errors.New("surface cannot be drawn into itself")
	ErrSurfaceLost       = errors.New("window surface needs reconfiguration")
	ErrDeviceLost        = errors.New("gpu device lost")
	ErrInvalidDimensions = errors.New("dimensions must be non-zero")
	ErrAreaOutOfBounds   = errors.New("sprite area outside texture bounds")
	ErrInvalidRotation   = errors.New("rotation matrix must preserve orientation")
	ErrNoWindow          = errors.New("renderer has no window")
	ErrReleased          = errors.New("resource already released")
)

// backendError wraps an error returned by wgpu in kind. wgpu reports errors
// as plain strings, so device loss is taken from the backend's lost flag and
// wins over kind.
func (r *Renderer) backendError(err error, kind error, op string) error {
	if r.deviceLost != nil && r.deviceLost() {
		return errors.Wrapf(ErrDeviceLost, "%s: %v", op, err)
	}
	return errors.Wrapf(kind, "%s: %v", op, err)
}
