package renderer

import (
	"image"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// copyRowAlignment is the bytes-per-row alignment required for
// texture-to-buffer copies.
const copyRowAlignment = 256

func alignedBytesPerRow(width uint32) uint32 {
	row := 4 * width
	return (row + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
}

// ReadPixels copies the surface contents back to the CPU. It waits for the
// GPU to finish every submitted draw.
func (s *PixelSurface) ReadPixels() (*image.NRGBA, error) {
	if s.texture == nil {
		return nil, ErrReleased
	}
	r := s.r
	w, h := s.dimensions.Width, s.dimensions.Height
	bytesPerRow := alignedBytesPerRow(w)
	size := uint64(bytesPerRow) * uint64(h)

	buffer, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback_buffer",
		Size:  size,
		Usage: wgpu.BufferUsage_MapRead | wgpu.BufferUsage_CopyDst,
	})
	if err != nil {
		return nil, r.backendError(err, ErrUpload, "readback buffer creation")
	}
	defer buffer.Release()

	encoder, err := r.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, r.backendError(err, ErrDeviceLost, "command encoder creation")
	}
	defer encoder.Release()

	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: s.texture.texture, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspect_All},
		&wgpu.ImageCopyBuffer{
			Buffer: buffer,
			Layout: wgpu.TextureDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
		},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return nil, r.backendError(err, ErrUpload, "readback copy")
	}

	cmdBuffer, err := encoder.Finish(&wgpu.CommandBufferDescriptor{Label: "readback"})
	if err != nil {
		return nil, r.backendError(err, ErrUpload, "command buffer finish")
	}
	defer cmdBuffer.Release()
	r.queue.Submit(cmdBuffer)

	var (
		mapped bool
		status wgpu.BufferMapAsyncStatus
	)
	err = buffer.MapAsync(wgpu.MapMode_Read, 0, size, func(st wgpu.BufferMapAsyncStatus) {
		mapped = true
		status = st
	})
	if err != nil {
		return nil, r.backendError(err, ErrUpload, "readback map")
	}
	r.device.Poll(true, nil)
	if !mapped {
		return nil, errors.Wrap(ErrDeviceLost, "readback buffer never mapped")
	}
	if status != wgpu.BufferMapAsyncStatus_Success {
		return nil, errors.Errorf("readback buffer map failed with status %d", status)
	}
	defer buffer.Unmap()

	data := buffer.GetMappedRange(0, uint(size))
	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	for y := 0; y < int(h); y++ {
		src := data[y*int(bytesPerRow) : y*int(bytesPerRow)+int(4*w)]
		copy(img.Pix[y*img.Stride:], src)
	}

	// Everything submitted before the wait has retired.
	r.transients.drain()
	return img, nil
}
