// Package gpu acquires the WebGPU instance, adapter, device and queue the
// renderer draws with.
package gpu

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// Options selects the backend and adapter.
type Options struct {
	// Backend is one of "vulkan", "metal", "dx12", "gl". Empty means any.
	Backend string
	// PowerPreference is "high-performance", "low-power" or empty.
	PowerPreference string
	// Instance is used as is when set. Otherwise Acquire creates one and
	// the Backend owns it.
	Instance *wgpu.Instance
	Label    string
	Logger   *slog.Logger
}

// Backend bundles the handles shared by everything that draws.
type Backend struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue

	ownsInstance bool
	lost         atomic.Bool
}

var backends = map[string]wgpu.InstanceBackend{
	"vulkan": wgpu.InstanceBackend_Vulkan,
	"metal":  wgpu.InstanceBackend_Metal,
	"dx12":   wgpu.InstanceBackend_DX12,
	"gl":     wgpu.InstanceBackend_GL,
}

// ValidBackend reports whether name can be passed as Options.Backend.
func ValidBackend(name string) bool {
	if name == "" {
		return true
	}
	_, ok := backends[strings.ToLower(name)]
	return ok
}

// ValidPowerPreference reports whether name can be passed as
// Options.PowerPreference.
func ValidPowerPreference(name string) bool {
	switch strings.ToLower(name) {
	case "", "high-performance", "low-power":
		return true
	}
	return false
}

func powerPreference(name string) wgpu.PowerPreference {
	switch strings.ToLower(name) {
	case "high-performance":
		return wgpu.PowerPreference_HighPerformance
	case "low-power":
		return wgpu.PowerPreference_LowPower
	}
	var undefined wgpu.PowerPreference
	return undefined
}

// CreateInstance creates an instance restricted to the configured backend.
// Windowed callers need it before Acquire to build their surface.
func CreateInstance(opts Options) (*wgpu.Instance, error) {
	var desc *wgpu.InstanceDescriptor
	if opts.Backend != "" {
		b, ok := backends[strings.ToLower(opts.Backend)]
		if !ok {
			return nil, errors.Errorf("unknown gpu backend %q", opts.Backend)
		}
		desc = &wgpu.InstanceDescriptor{Backends: b}
	}

	instance := wgpu.CreateInstance(desc)
	if instance == nil {
		return nil, errors.New("failed to create WebGPU instance")
	}
	return instance, nil
}

// Acquire requests an adapter, preferring one compatible with surface, and
// opens a device on it. surface may be nil for offscreen work.
func Acquire(opts Options, surface *wgpu.Surface) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	b := &Backend{Instance: opts.Instance}
	if b.Instance == nil {
		instance, err := CreateInstance(opts)
		if err != nil {
			return nil, err
		}
		b.Instance = instance
		b.ownsInstance = true
	}

	pref := powerPreference(opts.PowerPreference)
	adapter, err := b.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   pref,
	})
	if err != nil && surface != nil {
		logger.Debug("retrying adapter request without surface constraint", "err", err)
		adapter, err = b.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: pref,
		})
	}
	if err != nil {
		b.Release()
		return nil, errors.Wrap(err, "adapter request failed")
	}
	b.Adapter = adapter

	props := adapter.GetProperties()
	logger.Info("gpu adapter", "name", props.Name, "driver", props.DriverDescription)

	label := opts.Label
	if label == "" {
		label = "spritecomp_device"
	}
	b.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:              label,
		DeviceLostCallback: func(reason wgpu.DeviceLostReason, message string) {
			b.lost.Store(true)
			if reason == wgpu.DeviceLostReason_Destroyed {
				logger.Debug("gpu device destroyed", "message", message)
				return
			}
			logger.Error("gpu device lost", "reason", reason.String(), "message", message)
		},
	})
	if err != nil {
		b.Release()
		return nil, errors.Wrap(err, "device request failed")
	}

	b.Queue = b.Device.GetQueue()
	return b, nil
}

// Lost reports whether the device has been lost. A lost device never
// recovers; release the backend and acquire a new one.
func (b *Backend) Lost() bool {
	return b.lost.Load()
}

// MaxTextureDimension2D is the largest width or height the device accepts
// for a 2D texture.
func (b *Backend) MaxTextureDimension2D() uint32 {
	return b.Device.GetLimits().Limits.MaxTextureDimension2D
}

// Release frees the handles in reverse acquisition order. An instance passed
// in through Options is left to its owner.
func (b *Backend) Release() {
	if b.Queue != nil {
		b.Queue.Release()
		b.Queue = nil
	}
	if b.Device != nil {
		b.Device.Release()
		b.Device = nil
	}
	if b.Adapter != nil {
		b.Adapter.Release()
		b.Adapter = nil
	}
	if b.Instance != nil && b.ownsInstance {
		b.Instance.Release()
	}
	b.Instance = nil
}
