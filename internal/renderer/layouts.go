package renderer

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// bindGroupLayouts are the two fixed binding contracts shared by both
// pipelines.
type bindGroupLayouts struct {
	// texture: binding 0 = sampled 2D texture, binding 1 = sampler.
	texture *wgpu.BindGroupLayout
	// spriteUniforms: binding 0 = SpriteUniforms.
	spriteUniforms *wgpu.BindGroupLayout
}

func createBindGroupLayouts(device *wgpu.Device) (*bindGroupLayouts, error) {
	texture, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "texture_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStage_Fragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleType_Float,
					ViewDimension: wgpu.TextureViewDimension_2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStage_Fragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingType_NonFiltering},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "texture bind group layout creation failed")
	}

	uniforms, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "sprite_uniforms_bind_group_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStage_Vertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingType_Uniform,
					MinBindingSize: uint64(unsafe.Sizeof(SpriteUniforms{})),
				},
			},
		},
	})
	if err != nil {
		texture.Release()
		return nil, errors.Wrap(err, "sprite uniforms bind group layout creation failed")
	}

	return &bindGroupLayouts{texture: texture, spriteUniforms: uniforms}, nil
}

func (l *bindGroupLayouts) Release() {
	if l.texture != nil {
		l.texture.Release()
	}
	if l.spriteUniforms != nil {
		l.spriteUniforms.Release()
	}
}
