package renderer

import (
	"github.com/pkg/errors"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// surfaceFormat is the format of every texture and pixel surface.
const surfaceFormat = wgpu.TextureFormat_RGBA8UnormSrgb

// alphaOver blends straight-alpha sources over the existing contents.
var alphaOver = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactor_SrcAlpha,
		DstFactor: wgpu.BlendFactor_OneMinusSrcAlpha,
		Operation: wgpu.BlendOperation_Add,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactor_One,
		DstFactor: wgpu.BlendFactor_OneMinusSrcAlpha,
		Operation: wgpu.BlendOperation_Add,
	},
}

var replace = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactor_One,
		DstFactor: wgpu.BlendFactor_Zero,
		Operation: wgpu.BlendOperation_Add,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactor_One,
		DstFactor: wgpu.BlendFactor_Zero,
		Operation: wgpu.BlendOperation_Add,
	},
}

// quadPrimitive keeps the clockwise triangles produced by QuadIndices.
var quadPrimitive = wgpu.PrimitiveState{
	Topology:  wgpu.PrimitiveTopology_TriangleList,
	FrontFace: wgpu.FrontFace_CW,
	CullMode:  wgpu.CullMode_Back,
}

type pipelineConfig struct {
	label   string
	shader  string
	layouts []*wgpu.BindGroupLayout
	format  wgpu.TextureFormat
	blend   wgpu.BlendState
}

func createPipeline(device *wgpu.Device, cfg pipelineConfig) (*wgpu.RenderPipeline, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          cfg.label + "_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cfg.shader},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s shader creation failed", cfg.label)
	}
	defer shader.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            cfg.label + "_pipeline_layout",
		BindGroupLayouts: cfg.layouts,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s pipeline layout creation failed", cfg.label)
	}
	defer pipelineLayout.Release()

	blend := cfg.blend
	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  cfg.label + "_pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertex2DLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    cfg.format,
				Blend:     &blend,
				WriteMask: wgpu.ColorWriteMask_All,
			}},
		},
		Primitive: quadPrimitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s pipeline creation failed", cfg.label)
	}

	Logger().Debug("created pipeline", "label", cfg.label, "format", cfg.format)
	return pipeline, nil
}

// createSpritePipeline builds the pipeline that composites sprites and
// subsurfaces into pixel surfaces.
func createSpritePipeline(device *wgpu.Device, l *bindGroupLayouts) (*wgpu.RenderPipeline, error) {
	return createPipeline(device, pipelineConfig{
		label:   "sprite",
		shader:  spriteShader,
		layouts: []*wgpu.BindGroupLayout{l.texture, l.spriteUniforms},
		format:  surfaceFormat,
		blend:   alphaOver,
	})
}

// createWindowRefreshPipeline builds the pipeline that copies the swap
// surface onto the window in the window's negotiated format.
func createWindowRefreshPipeline(device *wgpu.Device, l *bindGroupLayouts, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	return createPipeline(device, pipelineConfig{
		label:   "window_refresh",
		shader:  windowRefreshShader,
		layouts: []*wgpu.BindGroupLayout{l.texture},
		format:  format,
		blend:   replace,
	})
}
