package renderer

// spriteShader composites a textured quad into a pixel surface. The quad is
// placed and sized in the target's pixel space, rotated about
// rotation_center, then mapped to the render plane.
const spriteShader = `
struct SpriteUniforms {
    render_target_dimensions: vec2<f32>,
    position: vec2<f32>,
    dimensions: vec2<f32>,
    rotation_center: vec2<f32>,
    // Column-major 2x2 matrix packed as (c0.x, c0.y, c1.x, c1.y).
    rotation: vec4<f32>,
}

@group(0) @binding(0) var source_texture: texture_2d<f32>;
@group(0) @binding(1) var source_sampler: sampler;
@group(1) @binding(0) var<uniform> sprite: SpriteUniforms;

struct VertexInput {
    @location(0) plane: vec2<f32>,
    @location(1) tex_coords: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    let pixel = sprite.position + in.plane * sprite.dimensions;
    let rotation = mat2x2<f32>(sprite.rotation.xy, sprite.rotation.zw);
    let rotated = rotation * (pixel - sprite.rotation_center) + sprite.rotation_center;
    let target_size = sprite.render_target_dimensions;

    var out: VertexOutput;
    out.position = vec4<f32>(
        -1.0 + 2.0 * rotated.x / target_size.x,
        1.0 - 2.0 * rotated.y / target_size.y,
        0.0,
        1.0,
    );
    out.tex_coords = in.tex_coords;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(source_texture, source_sampler, in.tex_coords);
}
`

// windowRefreshShader stretches a texture over the whole render plane.
const windowRefreshShader = `
@group(0) @binding(0) var frame_texture: texture_2d<f32>;
@group(0) @binding(1) var frame_sampler: sampler;

struct VertexInput {
    @location(0) plane: vec2<f32>,
    @location(1) tex_coords: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.plane.x * 2.0 - 1.0, 1.0 - in.plane.y * 2.0, 0.0, 1.0);
    out.tex_coords = in.tex_coords;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(frame_texture, frame_sampler, in.tex_coords);
}
`
