package renderer

import (
	"unsafe"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spritecomp/pkg/coords"
)

// Vertex2D is one corner of a quad. PlaneCoords runs from (0,0) at the
// top-left to (1,1) at the bottom-right of the area being drawn.
type Vertex2D struct {
	PlaneCoords [2]float32
	TexCoords   [2]float32
}

// QuadIndices draws a quad as two clockwise triangles (top-left, top-right,
// bottom-left) and (top-right, bottom-right, bottom-left). Every quad uses it.
var QuadIndices = [6]uint16{0, 1, 2, 1, 3, 2}

// quadPlane holds the plane corners in corner order.
var quadPlane = [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// quadVertices pairs the unit plane corners with uvs.
func quadVertices(uvs [4]coords.TextureCoordinates) [4]Vertex2D {
	var v [4]Vertex2D
	for i := range v {
		v[i] = Vertex2D{
			PlaneCoords: quadPlane[i],
			TexCoords:   [2]float32{uvs[i].U, uvs[i].V},
		}
	}
	return v
}

var vertex2DLayout = wgpu.VertexBufferLayout{
	ArrayStride: uint64(unsafe.Sizeof(Vertex2D{})),
	StepMode:    wgpu.VertexStepMode_Vertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormat_Float32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormat_Float32x2, Offset: uint64(unsafe.Offsetof(Vertex2D{}.TexCoords)), ShaderLocation: 1},
	},
}
