package renderer

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"spritecomp/pkg/coords"
)

// spriteNDC mirrors vs_main in spriteShader.
func spriteNDC(u SpriteUniforms, plane [2]float32) mgl32.Vec2 {
	pos := mgl32.Vec2{u.Position[0], u.Position[1]}
	dims := mgl32.Vec2{u.Dimensions[0], u.Dimensions[1]}
	center := mgl32.Vec2{u.RotationCenter[0], u.RotationCenter[1]}
	m := mgl32.Mat2(u.Rotation)

	pixel := pos.Add(mgl32.Vec2{plane[0] * dims[0], plane[1] * dims[1]})
	rotated := m.Mul2x1(pixel.Sub(center)).Add(center)
	return mgl32.Vec2{
		-1 + 2*rotated[0]/u.RenderTargetDimensions[0],
		1 - 2*rotated[1]/u.RenderTargetDimensions[1],
	}
}

// refreshNDC mirrors vs_main in windowRefreshShader.
func refreshNDC(plane [2]float32) mgl32.Vec2 {
	return mgl32.Vec2{plane[0]*2 - 1, 1 - plane[1]*2}
}

// signedArea is negative for clockwise triangles in a y-up plane.
func signedArea(a, b, c mgl32.Vec2) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
}

func assertClockwise(t *testing.T, ndc [4]mgl32.Vec2, msg string) {
	t.Helper()
	for i := 0; i < len(QuadIndices); i += 3 {
		a, b, c := ndc[QuadIndices[i]], ndc[QuadIndices[i+1]], ndc[QuadIndices[i+2]]
		assert.Less(t, signedArea(a, b, c), float32(0), "%s: triangle %d", msg, i/3)
	}
}

func TestVertex2DLayout(t *testing.T) {
	assert.Equal(t, uintptr(16), unsafe.Sizeof(Vertex2D{}))
	assert.Equal(t, uint64(16), vertex2DLayout.ArrayStride)
	assert.Equal(t, uint64(8), vertex2DLayout.Attributes[1].Offset)
}

func TestQuadVertices(t *testing.T) {
	uvs := coords.Area(10, 10, 20, 30).UVs(coords.Dims(100, 100))
	v := quadVertices(uvs)

	assert.Equal(t, [2]float32{0, 0}, v[0].PlaneCoords)
	assert.Equal(t, [2]float32{1, 0}, v[1].PlaneCoords)
	assert.Equal(t, [2]float32{0, 1}, v[2].PlaneCoords)
	assert.Equal(t, [2]float32{1, 1}, v[3].PlaneCoords)
	for i := range v {
		assert.Equal(t, [2]float32{uvs[i].U, uvs[i].V}, v[i].TexCoords)
	}
}

func TestWindowQuadIsClockwise(t *testing.T) {
	var ndc [4]mgl32.Vec2
	for i, p := range quadPlane {
		ndc[i] = refreshNDC(p)
	}
	assertClockwise(t, ndc, "window quad")
}

func TestSpriteQuadIsClockwise(t *testing.T) {
	for _, fraction := range []float32{0, 0.1, 0.25, 0.5, 0.8} {
		center := coords.Pt(12, 7)
		opts := At(3, 4).Scaled(20, 10).Rotated(RotationByFraction(fraction, &center))
		u := opts.resolve(coords.Dims(1, 1)).uniforms(coords.Dims(64, 48))

		var ndc [4]mgl32.Vec2
		for i, p := range quadPlane {
			ndc[i] = spriteNDC(u, p)
		}
		assertClockwise(t, ndc, "sprite quad")
	}
}

func TestSpriteQuadCorners(t *testing.T) {
	u := At(5, 5).resolve(coords.Dims(10, 10)).uniforms(coords.Dims(20, 20))

	assert.Equal(t, mgl32.Vec2{-0.5, 0.5}, spriteNDC(u, quadPlane[0]))
	assert.Equal(t, mgl32.Vec2{0.5, -0.5}, spriteNDC(u, quadPlane[3]))
}
