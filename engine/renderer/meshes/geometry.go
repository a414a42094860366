// Package meshes holds the primitive meshes drawn by the sandbox. Each
// mesh owns its vertex array and buffers and borrows a shader program.
package meshes

import (
	"math"

	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

// SphereSegments is the number of segments around and along the sphere.
const SphereSegments = 64

// Geometry is device independent mesh data.
type Geometry struct {
	Vertices []float32
	Indices  []uint32
	Layout   *renderer.BufferLayout
	Mode     renderer.PrimitiveMode
}

// VertexCount is the number of whole vertices in Vertices.
func (g Geometry) VertexCount() int {
	return len(g.Vertices) / g.Layout.FloatsPerVertex()
}

var (
	positionUVLayout = renderer.MustBufferLayout(
		renderer.NewBufferElement(renderer.Float3, "aPosition"),
		renderer.NewBufferElement(renderer.Float2, "aTexCoords"),
	)
	positionNormalUVLayout = renderer.MustBufferLayout(
		renderer.NewBufferElement(renderer.Float3, "aPosition"),
		renderer.NewBufferElement(renderer.Float3, "aNormal"),
		renderer.NewBufferElement(renderer.Float2, "aTexCoords"),
	)
	positionLayout = renderer.MustBufferLayout(
		renderer.NewBufferElement(renderer.Float3, "aPosition"),
	)
)

// faceIndices are the two triangles of each of the six faces of a 24
// vertex box.
var faceIndices = []uint32{
	0, 3, 1, 3, 2, 1,
	4, 5, 7, 7, 5, 6,
	8, 9, 11, 11, 9, 10,
	12, 15, 13, 15, 14, 13,
	16, 17, 19, 19, 17, 18,
	20, 23, 21, 23, 22, 21,
}

// QuadGeometry is a full screen quad in normalized device coordinates.
func QuadGeometry() Geometry {
	return Geometry{
		Vertices: []float32{
			-1, -1, 0, 0, 0,
			1, -1, 0, 1, 0,
			1, 1, 0, 1, 1,
			-1, 1, 0, 0, 1,
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
		Layout:  positionUVLayout,
		Mode:    renderer.Triangles,
	}
}

// CubeGeometry is a unit cube centered on the origin with per face normals.
func CubeGeometry() Geometry {
	return Geometry{
		Vertices: []float32{
			-0.5, -0.5, -0.5, 0, 0, -1, 0, 0,
			0.5, -0.5, -0.5, 0, 0, -1, 1, 0,
			0.5, 0.5, -0.5, 0, 0, -1, 1, 1,
			-0.5, 0.5, -0.5, 0, 0, -1, 0, 1,

			-0.5, -0.5, 0.5, 0, 0, 1, 0, 0,
			0.5, -0.5, 0.5, 0, 0, 1, 1, 0,
			0.5, 0.5, 0.5, 0, 0, 1, 1, 1,
			-0.5, 0.5, 0.5, 0, 0, 1, 0, 1,

			-0.5, 0.5, -0.5, -1, 0, 0, 0, 0,
			-0.5, -0.5, -0.5, -1, 0, 0, 1, 0,
			-0.5, -0.5, 0.5, -1, 0, 0, 1, 1,
			-0.5, 0.5, 0.5, -1, 0, 0, 0, 1,

			0.5, 0.5, 0.5, 1, 0, 0, 0, 0,
			0.5, 0.5, -0.5, 1, 0, 0, 1, 0,
			0.5, -0.5, -0.5, 1, 0, 0, 1, 1,
			0.5, -0.5, 0.5, 1, 0, 0, 0, 1,

			-0.5, -0.5, -0.5, 0, -1, 0, 0, 0,
			0.5, -0.5, -0.5, 0, -1, 0, 1, 0,
			0.5, -0.5, 0.5, 0, -1, 0, 1, 1,
			-0.5, -0.5, 0.5, 0, -1, 0, 0, 1,

			0.5, 0.5, -0.5, 0, 1, 0, 0, 0,
			0.5, 0.5, 0.5, 0, 1, 0, 1, 0,
			-0.5, 0.5, 0.5, 0, 1, 0, 1, 1,
			-0.5, 0.5, -0.5, 0, 1, 0, 0, 1,
		},
		Indices: append([]uint32(nil), faceIndices...),
		Layout:  positionNormalUVLayout,
		Mode:    renderer.Triangles,
	}
}

// SkyboxGeometry is a cube of half extent 1 with positions only; the
// position doubles as the cubemap lookup direction.
func SkyboxGeometry() Geometry {
	return Geometry{
		Vertices: []float32{
			-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
			-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
			-1, 1, -1, -1, -1, -1, -1, -1, 1, -1, 1, 1,
			1, 1, 1, 1, 1, -1, 1, -1, -1, 1, -1, 1,
			-1, -1, -1, 1, -1, -1, 1, -1, 1, -1, -1, 1,
			1, 1, -1, 1, 1, 1, -1, 1, 1, -1, 1, -1,
		},
		Indices: append([]uint32(nil), faceIndices...),
		Layout:  positionLayout,
		Mode:    renderer.Triangles,
	}
}

// SphereGeometry is a UV sphere of radius 1 with (n+1)² vertices, drawn as
// a single triangle strip that zig-zags between adjacent rings.
func SphereGeometry(n int) Geometry {
	vertices := make([]float32, 0, (n+1)*(n+1)*8)
	for x := 0; x <= n; x++ {
		for y := 0; y <= n; y++ {
			xSegment := float64(x) / float64(n)
			ySegment := float64(y) / float64(n)
			px := math.Cos(xSegment*2*math.Pi) * math.Sin(ySegment*math.Pi)
			py := math.Cos(ySegment * math.Pi)
			pz := math.Sin(xSegment*2*math.Pi) * math.Sin(ySegment*math.Pi)

			// position, normal, uv
			vertices = append(vertices,
				float32(px), float32(py), float32(pz),
				float32(px), float32(py), float32(pz),
				float32(xSegment), float32(ySegment),
			)
		}
	}

	row := uint32(n + 1)
	indices := make([]uint32, 0, n*(n+1)*2)
	oddRow := false
	for y := uint32(0); y < uint32(n); y++ {
		if !oddRow {
			for x := uint32(0); x <= uint32(n); x++ {
				indices = append(indices, y*row+x, (y+1)*row+x)
			}
		} else {
			for x := int64(n); x >= 0; x-- {
				indices = append(indices, (y+1)*row+uint32(x), y*row+uint32(x))
			}
		}
		oddRow = !oddRow
	}

	return Geometry{
		Vertices: vertices,
		Indices:  indices,
		Layout:   positionNormalUVLayout,
		Mode:     renderer.TriangleStrip,
	}
}
