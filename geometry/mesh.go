package geometry

import (
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// The primitive assembly mode for a mesh.
type Mode uint8

const (
	Triangles Mode = iota
	Lines
	Points
)

// Mesh holds renderer-agnostic geometry data. Triangle and line meshes
// index into the vertex buffers; point meshes use the buffers directly.
type Mesh struct {
	Mode Mode

	Vertices  []types.Vec3
	Normals   []types.Vec3
	TexCoords []types.Vec2

	// Optional per-vertex colors (axes and point clouds).
	Colors []types.Vec4

	// Vertex indices, grouped in triples (Triangles) or pairs (Lines).
	Indices []uint32
}

// Get the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Get the number of assembled primitives in the mesh.
func (m *Mesh) PrimitiveCount() int {
	switch m.Mode {
	case Triangles:
		return len(m.Indices) / 3
	case Lines:
		return len(m.Indices) / 2
	default:
		return len(m.Vertices)
	}
}

// Image holds raw interleaved 8-bit pixel data. It is used both for
// texture uploads (3 channels, top-down rows) and for screenshot
// readbacks (top-down rows in the requested channel order).
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}
