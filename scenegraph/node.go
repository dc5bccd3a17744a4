package scenegraph

import (
	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Material overrides the appearance of a single node.
type Material struct {
	// RGBA color; alpha below 1 enables alpha-blended transparency.
	Color    types.Vec4
	HasColor bool

	// Surface roughness used by the lighting model.
	Roughness float32

	// Optional texture map, wrap-clamped on upload.
	Texture     *geometry.Image
	TexturePath string
}

// Returns true when the material requires alpha blending.
func (m *Material) Transparent() bool {
	return m.HasColor && m.Color[3] < 1
}

// Node is a single renderable or transform-only entity within a group.
// The shape is immutable after creation except for point cloud buffers
// which support in-place replacement.
type Node struct {
	name string

	pos   types.Vec3
	quat  types.Quat
	scale types.Vec3

	// Odd number of negative scale axes inverts handedness, which
	// requires reversing the triangle cull order.
	reverseCull bool

	mesh     *geometry.Mesh
	material Material
}

func newNode(name string, mesh *geometry.Mesh) *Node {
	return &Node{
		name:  name,
		quat:  types.QuatIdent(),
		scale: types.XYZ(1, 1, 1),
		mesh:  mesh,
	}
}

// Get the node name, unique within its parent group.
func (n *Node) Name() string {
	return n.name
}

// Get the node mesh. Nil for transform-only nodes.
func (n *Node) Mesh() *geometry.Mesh {
	return n.mesh
}

// Get the node material override.
func (n *Node) Material() *Material {
	return &n.material
}

// Get the node position.
func (n *Node) Pos() types.Vec3 {
	return n.pos
}

// Get the node orientation.
func (n *Node) Quat() types.Quat {
	return n.quat
}

// Get the node scale.
func (n *Node) Scale() types.Vec3 {
	return n.scale
}

// Returns true when the triangle cull order must be reversed for this
// node due to a handedness-inverting scale.
func (n *Node) ReverseCull() bool {
	return n.reverseCull
}

// Set the node local pose.
func (n *Node) SetPose(pose Pose) {
	n.pos, n.quat = pose.posQuat()
}

// Set the node per-axis scale.
func (n *Node) SetScale(scale types.Vec3) {
	n.scale = scale

	negAxes := 0
	for _, s := range scale {
		if s < 0 {
			negAxes++
		}
	}
	n.reverseCull = negAxes%2 != 0
}

// Compose an attach frame into the node's current local transform. The
// frame orientation is multiplied into the current orientation rather
// than replacing it.
func (n *Node) ApplyFrame(frame Pose) {
	pos, quat := frame.posQuat()
	n.pos = n.pos.Add(pos)
	n.quat = quat.Mul(n.quat).Normalize()
}

// Set the material override color.
func (n *Node) SetColor(color types.Vec4) {
	n.material.Color = color
	n.material.HasColor = true
	if n.material.Roughness == 0 {
		n.material.Roughness = 0.4
	}
}

// Swap the material texture map, leaving the color untouched.
func (n *Node) SetTexture(texture *geometry.Image, path string) {
	n.material.Texture = texture
	n.material.TexturePath = path
}

// Get the node local transform matrix.
func (n *Node) Transform() types.Mat4 {
	return types.Translate4(n.pos).Mul4(n.quat.Mat4()).Mul4(types.Scale4(n.scale))
}

// Replace the point cloud buffers in place. On the first update the
// node geometry is created; afterwards the buffers are swapped without
// touching the node identity. Color and texture coordinate buffers must
// match the vertex count when present.
func (n *Node) UpdatePoints(vertices []types.Vec3, colors []types.Vec4, texCoords []types.Vec2, texture *geometry.Image) error {
	if colors != nil && len(colors) != len(vertices) {
		return ErrShapeMismatch
	}
	if texCoords != nil && len(texCoords) != len(vertices) {
		return ErrShapeMismatch
	}

	if n.mesh == nil || n.mesh.Mode != geometry.Points {
		n.mesh = geometry.MakePoints(vertices, colors, texCoords)
	} else {
		n.mesh.Vertices = vertices
		n.mesh.Colors = colors
		n.mesh.TexCoords = texCoords
	}

	if texture != nil {
		n.material.Texture = texture
	}
	return nil
}
