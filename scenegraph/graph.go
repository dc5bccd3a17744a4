package scenegraph

import (
	"sort"
	"strings"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Group is a named subtree root: the unit of bulk show/hide, removal
// and pose updates. Groups form a tree along their slash-delimited
// paths; intermediate path segments are plain transform groups until a
// CreateGroup call registers them.
type Group struct {
	path string
	name string

	parent    *Group
	subgroups []*Group
	nodes     []*Node

	visible    bool
	scale      float32
	registered bool
}

// Get the full slash-delimited group path.
func (g *Group) Path() string {
	return g.path
}

// Get the group visibility flag.
func (g *Group) Visible() bool {
	return g.visible
}

// Turn group rendering on or off.
func (g *Group) SetVisible(visible bool) {
	g.visible = visible
}

// Get the group scale factor.
func (g *Group) Scale() float32 {
	return g.scale
}

// Get the ordered direct child nodes.
func (g *Group) Nodes() []*Node {
	return g.nodes
}

// Find a direct child node by name. Returns nil when absent.
func (g *Group) Node(name string) *Node {
	for _, node := range g.nodes {
		if node.name == name {
			return node
		}
	}
	return nil
}

// Attach a new node with the given mesh to the group. An existing node
// with the same name is replaced so that node names stay unique within
// the group.
func (g *Group) AttachNode(name string, mesh *geometry.Mesh) *Node {
	node := newNode(name, mesh)
	for i, existing := range g.nodes {
		if existing.name == name {
			g.nodes[i] = node
			return node
		}
	}
	g.nodes = append(g.nodes, node)
	return node
}

// Remove a direct child node by name.
func (g *Group) RemoveNode(name string) {
	for i, node := range g.nodes {
		if node.name == name {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			return
		}
	}
}

func (g *Group) subgroup(name string) *Group {
	for _, sub := range g.subgroups {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// Graph owns the scene group registry: a tree of groups keyed by
// slash-delimited paths, each holding an ordered set of nodes.
type Graph struct {
	scale  float32
	roots  []*Group
	groups map[string]*Group
}

// Create an empty scene graph. The scale factor is applied globally to
// every root group.
func NewGraph(scale float32) *Graph {
	if scale <= 0 {
		scale = 1
	}
	return &Graph{
		scale:  scale,
		groups: make(map[string]*Group),
	}
}

// Create (and register) a group at the given path, attaching
// intermediate transform groups along the chain when absent. When the
// path is already registered the existing group is either atomically
// replaced (removeIfExists) or a DuplicateGroupError is returned.
func (g *Graph) CreateGroup(path string, removeIfExists bool, scale float32) (*Group, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	if _, exists := g.groups[path]; exists {
		if !removeIfExists {
			return nil, &DuplicateGroupError{Path: path}
		}
		g.RemoveGroup(path)
	}

	var parent *Group
	var prefix string
	for _, name := range segments {
		if prefix == "" {
			prefix = name
		} else {
			prefix = prefix + "/" + name
		}

		var group *Group
		if parent == nil {
			for _, root := range g.roots {
				if root.name == name {
					group = root
					break
				}
			}
		} else {
			group = parent.subgroup(name)
		}

		if group == nil {
			group = &Group{
				path:    prefix,
				name:    name,
				parent:  parent,
				visible: true,
				scale:   1,
			}
			if parent == nil {
				g.roots = append(g.roots, group)
			} else {
				parent.subgroups = append(parent.subgroups, group)
			}
		}
		parent = group
	}

	if scale <= 0 {
		scale = 1
	}
	parent.registered = true
	parent.visible = true
	parent.scale = scale
	g.groups[path] = parent
	return parent, nil
}

// Find a registered group by path.
func (g *Graph) Group(path string) (*Group, error) {
	group, exists := g.groups[path]
	if !exists {
		return nil, &UnknownGroupError{Path: path}
	}
	return group, nil
}

// Remove a group: detach its subtree and drop every registered group
// under the path prefix from the registry.
func (g *Graph) RemoveGroup(path string) error {
	group, exists := g.groups[path]
	if !exists {
		return &UnknownGroupError{Path: path}
	}

	g.unregisterSubtree(group)
	g.detach(group)
	return nil
}

// Turn group rendering on or off.
func (g *Graph) SetGroupVisible(path string, visible bool) error {
	group, err := g.Group(path)
	if err != nil {
		return err
	}
	group.SetVisible(visible)
	return nil
}

// Apply a pose update batch to the direct children of a group. Names
// absent from the group and nodes absent from the batch are both
// silently ignored.
func (g *Graph) ApplyPoses(path string, poses map[string]Pose) error {
	group, err := g.Group(path)
	if err != nil {
		return err
	}

	for _, node := range group.nodes {
		if pose, exists := poses[node.name]; exists {
			node.SetPose(pose)
		}
	}
	return nil
}

// Get the sorted paths of all registered groups.
func (g *Graph) GroupPaths() []string {
	paths := make([]string, 0, len(g.groups))
	for path := range g.groups {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Visit every node of every visible group in attach order, passing the
// accumulated world transform of the node's group. A group hidden
// anywhere along the chain hides its whole subtree.
func (g *Graph) Walk(visit func(node *Node, world types.Mat4)) {
	world := types.Scale4(types.XYZ(g.scale, g.scale, g.scale))
	for _, root := range g.roots {
		g.walkGroup(root, world, visit)
	}
}

func (g *Graph) walkGroup(group *Group, parentWorld types.Mat4, visit func(node *Node, world types.Mat4)) {
	if !group.visible {
		return
	}

	world := parentWorld
	if group.scale != 1 {
		world = world.Mul4(types.Scale4(types.XYZ(group.scale, group.scale, group.scale)))
	}

	for _, node := range group.nodes {
		visit(node, world)
	}
	for _, sub := range group.subgroups {
		g.walkGroup(sub, world, visit)
	}
}

func (g *Graph) unregisterSubtree(group *Group) {
	if group.registered {
		delete(g.groups, group.path)
		group.registered = false
	}
	for _, sub := range group.subgroups {
		g.unregisterSubtree(sub)
	}
}

// Detach a group from its parent, pruning unregistered ancestors that
// are left without children or nodes.
func (g *Graph) detach(group *Group) {
	group.nodes = nil
	group.subgroups = nil

	parent := group.parent
	if parent == nil {
		for i, root := range g.roots {
			if root == group {
				g.roots = append(g.roots[:i], g.roots[i+1:]...)
				break
			}
		}
		return
	}

	for i, sub := range parent.subgroups {
		if sub == group {
			parent.subgroups = append(parent.subgroups[:i], parent.subgroups[i+1:]...)
			break
		}
	}
	if !parent.registered && len(parent.subgroups) == 0 && len(parent.nodes) == 0 {
		g.detach(parent)
	}
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	segments := strings.Split(path, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, ErrInvalidPath
		}
	}
	return segments, nil
}
