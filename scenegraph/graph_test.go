package scenegraph

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

func TestCreateRemoveGroup(t *testing.T) {
	graph := NewGraph(1)

	if _, err := graph.CreateGroup("a/b/c", true, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := graph.Group("a/b/c"); err != nil {
		t.Fatal(err)
	}

	if err := graph.RemoveGroup("a/b/c"); err != nil {
		t.Fatal(err)
	}
	if _, err := graph.Group("a/b/c"); err == nil {
		t.Fatal("expected the group to be gone after removal")
	}

	// Unregistered intermediate segments are pruned with the leaf.
	count := 0
	graph.Walk(func(node *Node, world types.Mat4) { count++ })
	if count != 0 || len(graph.GroupPaths()) != 0 {
		t.Fatal("expected an empty graph after removal")
	}
}

func TestCreateGroupIdempotent(t *testing.T) {
	graph := NewGraph(1)

	if _, err := graph.CreateGroup("a/b", true, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := graph.CreateGroup("a/b", true, 1); err != nil {
		t.Fatal(err)
	}
	if paths := graph.GroupPaths(); len(paths) != 1 || paths[0] != "a/b" {
		t.Fatalf("expected a single group at a/b; got %v", paths)
	}

	_, err := graph.CreateGroup("a/b", false, 1)
	var dup *DuplicateGroupError
	if !errors.As(err, &dup) || dup.Path != "a/b" {
		t.Fatalf("expected DuplicateGroupError for a/b; got %v", err)
	}
}

func TestRemoveGroupRecursive(t *testing.T) {
	graph := NewGraph(1)

	group, _ := graph.CreateGroup("robot", true, 1)
	group.AttachNode("base", geometry.MakeBox())
	if _, err := graph.CreateGroup("robot/arm", true, 1); err != nil {
		t.Fatal(err)
	}

	if err := graph.RemoveGroup("robot"); err != nil {
		t.Fatal(err)
	}
	if _, err := graph.Group("robot/arm"); err == nil {
		t.Fatal("expected nested registered groups to be dropped with the subtree")
	}

	err := graph.RemoveGroup("robot")
	var unknown *UnknownGroupError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownGroupError; got %v", err)
	}
}

func TestReplaceKeepsSiblings(t *testing.T) {
	graph := NewGraph(1)

	graph.CreateGroup("a/b", true, 1)
	graph.CreateGroup("a/c", true, 1)
	if _, err := graph.CreateGroup("a/b", true, 1); err != nil {
		t.Fatal(err)
	}

	if _, err := graph.Group("a/c"); err != nil {
		t.Fatal("expected sibling group to survive replacement")
	}
}

func TestApplyPosesRoundTrip(t *testing.T) {
	graph := NewGraph(1)
	group, _ := graph.CreateGroup("g", true, 1)
	group.AttachNode("n", geometry.MakeBox())

	pos := types.XYZ(1, 2, 3)
	quat := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), math32.Pi/4)

	err := graph.ApplyPoses("g", map[string]Pose{"n": PoseAt(pos, quat)})
	if err != nil {
		t.Fatal(err)
	}

	node := group.Node("n")
	if node.Pos().Sub(pos).Len() > 1e-5 {
		t.Fatalf("expected position %v; got %v", pos, node.Pos())
	}
	if d := node.Quat().V.Dot(quat.V) + node.Quat().W*quat.W; d < 1-1e-5 {
		t.Fatalf("expected orientation %v; got %v", quat, node.Quat())
	}
}

func TestApplyPosesFromMatrix(t *testing.T) {
	graph := NewGraph(1)
	group, _ := graph.CreateGroup("g", true, 1)
	group.AttachNode("n", geometry.MakeBox())

	pos := types.XYZ(-1, 0.5, 2)
	quat := types.QuatFromAxisAngle(types.XYZ(1, 0, 0), 1.1)
	mat := types.Translate4(pos).Mul4(quat.Mat4())

	err := graph.ApplyPoses("g", map[string]Pose{"n": PoseFromMat4(mat)})
	if err != nil {
		t.Fatal(err)
	}

	node := group.Node("n")
	if node.Pos().Sub(pos).Len() > 1e-4 {
		t.Fatalf("expected position %v; got %v", pos, node.Pos())
	}
	d := node.Quat().V.Dot(quat.V) + node.Quat().W*quat.W
	if d < 0 {
		d = -d
	}
	if d < 1-1e-4 {
		t.Fatalf("expected orientation %v; got %v", quat, node.Quat())
	}
}

func TestApplyPosesBestEffort(t *testing.T) {
	graph := NewGraph(1)
	group, _ := graph.CreateGroup("g", true, 1)
	group.AttachNode("n", geometry.MakeBox())

	// Unknown node names are ignored, unknown groups are not.
	err := graph.ApplyPoses("g", map[string]Pose{"missing": PoseAt(types.XYZ(1, 1, 1), types.QuatIdent())})
	if err != nil {
		t.Fatal(err)
	}
	if group.Node("n").Pos() != (types.Vec3{}) {
		t.Fatal("expected untouched node pose")
	}

	err = graph.ApplyPoses("missing-group", map[string]Pose{})
	var unknown *UnknownGroupError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownGroupError; got %v", err)
	}
}

func TestAttachNodeReplacesDuplicate(t *testing.T) {
	graph := NewGraph(1)
	group, _ := graph.CreateGroup("g", true, 1)

	group.AttachNode("n", geometry.MakeBox())
	group.AttachNode("n", geometry.MakeSphere())

	if len(group.Nodes()) != 1 {
		t.Fatalf("expected a single node named n; got %d nodes", len(group.Nodes()))
	}
}

func TestNegativeScaleCullOrder(t *testing.T) {
	node := newNode("n", geometry.MakeBox())

	node.SetScale(types.XYZ(-1, 1, 1))
	if !node.ReverseCull() {
		t.Fatal("expected one negated axis to reverse the cull order")
	}

	node.SetScale(types.XYZ(-1, -1, 1))
	if node.ReverseCull() {
		t.Fatal("expected two negated axes to keep the cull order")
	}

	node.SetScale(types.XYZ(-1, -1, -1))
	if !node.ReverseCull() {
		t.Fatal("expected three negated axes to reverse the cull order")
	}
}

func TestApplyFrameComposes(t *testing.T) {
	node := newNode("n", nil)

	q1 := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), math32.Pi/2)
	node.SetPose(PoseAt(types.XYZ(1, 0, 0), q1))

	q2 := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), math32.Pi/2)
	node.ApplyFrame(PoseAt(types.XYZ(0, 1, 0), q2))

	if node.Pos().Sub(types.XYZ(1, 1, 0)).Len() > 1e-5 {
		t.Fatalf("expected composed position (1,1,0); got %v", node.Pos())
	}

	// Two quarter turns compose into a half turn.
	exp := types.QuatFromAxisAngle(types.XYZ(0, 0, 1), math32.Pi)
	d := node.Quat().V.Dot(exp.V) + node.Quat().W*exp.W
	if d < 0 {
		d = -d
	}
	if d < 1-1e-5 {
		t.Fatalf("expected a half turn; got %v", node.Quat())
	}
}

func TestUpdatePoints(t *testing.T) {
	node := newNode("cloud", nil)

	verts := []types.Vec3{{0, 0, 0}, {1, 0, 0}}
	if err := node.UpdatePoints(verts, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	mesh := node.Mesh()
	if mesh == nil || mesh.Mode != geometry.Points {
		t.Fatal("expected a point mesh to be created on first update")
	}

	// In-place update must keep the mesh identity.
	verts2 := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	colors2 := []types.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}
	if err := node.UpdatePoints(verts2, colors2, nil, nil); err != nil {
		t.Fatal(err)
	}
	if node.Mesh() != mesh {
		t.Fatal("expected the mesh identity to be preserved across updates")
	}
	if mesh.VertexCount() != 3 {
		t.Fatalf("expected 3 vertices after update; got %d", mesh.VertexCount())
	}

	// Buffer length disagreement is a shape mismatch.
	err := node.UpdatePoints(verts2, []types.Vec4{{1, 1, 1, 1}}, nil, nil)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch; got %v", err)
	}
}

func TestWalkVisibility(t *testing.T) {
	graph := NewGraph(2)

	group, _ := graph.CreateGroup("a/b", true, 1)
	group.AttachNode("n", geometry.MakeBox())

	visited := 0
	var world types.Mat4
	graph.Walk(func(node *Node, w types.Mat4) { visited++; world = w })
	if visited != 1 {
		t.Fatalf("expected 1 visited node; got %d", visited)
	}
	if world.At(0, 0) != 2 {
		t.Fatalf("expected the graph scale in the world transform; got %v", world.At(0, 0))
	}

	graph.SetGroupVisible("a/b", false)
	visited = 0
	graph.Walk(func(node *Node, w types.Mat4) { visited++ })
	if visited != 0 {
		t.Fatal("expected hidden groups to be skipped")
	}
}

func TestInvalidPath(t *testing.T) {
	graph := NewGraph(1)
	for _, path := range []string{"", "a//b", "/a", "a/"} {
		if _, err := graph.CreateGroup(path, true, 1); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("expected ErrInvalidPath for %q; got %v", path, err)
		}
	}
}
