package geometry

import (
	"testing"

	"github.com/ikalevatykh/panda3d-viewer/types"
)

func TestMakeAxes(t *testing.T) {
	mesh := MakeAxes()
	if mesh.Mode != Lines {
		t.Fatal("expected a line mesh")
	}
	if mesh.VertexCount() != 6 || len(mesh.Colors) != 6 {
		t.Fatalf("expected 6 colored vertices; got %d/%d", mesh.VertexCount(), len(mesh.Colors))
	}
	if mesh.PrimitiveCount() != 3 {
		t.Fatalf("expected 3 axis segments; got %d", mesh.PrimitiveCount())
	}
}

func TestMakeGrid(t *testing.T) {
	mesh := MakeGrid(10, 1.0)
	if mesh.Mode != Lines {
		t.Fatal("expected a line mesh")
	}
	if exp := (10 + 1) * 4; mesh.VertexCount() != exp {
		t.Fatalf("expected %d vertices; got %d", exp, mesh.VertexCount())
	}
}

func TestMakeBox(t *testing.T) {
	mesh := MakeBox()
	if mesh.VertexCount() != 24 {
		t.Fatalf("expected 24 vertices; got %d", mesh.VertexCount())
	}
	if mesh.PrimitiveCount() != 12 {
		t.Fatalf("expected 12 triangles; got %d", mesh.PrimitiveCount())
	}

	// All corners must lie on the unit cube surface.
	for idx, v := range mesh.Vertices {
		for axis := 0; axis < 3; axis++ {
			if v[axis] != 0.5 && v[axis] != -0.5 {
				t.Fatalf("[vertex %d] component %d not on the unit cube: %v", idx, axis, v)
			}
		}
	}
}

func TestMakeSphereMatchesCapsule(t *testing.T) {
	sphere := MakeSphere()
	capsule := MakeCapsule(1.0, 0.0)

	if sphere.VertexCount() != capsule.VertexCount() {
		t.Fatalf("expected a sphere to be a zero-length capsule; got %d != %d",
			sphere.VertexCount(), capsule.VertexCount())
	}

	// A unit sphere keeps every vertex at distance 1 from the origin.
	for idx, v := range sphere.Vertices {
		if d := v.Len(); d < 0.999 || d > 1.001 {
			t.Fatalf("[vertex %d] expected unit distance; got %f", idx, d)
		}
	}
}

func TestMakeCapsuleOffset(t *testing.T) {
	mesh := MakeCapsule(0.5, 2.0)

	var minZ, maxZ float32
	for _, v := range mesh.Vertices {
		if v[2] < minZ {
			minZ = v[2]
		}
		if v[2] > maxZ {
			maxZ = v[2]
		}
	}
	// Hemispheres are pushed apart by half the length on each side.
	if maxZ < 1.499 || minZ > -1.499 {
		t.Fatalf("expected capsule to span z [-1.5, 1.5]; got [%f, %f]", minZ, maxZ)
	}
}

func TestMakeCylinderCaps(t *testing.T) {
	open := MakeCylinder(false)
	closed := MakeCylinder(true)
	if closed.VertexCount() <= open.VertexCount() {
		t.Fatal("expected cap vertices on a closed cylinder")
	}
	if closed.PrimitiveCount() != open.PrimitiveCount()+2*(defaultNumSegments-1) {
		t.Fatalf("expected %d extra cap triangles; got %d",
			2*(defaultNumSegments-1), closed.PrimitiveCount()-open.PrimitiveCount())
	}

	// The cap fans must not repeat a vertex within one triangle.
	for i := 0; i+2 < len(closed.Indices); i += 3 {
		a, b, c := closed.Indices[i], closed.Indices[i+1], closed.Indices[i+2]
		if a == b || b == c || a == c {
			t.Fatalf("degenerate triangle (%d, %d, %d) at index %d", a, b, c, i)
		}
	}
}

func TestMakePlaneSize(t *testing.T) {
	mesh := MakePlane(types.XY(4, 2))
	if mesh.VertexCount() != 4 || mesh.PrimitiveCount() != 2 {
		t.Fatalf("expected a 2 triangle quad; got %d vertices, %d triangles",
			mesh.VertexCount(), mesh.PrimitiveCount())
	}
	for idx, v := range mesh.Vertices {
		if v[0] != 2 && v[0] != -2 || v[1] != 1 && v[1] != -1 || v[2] != 0 {
			t.Fatalf("[vertex %d] outside the 4x2 plane: %v", idx, v)
		}
	}
}

func TestMakePoints(t *testing.T) {
	verts := []types.Vec3{{0, 0, 0}, {1, 1, 1}}
	mesh := MakePoints(verts, nil, nil)
	if mesh.Mode != Points {
		t.Fatal("expected a point mesh")
	}
	if mesh.PrimitiveCount() != 2 {
		t.Fatalf("expected 2 points; got %d", mesh.PrimitiveCount())
	}
}
