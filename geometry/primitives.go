package geometry

import (
	"github.com/chewxy/math32"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Default tessellation level for curved primitives.
const (
	defaultNumSegments = 16
	defaultNumRings    = 16
)

// Make an axes wireframe. Each axis is a unit segment colored after
// its direction (x red, y green, z blue).
func MakeAxes() *Mesh {
	mesh := &Mesh{
		Mode:     Lines,
		Vertices: make([]types.Vec3, 0, 6),
		Colors:   make([]types.Vec4, 0, 6),
		Indices:  make([]uint32, 0, 6),
	}

	for i := 0; i < 3; i++ {
		var axis types.Vec3
		axis[i] = 1

		color := axis.Vec4(1)
		mesh.Vertices = append(mesh.Vertices, types.Vec3{}, axis)
		mesh.Colors = append(mesh.Colors, color, color)
		mesh.Indices = append(mesh.Indices, uint32(i*2), uint32(i*2+1))
	}

	return mesh
}

// Make a ground grid wireframe centered at the origin.
func MakeGrid(numTicks int, step float32) *Mesh {
	lo := float32(-(numTicks / 2)) * step
	hi := float32(numTicks/2) * step

	mesh := &Mesh{Mode: Lines}
	for i := 0; i <= numTicks; i++ {
		t := lo + float32(i)*step
		mesh.Vertices = append(mesh.Vertices,
			types.XYZ(t, lo, 0), types.XYZ(t, hi, 0),
			types.XYZ(lo, t, 0), types.XYZ(hi, t, 0),
		)
	}
	for i := 0; i < len(mesh.Vertices); i++ {
		mesh.Indices = append(mesh.Indices, uint32(i))
	}

	return mesh
}

// Make a capsule: a cylinder of the given length capped with two
// hemispheres of the given radius.
func MakeCapsule(radius, length float32) *Mesh {
	numSegments, numRings := defaultNumSegments, defaultNumRings

	mesh := &Mesh{Mode: Triangles}
	for i := 0; i < numRings; i++ {
		u := math32.Pi * float32(i) / float32(numRings-1)
		for j := 0; j < numSegments; j++ {
			v := 2 * math32.Pi * float32(j) / float32(numSegments-1)

			x := math32.Cos(v) * math32.Sin(u)
			y := math32.Sin(v) * math32.Sin(u)
			z := math32.Cos(u)

			var offset float32
			switch {
			case z > 0:
				offset = 0.5 * length
			case z < 0:
				offset = -0.5 * length
			}

			mesh.Vertices = append(mesh.Vertices, types.XYZ(x*radius, y*radius, z*radius+offset))
			mesh.Normals = append(mesh.Normals, types.XYZ(x, y, z))
			mesh.TexCoords = append(mesh.TexCoords, types.XY(u/math32.Pi, v/(2*math32.Pi)))
		}
	}

	for i := 0; i < numRings-1; i++ {
		for j := 0; j < numSegments-1; j++ {
			r0 := uint32(i*numSegments + j)
			r1 := r0 + uint32(numSegments)
			if i < numRings-2 {
				mesh.Indices = append(mesh.Indices, r0, r1, r1+1)
			}
			if i > 0 {
				mesh.Indices = append(mesh.Indices, r0, r1+1, r0+1)
			}
		}
	}

	return mesh
}

// Make a unit UV sphere. Size is controlled with the node scale.
func MakeSphere() *Mesh {
	return MakeCapsule(1.0, 0.0)
}

// Make a unit cylinder along the z axis, optionally capped. Radius and
// length are controlled with the node scale.
func MakeCylinder(closed bool) *Mesh {
	numSegments := defaultNumSegments

	mesh := &Mesh{Mode: Triangles}
	for j := 0; j < numSegments; j++ {
		phi := 2 * math32.Pi * float32(j) / float32(numSegments-1)
		x, y := math32.Cos(phi), math32.Sin(phi)
		for _, z := range []float32{-1, 1} {
			mesh.Vertices = append(mesh.Vertices, types.XYZ(x, y, z*0.5))
			mesh.Normals = append(mesh.Normals, types.XYZ(x, y, 0))
			mesh.TexCoords = append(mesh.TexCoords, types.XY(phi/(2*math32.Pi), (z+1)/2))
		}
	}

	for i := 0; i < numSegments-1; i++ {
		r0 := uint32(i * 2)
		mesh.Indices = append(mesh.Indices, r0, r0+3, r0+1)
		mesh.Indices = append(mesh.Indices, r0, r0+2, r0+3)
	}

	if closed {
		cylRows := uint32(numSegments * 2)
		capRows := uint32(numSegments + 1)

		for _, z := range []float32{-1, 1} {
			mesh.Vertices = append(mesh.Vertices, types.XYZ(0, 0, z*0.5))
			mesh.Normals = append(mesh.Normals, types.XYZ(0, 0, z))
			mesh.TexCoords = append(mesh.TexCoords, types.XY(0, 0))

			for j := 0; j < numSegments; j++ {
				phi := 2 * math32.Pi * float32(j) / float32(numSegments-1)
				x, y := math32.Cos(phi), math32.Sin(phi)
				mesh.Vertices = append(mesh.Vertices, types.XYZ(x, y, z*0.5))
				mesh.Normals = append(mesh.Normals, types.XYZ(0, 0, z))
				mesh.TexCoords = append(mesh.TexCoords, types.XY(x, y))
			}
		}

		// Fan around the cap center vertex; the rim duplicates its first
		// point at the seam, so the fan starts from the second rim pair.
		for i := uint32(1); i < uint32(numSegments); i++ {
			r0 := cylRows
			r1 := r0 + capRows
			mesh.Indices = append(mesh.Indices, r0, r0+i+1, r0+i)
			mesh.Indices = append(mesh.Indices, r1, r1+i, r1+i+1)
		}
	}

	return mesh
}

// Make a unit box. Size is controlled with the node scale.
func MakeBox() *Mesh {
	basis := []types.Vec3{types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0, 0, 1)}
	quad := []types.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	mesh := &Mesh{Mode: Triangles}
	for i, x := range basis {
		for j, y := range basis {
			if i == j {
				continue
			}
			z := x.Cross(y)
			for _, uv := range quad {
				pos := x.Mul(uv[0] - 0.5).Add(y.Mul(uv[1] - 0.5)).Add(z.Mul(0.5))
				mesh.Vertices = append(mesh.Vertices, pos)
				mesh.Normals = append(mesh.Normals, z)
				mesh.TexCoords = append(mesh.TexCoords, uv)
			}
		}
	}

	for i := uint32(0); i < 24; i += 4 {
		mesh.Indices = append(mesh.Indices, i, i+1, i+2)
		mesh.Indices = append(mesh.Indices, i+2, i+1, i+3)
	}

	return mesh
}

// Make a plane of the given x,y size in the z=0 plane.
func MakePlane(size types.Vec2) *Mesh {
	quad := []types.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	mesh := &Mesh{Mode: Triangles}
	for _, uv := range quad {
		mesh.Vertices = append(mesh.Vertices, types.XYZ((uv[0]-0.5)*size[0], (uv[1]-0.5)*size[1], 0))
		mesh.Normals = append(mesh.Normals, types.XYZ(0, 0, 1))
		mesh.TexCoords = append(mesh.TexCoords, uv)
	}
	mesh.Indices = []uint32{0, 1, 2, 2, 1, 3}

	return mesh
}

// Make a point cloud mesh. Colors and texture coordinates are optional;
// when present their length must match the vertex count.
func MakePoints(vertices []types.Vec3, colors []types.Vec4, texCoords []types.Vec2) *Mesh {
	return &Mesh{
		Mode:      Points,
		Vertices:  vertices,
		Colors:    colors,
		TexCoords: texCoords,
	}
}
