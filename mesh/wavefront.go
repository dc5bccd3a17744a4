package mesh

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikalevatykh/panda3d-viewer/asset"
	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Intermediate state for a wavefront obj parse.
type wavefrontReader struct {
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// Maps a face corner spec (v/vt/vn) to its unified vertex index.
	cornerToIndex map[string]uint32

	// Whether any corner carried a texcoord or a normal. Corners may mix
	// the two within one file, so the attribute buffers are always kept
	// parallel to the vertex buffer and dropped afterwards when unused.
	hasAnyUV     bool
	hasAnyNormal bool

	mesh *geometry.Mesh
}

// Parse a wavefront object stream into a triangle mesh. All objects and
// groups in the file are merged into a single mesh; material statements
// are ignored since node materials are controlled through the viewer API.
func parseWavefront(res *asset.Resource) (*geometry.Mesh, error) {
	r := &wavefrontReader{
		cornerToIndex: make(map[string]uint32),
		mesh:          &geometry.Mesh{Mode: geometry.Triangles},
	}

	var lineNum int
	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 {
			continue
		}

		var err error
		switch lineTokens[0] {
		case "v":
			var v types.Vec3
			v, err = parseVec3(lineTokens)
			r.vertexList = append(r.vertexList, v)
		case "vn":
			var v types.Vec3
			v, err = parseVec3(lineTokens)
			r.normalList = append(r.normalList, v)
		case "vt":
			var v types.Vec2
			v, err = parseVec2(lineTokens)
			r.uvList = append(r.uvList, v)
		case "f":
			err = r.parseFace(lineTokens)
		}

		if err != nil {
			return nil, fmt.Errorf("mesh: %s: syntax error [line %d]: %s", res.Path(), lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", res.Path(), err)
	}

	if len(r.mesh.Indices) == 0 {
		return nil, fmt.Errorf("mesh: %s: no faces defined", res.Path())
	}

	if !r.hasAnyNormal {
		r.mesh.Normals = nil
	}
	if !r.hasAnyUV {
		r.mesh.TexCoords = nil
	}

	return r.mesh, nil
}

// Parse a face definition. Faces with more than 3 corners are
// triangulated as a fan around the first corner.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf("expected at least 3 face arguments; got %d", len(lineTokens)-1)
	}

	corners := make([]uint32, len(lineTokens)-1)
	for i, token := range lineTokens[1:] {
		index, err := r.resolveCorner(token)
		if err != nil {
			return err
		}
		corners[i] = index
	}

	for i := 1; i < len(corners)-1; i++ {
		r.mesh.Indices = append(r.mesh.Indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// Resolve a face corner spec (v, v/vt, v/vt/vn or v//vn) into a unified
// vertex index, appending a new vertex when the combination is unseen.
func (r *wavefrontReader) resolveCorner(token string) (uint32, error) {
	if index, exists := r.cornerToIndex[token]; exists {
		return index, nil
	}

	var pos types.Vec3
	var normal types.Vec3
	var uv types.Vec2
	var hasNormal, hasUV bool

	for field, value := range strings.Split(token, "/") {
		if value == "" {
			continue
		}
		rel, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid face index '%s'", token)
		}

		switch field {
		case 0:
			index, err := absIndex(rel, len(r.vertexList))
			if err != nil {
				return 0, err
			}
			pos = r.vertexList[index]
		case 1:
			index, err := absIndex(rel, len(r.uvList))
			if err != nil {
				return 0, err
			}
			uv = r.uvList[index]
			hasUV = true
		case 2:
			index, err := absIndex(rel, len(r.normalList))
			if err != nil {
				return 0, err
			}
			normal = r.normalList[index]
			hasNormal = true
		default:
			return 0, fmt.Errorf("invalid face corner '%s'", token)
		}
	}

	index := uint32(len(r.mesh.Vertices))
	r.mesh.Vertices = append(r.mesh.Vertices, pos)
	r.mesh.Normals = append(r.mesh.Normals, normal)
	r.mesh.TexCoords = append(r.mesh.TexCoords, uv)
	r.hasAnyNormal = r.hasAnyNormal || hasNormal
	r.hasAnyUV = r.hasAnyUV || hasUV
	r.cornerToIndex[token] = index
	return index, nil
}

// Convert a 1-based, possibly negative wavefront index to a 0-based
// offset into a list of the given length.
func absIndex(rel, listLen int) (int, error) {
	index := rel
	if index < 0 {
		index += listLen + 1
	}
	if index < 1 || index > listLen {
		return 0, fmt.Errorf("index %d out of range [1, %d]", rel, listLen)
	}
	return index - 1, nil
}

func parseVec3(lineTokens []string) (types.Vec3, error) {
	var v types.Vec3
	if len(lineTokens) < 4 {
		return v, fmt.Errorf("expected 3 arguments for '%s'; got %d", lineTokens[0], len(lineTokens)-1)
	}
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, fmt.Errorf("invalid coordinate '%s'", lineTokens[i+1])
		}
		v[i] = float32(val)
	}
	return v, nil
}

func parseVec2(lineTokens []string) (types.Vec2, error) {
	var v types.Vec2
	if len(lineTokens) < 3 {
		return v, fmt.Errorf("expected 2 arguments for '%s'; got %d", lineTokens[0], len(lineTokens)-1)
	}
	for i := 0; i < 2; i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, fmt.Errorf("invalid coordinate '%s'", lineTokens[i+1])
		}
		v[i] = float32(val)
	}
	return v, nil
}
