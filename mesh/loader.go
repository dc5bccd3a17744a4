package mesh

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/ikalevatykh/panda3d-viewer/asset"
	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Options control how a mesh file is interpreted.
type Options struct {
	// Rotate geometry from a Y-up axis convention into the renderer's
	// Z-up convention at load time.
	YUp bool

	// Bypass the loader cache and re-read the file from disk.
	NoCache bool
}

// Loader reads mesh and texture files into renderer-agnostic buffers.
// Parsed results are cached by path; cached meshes are shared and must
// be treated as immutable by callers.
type Loader struct {
	logger log.Logger

	mu       sync.Mutex
	meshes   map[string]*geometry.Mesh
	textures map[string]*geometry.Image
}

// Create a new mesh loader.
func NewLoader() *Loader {
	return &Loader{
		logger:   log.New("loader"),
		meshes:   make(map[string]*geometry.Mesh),
		textures: make(map[string]*geometry.Image),
	}
}

// Load a mesh from a local path or http/https URL.
func (l *Loader) Load(path string, opts Options) (*geometry.Mesh, error) {
	if !opts.NoCache {
		l.mu.Lock()
		cached, exists := l.meshes[path]
		l.mu.Unlock()
		if exists {
			return cached, nil
		}
	}

	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if res.Ext() != ".obj" {
		return nil, fmt.Errorf("mesh: unsupported mesh format '%s'", res.Ext())
	}

	mesh, err := parseWavefront(res)
	if err != nil {
		return nil, err
	}

	if opts.YUp {
		rotateYUpToZUp(mesh)
	}

	l.logger.Infof("loaded %s: %d vertices, %d triangles", path, mesh.VertexCount(), mesh.PrimitiveCount())

	l.mu.Lock()
	l.meshes[path] = mesh
	l.mu.Unlock()

	return mesh, nil
}

// Load a texture image from a local path or http/https URL. The decoded
// image is returned as interleaved 8-bit RGBA rows, top-down.
func (l *Loader) LoadTexture(path string) (*geometry.Image, error) {
	l.mu.Lock()
	cached, exists := l.textures[path]
	l.mu.Unlock()
	if exists {
		return cached, nil
	}

	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	src, kind, err := image.Decode(res)
	if err != nil {
		return nil, fmt.Errorf("mesh: could not decode texture '%s': %w", path, err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)

	tex := &geometry.Image{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: 4,
		Pix:      rgba.Pix,
	}

	l.logger.Infof("loaded %s texture %s: %dx%d", kind, path, tex.Width, tex.Height)

	l.mu.Lock()
	l.textures[path] = tex
	l.mu.Unlock()

	return tex, nil
}

// Evict all cached meshes and textures.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.meshes = make(map[string]*geometry.Mesh)
	l.textures = make(map[string]*geometry.Image)
	l.mu.Unlock()
}

func rotateYUpToZUp(mesh *geometry.Mesh) {
	rot := types.YUpToZUp4()
	for i, v := range mesh.Vertices {
		mesh.Vertices[i] = rot.Mul4x1(v.Vec4(1)).Vec3()
	}
	for i, n := range mesh.Normals {
		mesh.Normals[i] = rot.Mul4x1(n.Vec4(0)).Vec3()
	}
}
