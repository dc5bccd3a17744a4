package render

import (
	"github.com/chewxy/math32"
	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

const (
	nearPlane = 0.1
	farPlane  = 100.0

	// Nodes without a material override render mid-grey.
	defaultAlbedo = 0.7
)

// A software rasterizer implementing the Renderer capability: z-buffered
// triangle fill with flat Lambert shading, line and point primitives,
// exp2 fog and an optional tone-mapping stage. It backs offscreen
// windows directly and feeds the onscreen window shell via Frame.
type softRenderer struct {
	logger log.Logger
	opts   Options

	w, h  int
	pix   []byte
	depth []float32

	lights []Light
	fog    *Fog
	hdr    bool
	bg     types.Vec3

	closed bool
}

// Create a new software renderer with the given options.
func NewSoftware(opts Options) Renderer {
	opts = opts.withDefaults()
	w, h := int(opts.FrameW), int(opts.FrameH)

	r := &softRenderer{
		logger: log.New("render"),
		opts:   opts,
		w:      w,
		h:      h,
		pix:    make([]byte, w*h*4),
		depth:  make([]float32, w*h),
		bg:     opts.Background,
	}
	r.logger.Infof("software renderer ready: %dx%d frame", w, h)
	return r
}

func (r *softRenderer) SetLights(lights []Light) {
	r.lights = lights
}

func (r *softRenderer) SetFog(fog *Fog) {
	r.fog = fog
}

func (r *softRenderer) EnableHDR(enable bool) {
	r.hdr = enable
}

func (r *softRenderer) SetBackgroundColor(color types.Vec3) {
	r.bg = color
}

func (r *softRenderer) Frame() ([]byte, int, int) {
	return r.pix, r.w, r.h
}

func (r *softRenderer) Close() {
	r.closed = true
	r.pix = nil
	r.depth = nil
}

func (r *softRenderer) Draw(view *View, graphs ...*scenegraph.Graph) error {
	if r.closed {
		return ErrClosed
	}

	r.clear()

	aspect := float32(r.w) / float32(r.h)
	proj := types.Perspective4(view.FOV, aspect, nearPlane, farPlane)
	viewMat := types.LookAtV(view.Position, view.LookAt, view.Up)
	viewProj := proj.Mul4(viewMat)

	for _, graph := range graphs {
		r.drawGraph(graph, viewProj, view)
	}

	return nil
}

func (r *softRenderer) drawGraph(graph *scenegraph.Graph, viewProj types.Mat4, view *View) {
	graph.Walk(func(node *scenegraph.Node, world types.Mat4) {
		mesh := node.Mesh()
		if mesh == nil {
			return
		}

		model := world.Mul4(node.Transform())
		mvp := viewProj.Mul4(model)

		switch mesh.Mode {
		case geometry.Triangles:
			r.drawTriangles(node, mesh, model, mvp, view)
		case geometry.Lines:
			r.drawLines(node, mesh, mvp)
		case geometry.Points:
			r.drawPoints(node, mesh, mvp)
		}
	})
}

func (r *softRenderer) clear() {
	c := r.shade(r.bg)
	for i := 0; i < len(r.pix); i += 4 {
		r.pix[i] = c[0]
		r.pix[i+1] = c[1]
		r.pix[i+2] = c[2]
		r.pix[i+3] = 255
	}
	for i := range r.depth {
		r.depth[i] = math32.MaxFloat32
	}
}

// A projected vertex: screen position, depth, view distance and
// interpolation attributes.
type fragVertex struct {
	x, y float32
	z    float32
	dist float32
	uv   types.Vec2
}

// Project a model-space position into the framebuffer. Returns false
// when the vertex lies behind the near plane.
func (r *softRenderer) project(mvp types.Mat4, pos types.Vec3, uv types.Vec2) (fragVertex, bool) {
	clip := mvp.Mul4x1(pos.Vec4(1))
	if clip[3] < nearPlane {
		return fragVertex{}, false
	}

	inv := 1.0 / clip[3]
	return fragVertex{
		x:    (clip[0]*inv*0.5 + 0.5) * float32(r.w),
		y:    (clip[1]*inv*0.5 + 0.5) * float32(r.h),
		z:    clip[2] * inv,
		dist: clip[3],
		uv:   uv,
	}, true
}

func (r *softRenderer) drawTriangles(node *scenegraph.Node, mesh *geometry.Mesh, model, mvp types.Mat4, view *View) {
	material := node.Material()

	base := types.XYZW(defaultAlbedo, defaultAlbedo, defaultAlbedo, 1)
	if material.HasColor {
		base = material.Color
	}

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]

		var uv [3]types.Vec2
		if len(mesh.TexCoords) == len(mesh.Vertices) {
			uv = [3]types.Vec2{mesh.TexCoords[i0], mesh.TexCoords[i1], mesh.TexCoords[i2]}
		}

		a, okA := r.project(mvp, mesh.Vertices[i0], uv[0])
		b, okB := r.project(mvp, mesh.Vertices[i1], uv[1])
		c, okC := r.project(mvp, mesh.Vertices[i2], uv[2])
		if !okA || !okB || !okC {
			continue
		}

		// Back-face culling on the signed screen-space area. A
		// handedness-inverting node scale reverses the cull order.
		area := (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
		if node.ReverseCull() {
			area = -area
		}
		if area <= 0 {
			continue
		}

		// Flat Lambert shading off the world-space face normal.
		w0 := model.Mul4x1(mesh.Vertices[i0].Vec4(1)).Vec3()
		w1 := model.Mul4x1(mesh.Vertices[i1].Vec4(1)).Vec3()
		w2 := model.Mul4x1(mesh.Vertices[i2].Vec4(1)).Vec3()

		normal := w1.Sub(w0).Cross(w2.Sub(w0)).Normalize()
		centroid := w0.Add(w1).Add(w2).Mul(1.0 / 3.0)
		if normal.Dot(view.Position.Sub(centroid)) < 0 {
			normal = normal.Mul(-1)
		}

		lit := r.lightColor(normal)
		color := types.XYZ(base[0]*lit[0], base[1]*lit[1], base[2]*lit[2])

		r.fillTriangle(a, b, c, color, base[3], material)
	}
}

// Accumulate the light rig contribution for a surface normal. Without
// lights the surface renders unlit at full intensity.
func (r *softRenderer) lightColor(normal types.Vec3) types.Vec3 {
	if len(r.lights) == 0 {
		return types.XYZ(1, 1, 1)
	}

	total := types.Vec3{}
	for _, light := range r.lights {
		switch light.Type {
		case AmbientLight:
			total = total.Add(light.Color)
		default:
			lambert := -normal.Dot(light.Direction())
			if lambert > 0 {
				total = total.Add(light.Color.Mul(lambert))
			}
		}
	}
	return total
}

func (r *softRenderer) fillTriangle(a, b, c fragVertex, color types.Vec3, alpha float32, material *scenegraph.Material) {
	minX := clampInt(int(math32.Floor(min3(a.x, b.x, c.x))), 0, r.w-1)
	maxX := clampInt(int(math32.Ceil(max3(a.x, b.x, c.x))), 0, r.w-1)
	minY := clampInt(int(math32.Floor(min3(a.y, b.y, c.y))), 0, r.h-1)
	maxY := clampInt(int(math32.Ceil(max3(a.y, b.y, c.y))), 0, r.h-1)

	area := (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
	if area == 0 {
		return
	}
	invArea := 1.0 / area

	transparent := material.Transparent()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			py := float32(y) + 0.5

			u := ((b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)) * invArea
			v := ((px-a.x)*(c.y-a.y) - (py-a.y)*(c.x-a.x)) * invArea
			w := 1 - u - v
			if u < 0 || v < 0 || w < 0 {
				continue
			}

			// Barycentric weights: w for a, v for b, u for c.
			z := a.z*w + b.z*v + c.z*u
			idx := y*r.w + x
			if z >= r.depth[idx] {
				continue
			}

			texel := color
			if material.Texture != nil {
				uv := types.XY(
					a.uv[0]*w+b.uv[0]*v+c.uv[0]*u,
					a.uv[1]*w+b.uv[1]*v+c.uv[1]*u,
				)
				sample := sampleTexture(material.Texture, uv)
				texel = types.XYZ(texel[0]*sample[0], texel[1]*sample[1], texel[2]*sample[2])
			}

			if r.fog != nil {
				dist := a.dist*w + b.dist*v + c.dist*u
				factor := math32.Exp(-(r.fog.Density * dist) * (r.fog.Density * dist))
				texel = r.fog.Color.Add(texel.Sub(r.fog.Color).Mul(factor))
			}

			if transparent {
				r.blendPixel(idx, texel, alpha)
			} else {
				r.depth[idx] = z
				r.putPixel(idx, texel)
			}
		}
	}
}

func (r *softRenderer) drawLines(node *scenegraph.Node, mesh *geometry.Mesh, mvp types.Mat4) {
	for i := 0; i+1 < len(mesh.Indices); i += 2 {
		i0, i1 := mesh.Indices[i], mesh.Indices[i+1]

		a, okA := r.project(mvp, mesh.Vertices[i0], types.Vec2{})
		b, okB := r.project(mvp, mesh.Vertices[i1], types.Vec2{})
		if !okA || !okB {
			continue
		}

		color := r.vertexColor(node, mesh, i0)
		steps := int(max3(math32.Abs(b.x-a.x), math32.Abs(b.y-a.y), 1))
		for s := 0; s <= steps; s++ {
			t := float32(s) / float32(steps)
			x := int(a.x + (b.x-a.x)*t)
			y := int(a.y + (b.y-a.y)*t)
			if x < 0 || x >= r.w || y < 0 || y >= r.h {
				continue
			}
			z := a.z + (b.z-a.z)*t
			idx := y*r.w + x
			if z < r.depth[idx] {
				r.depth[idx] = z
				r.putPixel(idx, color)
			}
		}
	}
}

func (r *softRenderer) drawPoints(node *scenegraph.Node, mesh *geometry.Mesh, mvp types.Mat4) {
	for i, pos := range mesh.Vertices {
		var uv types.Vec2
		if len(mesh.TexCoords) > i {
			uv = mesh.TexCoords[i]
		}
		p, ok := r.project(mvp, pos, uv)
		if !ok {
			continue
		}

		color := r.vertexColor(node, mesh, uint32(i))
		if tex := node.Material().Texture; tex != nil && len(mesh.TexCoords) > i {
			sample := sampleTexture(tex, uv)
			color = types.XYZ(color[0]*sample[0], color[1]*sample[1], color[2]*sample[2])
		}

		// 2x2 splat so sparse clouds stay visible.
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				x, y := int(p.x)+dx, int(p.y)+dy
				if x < 0 || x >= r.w || y < 0 || y >= r.h {
					continue
				}
				idx := y*r.w + x
				if p.z < r.depth[idx] {
					r.depth[idx] = p.z
					r.putPixel(idx, color)
				}
			}
		}
	}
}

// Resolve the unlit color of a line or point vertex: per-vertex color
// when present, then the material override, then white.
func (r *softRenderer) vertexColor(node *scenegraph.Node, mesh *geometry.Mesh, index uint32) types.Vec3 {
	if len(mesh.Colors) > int(index) {
		return mesh.Colors[index].Vec3()
	}
	if material := node.Material(); material.HasColor {
		return material.Color.Vec3()
	}
	return types.XYZ(1, 1, 1)
}

func (r *softRenderer) putPixel(idx int, color types.Vec3) {
	c := r.shade(color)
	r.pix[idx*4] = c[0]
	r.pix[idx*4+1] = c[1]
	r.pix[idx*4+2] = c[2]
	r.pix[idx*4+3] = 255
}

func (r *softRenderer) blendPixel(idx int, color types.Vec3, alpha float32) {
	c := r.shade(color)
	for ch := 0; ch < 3; ch++ {
		dst := float32(r.pix[idx*4+ch])
		r.pix[idx*4+ch] = byte(dst + (float32(c[ch])-dst)*alpha)
	}
	r.pix[idx*4+3] = 255
}

// Map a linear color to 8-bit, applying the optional tone-mapping stage.
func (r *softRenderer) shade(color types.Vec3) [3]byte {
	var out [3]byte
	for ch := 0; ch < 3; ch++ {
		v := color[ch]
		if r.hdr {
			v = v / (1 + v)
		}
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[ch] = byte(v*255 + 0.5)
	}
	return out
}

// Sample a texture with wrap-clamped coordinates. Texture rows are
// stored top-down while uv origin is bottom-left.
func sampleTexture(tex *geometry.Image, uv types.Vec2) types.Vec3 {
	u := clampF(uv[0], 0, 1)
	v := clampF(uv[1], 0, 1)

	x := clampInt(int(u*float32(tex.Width)), 0, tex.Width-1)
	y := clampInt(int((1-v)*float32(tex.Height)), 0, tex.Height-1)

	idx := (y*tex.Width + x) * tex.Channels
	return types.XYZ(
		float32(tex.Pix[idx])/255,
		float32(tex.Pix[idx+1])/255,
		float32(tex.Pix[idx+2])/255,
	)
}

func min3(a, b, c float32) float32 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c float32) float32 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
