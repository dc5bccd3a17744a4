package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/ikalevatykh/panda3d-viewer/mesh"
	"github.com/ikalevatykh/panda3d-viewer/render"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

type appState int

const (
	stateStarting appState = iota
	stateReady
	stateRunning
	stateClosed
	stateFailed
)

// The per-light on/off mask applied on top of the lighting toggle. Two
// of the four directional lights start disabled.
var defaultLightsMask = []bool{true, true, true, false, false}

// App owns the renderer and the scene state. It is the runtime behind
// both viewer modes: driven directly by the facade offscreen, or by
// the worker loop in a spawned process onscreen. All methods must be
// called from the single goroutine that owns the app.
type App struct {
	logger log.Logger

	renderer render.Renderer
	window   *render.Window

	loader  *mesh.Loader
	noCache bool
	meshYUp bool

	graph *scenegraph.Graph
	deco  *scenegraph.Graph

	view        render.View
	defaultView render.View

	lights        []render.Light
	lightsMask    []bool
	lightsEnabled bool
	shadowEnabled bool
	hdrEnabled    bool
	fogEnabled    bool
	fogDensity    float32
	background    types.Vec3

	fpsShown bool
	state    appState
}

// Create the viewer application: open a window or an offscreen buffer
// according to the configuration and build the default scene
// decorations (axes, grid, floor, light rig, fog).
func NewApp(config *Config) (*App, error) {
	if config == nil {
		config = NewConfig()
	}

	app := &App{
		logger: log.New("viewer"),
		state:  stateStarting,
	}

	width, height := config.GetVec2("win-size", 800, 600)
	opts := render.Options{
		FrameW:    uint32(width),
		FrameH:    uint32(height),
		Title:     config.GetString("window-title", "Viewer"),
		FixedSize: config.GetBool("win-fixed-size", false),
	}
	if config.GetBool("framebuffer-multisample", false) {
		opts.Multisamples = uint32(config.GetInt("multisamples", 0))
	}

	onscreen := config.GetString("window-type", "onscreen") == "onscreen"
	if onscreen {
		window, err := render.NewWindow(opts)
		if err != nil {
			app.state = stateFailed
			return nil, fmt.Errorf("%w: %s", ErrStartup, err)
		}
		app.window = window
		app.renderer = window
	} else {
		app.renderer = render.NewSoftware(opts)
	}

	app.loader = mesh.NewLoader()
	app.noCache = config.Has("model-cache-dir") && config.GetString("model-cache-dir", "") == ""
	app.meshYUp = config.GetBool("mesh-y-up", false)

	app.graph = scenegraph.NewGraph(config.GetFloat("scene-scale", 1))
	app.view = *render.DefaultView()
	app.defaultView = app.view

	app.lights = render.DefaultLights(config.GetBool("enable-spotlight", false))
	app.lightsMask = append([]bool(nil), defaultLightsMask...)
	app.lightsEnabled = config.GetBool("enable-lights", true)
	app.shadowEnabled = config.GetBool("enable-shadow", false)
	app.applyLights()

	app.hdrEnabled = config.GetBool("enable-hdr", false)
	app.renderer.EnableHDR(app.hdrEnabled)

	app.fogDensity = 0.1
	app.fogEnabled = config.GetBool("enable-fog", false)
	app.applyFog()

	app.buildDecorations(config)

	if app.window != nil {
		app.window.SetKeyHandler(app.onKey)
		app.fpsShown = config.GetBool("show-frame-rate-meter", false)
		app.window.ShowFPSMeter(app.fpsShown)
	}

	app.state = stateReady
	app.logger.Infof("viewer ready (%dx%d)", width, height)
	return app, nil
}

func (a *App) buildDecorations(config *Config) {
	a.deco = scenegraph.NewGraph(1)

	axes, _ := a.deco.CreateGroup("axes", true, 1)
	axes.AttachNode("axes", geometry.MakeAxes())
	axes.SetVisible(config.GetBool("show-axes", true))

	grid, _ := a.deco.CreateGroup("grid", true, 1)
	grid.AttachNode("grid", geometry.MakeGrid(10, 1))
	grid.SetVisible(config.GetBool("show-grid", true))

	floor, _ := a.deco.CreateGroup("floor", true, 1)
	node := floor.AttachNode("floor", geometry.MakePlane(types.XY(10, 10)))
	node.SetColor(types.XYZW(0.3, 0.3, 0.3, 1))
	node.Material().Roughness = 0.8
	floor.SetVisible(config.GetBool("show-floor", false))
}

func (a *App) closed() bool {
	return a.state == stateClosed || a.state == stateFailed
}

// Execute one render loop step: draw the decorations and the scene,
// then poll window events. Closes the app once the user has closed the
// main window.
func (a *App) Step() error {
	if a.closed() {
		return ErrClosed
	}
	a.state = stateRunning

	if err := a.renderer.Draw(&a.view, a.deco, a.graph); err != nil {
		if errors.Is(err, render.ErrClosed) {
			a.state = stateClosed
			return ErrClosed
		}
		return err
	}

	if a.window != nil && a.window.ShouldClose() {
		a.logger.Info("main window closed by the user")
		a.state = stateClosed
	}
	return nil
}

// Run the render loop until the main window closes or Stop is called.
// Returns nil when the app is already closed.
func (a *App) Join() error {
	for !a.closed() {
		if err := a.Step(); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Stop the render loop and transition to the closed state. Renderer
// resources stay alive until Destroy.
func (a *App) Stop() error {
	if a.closed() {
		return ErrClosed
	}
	a.state = stateClosed
	if a.window != nil {
		a.window.RequestClose()
	}
	return nil
}

// Release the renderer resources. Safe to call more than once.
func (a *App) Destroy() error {
	if !a.closed() {
		a.state = stateClosed
	}
	if a.renderer != nil {
		a.renderer.Close()
		a.renderer = nil
		a.window = nil
	}
	return nil
}

// Append a root node for a group of nodes. When the path is already
// registered the group is replaced (removeIfExists) or a
// DuplicateGroupError is returned.
func (a *App) AppendGroup(path string, removeIfExists bool, scale float32) error {
	if a.closed() {
		return ErrClosed
	}
	_, err := a.graph.CreateGroup(path, removeIfExists, scale)
	return err
}

// Remove a group of nodes and free its subtree.
func (a *App) RemoveGroup(path string) error {
	if a.closed() {
		return ErrClosed
	}
	return a.graph.RemoveGroup(path)
}

// Turn a node group rendering on or off.
func (a *App) ShowGroup(path string, show bool) error {
	if a.closed() {
		return ErrClosed
	}
	return a.graph.SetGroupVisible(path, show)
}

// Set poses for nodes within a group. Nodes missing from the batch and
// names missing from the group are both ignored.
func (a *App) MoveNodes(path string, poses map[string]scenegraph.Pose) error {
	if a.closed() {
		return ErrClosed
	}
	return a.graph.ApplyPoses(path, poses)
}

// Append a mesh node loaded from a file to the group.
func (a *App) AppendMesh(path, name, meshPath string, scale types.Vec3, frame ...scenegraph.Pose) error {
	if a.closed() {
		return ErrClosed
	}
	group, err := a.graph.Group(path)
	if err != nil {
		return err
	}
	loaded, err := a.loader.Load(meshPath, mesh.Options{YUp: a.meshYUp, NoCache: a.noCache})
	if err != nil {
		return err
	}
	node := group.AttachNode(name, loaded)
	node.SetScale(scale)
	applyFrame(node, frame)
	return nil
}

// Append a capsule primitive node to the group.
func (a *App) AppendCapsule(path, name string, radius, length float32, frame ...scenegraph.Pose) error {
	return a.appendPrimitive(path, name, geometry.MakeCapsule(radius, length), types.XYZ(1, 1, 1), frame)
}

// Append a cylinder primitive node to the group.
func (a *App) AppendCylinder(path, name string, radius, length float32, frame ...scenegraph.Pose) error {
	return a.appendPrimitive(path, name, geometry.MakeCylinder(true), types.XYZ(radius, radius, length), frame)
}

// Append a box primitive node to the group.
func (a *App) AppendBox(path, name string, size types.Vec3, frame ...scenegraph.Pose) error {
	return a.appendPrimitive(path, name, geometry.MakeBox(), size, frame)
}

// Append a plane primitive node to the group.
func (a *App) AppendPlane(path, name string, size types.Vec2, frame ...scenegraph.Pose) error {
	return a.appendPrimitive(path, name, geometry.MakePlane(size), types.XYZ(1, 1, 1), frame)
}

// Append a sphere primitive node to the group.
func (a *App) AppendSphere(path, name string, radius float32, frame ...scenegraph.Pose) error {
	return a.appendPrimitive(path, name, geometry.MakeSphere(), types.XYZ(radius, radius, radius), frame)
}

func (a *App) appendPrimitive(path, name string, shape *geometry.Mesh, scale types.Vec3, frame []scenegraph.Pose) error {
	if a.closed() {
		return ErrClosed
	}
	group, err := a.graph.Group(path)
	if err != nil {
		return err
	}
	node := group.AttachNode(name, shape)
	node.SetScale(scale)
	applyFrame(node, frame)
	return nil
}

// Replace the point cloud buffers of a node, creating the geometry on
// the first update. The optional texture is a wrap-clamped image
// reused across updates.
func (a *App) UpdatePointCloud(path, name string, vertices []types.Vec3, colors []types.Vec4, texCoords []types.Vec2, texture *geometry.Image) error {
	if a.closed() {
		return ErrClosed
	}
	group, err := a.graph.Group(path)
	if err != nil {
		return err
	}
	node := group.Node(name)
	if node == nil {
		node = group.AttachNode(name, nil)
	}
	return node.UpdatePoints(vertices, colors, texCoords, texture)
}

// Override the material color of a node. Alpha below 1 enables
// alpha-blended transparency. The texture map is left untouched.
func (a *App) SetMaterial(path, name string, color types.Vec4) error {
	if a.closed() {
		return ErrClosed
	}
	node, err := a.node(path, name)
	if err != nil {
		return err
	}
	node.SetColor(color)
	return nil
}

// Swap the texture map of a node, leaving the material color as is.
func (a *App) SetTexture(path, name, texturePath string) error {
	if a.closed() {
		return ErrClosed
	}
	node, err := a.node(path, name)
	if err != nil {
		return err
	}
	texture, err := a.loader.LoadTexture(texturePath)
	if err != nil {
		return err
	}
	node.SetTexture(texture, texturePath)
	return nil
}

// Reset the camera position and aim point.
func (a *App) ResetCamera(pos, lookAt types.Vec3) error {
	if a.closed() {
		return ErrClosed
	}
	a.view.Position = pos
	a.view.LookAt = lookAt
	return nil
}

// Turn lighting on or off.
func (a *App) EnableLights(enable bool) error {
	if a.closed() {
		return ErrClosed
	}
	a.lightsEnabled = enable
	a.applyLights()
	return nil
}

// Turn a single light of the rig on or off.
func (a *App) EnableLight(index int, enable bool) error {
	if a.closed() {
		return ErrClosed
	}
	if index < 0 || index >= len(a.lightsMask) {
		return fmt.Errorf("viewer: light index %d out of range", index)
	}
	a.lightsMask[index] = enable
	a.applyLights()
	return nil
}

// Turn shadow casting on or off for the non-ambient lights.
func (a *App) EnableShadow(enable bool) error {
	if a.closed() {
		return ErrClosed
	}
	a.shadowEnabled = enable
	a.applyLights()
	return nil
}

// Turn the HDR tone-mapping effect on or off.
func (a *App) EnableHDR(enable bool) error {
	if a.closed() {
		return ErrClosed
	}
	a.hdrEnabled = enable
	a.renderer.EnableHDR(enable)
	return nil
}

// Turn distance fog on or off. The fog color follows the background.
func (a *App) EnableFog(enable bool) error {
	if a.closed() {
		return ErrClosed
	}
	a.fogEnabled = enable
	a.applyFog()
	return nil
}

// Turn the world axes rendering on or off.
func (a *App) ShowAxes(show bool) error {
	return a.showDecoration("axes", show)
}

// Turn the ground grid rendering on or off.
func (a *App) ShowGrid(show bool) error {
	return a.showDecoration("grid", show)
}

// Turn the floor plane rendering on or off.
func (a *App) ShowFloor(show bool) error {
	return a.showDecoration("floor", show)
}

func (a *App) showDecoration(name string, show bool) error {
	if a.closed() {
		return ErrClosed
	}
	return a.deco.SetGroupVisible(name, show)
}

// Show the frame rate in the window title. A no-op offscreen.
func (a *App) ShowFPSMeter(show bool) error {
	if a.closed() {
		return ErrClosed
	}
	a.fpsShown = show
	if a.window != nil {
		a.window.ShowFPSMeter(show)
	}
	return nil
}

// Set the background clear color. The fog is recolored to match.
func (a *App) SetBackgroundColor(color types.Vec3) error {
	if a.closed() {
		return ErrClosed
	}
	a.background = color
	a.renderer.SetBackgroundColor(color)
	a.applyFog()
	return nil
}

// Capture the current frame and write it to disk. An empty filename
// produces a timestamped PNG in the working directory. The alpha
// channel is stripped for PNG exports.
func (a *App) SaveScreenshot(filename string) (bool, error) {
	if a.closed() {
		return false, ErrClosed
	}

	if filename == "" {
		filename = time.Now().Format("screenshot-2006-01-02-15-04-05.png")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return false, fmt.Errorf("viewer: unsupported screenshot format '%s'", ext)
	}

	img := a.captureNRGBA()
	if ext == ".png" {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return false, fmt.Errorf("viewer: could not write screenshot: %w", err)
	}
	defer file.Close()

	if ext == ".png" {
		err = png.Encode(file, img)
	} else {
		err = jpeg.Encode(file, img, nil)
	}
	if err != nil {
		return false, fmt.Errorf("viewer: could not encode screenshot: %w", err)
	}

	a.logger.Infof("saved screenshot to %s", filename)
	return true, nil
}

// Capture the current frame as an interleaved byte image in top-down
// row order with the requested channel layout, e.g. "RGB" or "BGRA".
func (a *App) GetScreenshot(format string) (*geometry.Image, error) {
	if a.closed() {
		return nil, ErrClosed
	}
	if format == "" {
		return nil, fmt.Errorf("viewer: empty channel format")
	}

	offsets := make([]int, len(format))
	for i, channel := range format {
		switch channel {
		case 'R':
			offsets[i] = 0
		case 'G':
			offsets[i] = 1
		case 'B':
			offsets[i] = 2
		case 'A':
			offsets[i] = 3
		default:
			return nil, fmt.Errorf("viewer: unknown channel '%c' in format '%s'", channel, format)
		}
	}

	pix, width, height := a.renderer.Frame()
	channels := len(offsets)
	out := make([]byte, width*height*channels)
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*width*4:]
		dst := out[y*width*channels:]
		for x := 0; x < width; x++ {
			for c, offset := range offsets {
				dst[x*channels+c] = src[x*4+offset]
			}
		}
	}

	return &geometry.Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      out,
	}, nil
}

// Flip the framebuffer into a top-down NRGBA image.
func (a *App) captureNRGBA() *image.NRGBA {
	pix, width, height := a.renderer.Frame()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := pix[(height-1-y)*width*4 : (height-y)*width*4]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img
}

func (a *App) node(path, name string) (*scenegraph.Node, error) {
	group, err := a.graph.Group(path)
	if err != nil {
		return nil, err
	}
	node := group.Node(name)
	if node == nil {
		return nil, fmt.Errorf("viewer: no node '%s' in group '%s'", name, path)
	}
	return node, nil
}

func (a *App) applyLights() {
	var active []render.Light
	if a.lightsEnabled {
		for i, light := range a.lights {
			if !a.lightsMask[i] {
				continue
			}
			light.CastShadow = a.shadowEnabled && light.Type != render.AmbientLight
			active = append(active, light)
		}
	}
	a.renderer.SetLights(active)
}

func (a *App) applyFog() {
	if a.fogEnabled {
		a.renderer.SetFog(&render.Fog{Color: a.background, Density: a.fogDensity})
	} else {
		a.renderer.SetFog(nil)
	}
}

func (a *App) onKey(key string) {
	switch key {
	case "space":
		a.SaveScreenshot("")
	case "escape", "q":
		a.Stop()
	case "a":
		a.toggleDecoration("axes")
	case "d":
		a.EnableHDR(!a.hdrEnabled)
	case "g":
		a.toggleDecoration("grid")
	case "f":
		a.ShowFPSMeter(!a.fpsShown)
	case "l":
		a.EnableLights(!a.lightsEnabled)
	case "o":
		a.EnableFog(!a.fogEnabled)
	case "p":
		a.toggleDecoration("floor")
	case "r":
		a.ResetCamera(a.defaultView.Position, a.defaultView.LookAt)
	case "s":
		a.EnableShadow(!a.shadowEnabled)
	case "f1", "h":
		a.logHelp()
	}
}

func (a *App) toggleDecoration(name string) {
	group, err := a.deco.Group(name)
	if err != nil {
		return
	}
	group.SetVisible(!group.Visible())
}

func (a *App) logHelp() {
	a.logger.Notice("keyboard shortcuts:")
	a.logger.Notice("  space    screenshot")
	a.logger.Notice("  escape/q quit")
	a.logger.Notice("  a        toggle axes")
	a.logger.Notice("  d        toggle HDR")
	a.logger.Notice("  g        toggle grid")
	a.logger.Notice("  f        toggle fps meter")
	a.logger.Notice("  l        toggle lighting")
	a.logger.Notice("  o        toggle fog")
	a.logger.Notice("  p        toggle floor")
	a.logger.Notice("  r        reset camera")
	a.logger.Notice("  s        toggle shadows")
}

func applyFrame(node *scenegraph.Node, frame []scenegraph.Pose) {
	for _, pose := range frame {
		node.ApplyFrame(pose)
	}
}
