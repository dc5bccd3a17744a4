package viewer

import (
	"fmt"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Runtime is the command surface shared by the in-process application
// and the cross-process proxy. The facade drives one of the two.
type Runtime interface {
	AppendGroup(path string, removeIfExists bool, scale float32) error
	RemoveGroup(path string) error
	ShowGroup(path string, show bool) error
	MoveNodes(path string, poses map[string]scenegraph.Pose) error

	AppendMesh(path, name, meshPath string, scale types.Vec3, frame ...scenegraph.Pose) error
	AppendCapsule(path, name string, radius, length float32, frame ...scenegraph.Pose) error
	AppendCylinder(path, name string, radius, length float32, frame ...scenegraph.Pose) error
	AppendBox(path, name string, size types.Vec3, frame ...scenegraph.Pose) error
	AppendPlane(path, name string, size types.Vec2, frame ...scenegraph.Pose) error
	AppendSphere(path, name string, radius float32, frame ...scenegraph.Pose) error
	UpdatePointCloud(path, name string, vertices []types.Vec3, colors []types.Vec4, texCoords []types.Vec2, texture *geometry.Image) error

	SetMaterial(path, name string, color types.Vec4) error
	SetTexture(path, name, texturePath string) error

	ResetCamera(pos, lookAt types.Vec3) error
	EnableLights(enable bool) error
	EnableLight(index int, enable bool) error
	EnableShadow(enable bool) error
	EnableHDR(enable bool) error
	EnableFog(enable bool) error
	ShowAxes(show bool) error
	ShowGrid(show bool) error
	ShowFloor(show bool) error
	ShowFPSMeter(show bool) error
	SetBackgroundColor(color types.Vec3) error

	SaveScreenshot(filename string) (bool, error)
	GetScreenshot(format string) (*geometry.Image, error)

	Step() error
	Join() error
	Stop() error
	Destroy() error
}

// Compile-time interface checks.
var (
	_ Runtime = (*App)(nil)
	_ Runtime = (*Proxy)(nil)
)

// Viewer is the public facade. Onscreen it spawns a render worker
// process and talks to it through the proxy; offscreen it drives the
// application directly in this process. Either way every call is
// observed as synchronous by the caller.
type Viewer struct {
	Runtime

	onscreen bool
}

// Open a viewer according to the configuration. A nil config opens an
// onscreen window with default settings. Onscreen mode re-runs the
// current executable with the hidden worker command, so the host
// binary must route that command into RunWorker (the bundled CLI
// does); otherwise the startup handshake times out.
func New(config *Config) (*Viewer, error) {
	if config == nil {
		config = NewConfig()
	}

	windowType := config.GetString("window-type", "onscreen")
	switch windowType {
	case "onscreen":
		proxy, err := NewProxy(config)
		if err != nil {
			return nil, err
		}
		return &Viewer{Runtime: proxy, onscreen: true}, nil
	case "offscreen":
		app, err := NewApp(config)
		if err != nil {
			return nil, err
		}
		return &Viewer{Runtime: app}, nil
	}
	return nil, fmt.Errorf("viewer: unknown window type '%s'", windowType)
}

// Open an onscreen viewer with the given window title.
func Open(title string) (*Viewer, error) {
	config := NewConfig()
	config.SetWindowTitle(title)
	return New(config)
}

// Block until the user closes the main window. A no-op offscreen,
// where there is no user-closable window loop to wait on.
func (v *Viewer) Join() error {
	if !v.onscreen {
		return nil
	}
	return v.Runtime.Join()
}

// Capture a screenshot and write it to disk. A fresh frame is drawn
// first so the capture reflects the latest scene state.
func (v *Viewer) SaveScreenshot(filename string) (bool, error) {
	if err := v.Step(); err != nil {
		return false, err
	}
	return v.Runtime.SaveScreenshot(filename)
}

// Capture a screenshot as an interleaved byte image in top-down row
// order, e.g. format "RGB" or "BGRA". A fresh frame is drawn first.
func (v *Viewer) GetScreenshot(format string) (*geometry.Image, error) {
	if err := v.Step(); err != nil {
		return nil, err
	}
	return v.Runtime.GetScreenshot(format)
}
