package render

import (
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// View holds the camera state used for a draw.
type View struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in radians.
	FOV float32
}

// Create a view with the default camera placement.
func DefaultView() *View {
	return &View{
		Position: types.XYZ(4.0, -4.0, 1.5),
		LookAt:   types.XYZ(0, 0, 0.5),
		Up:       types.XYZ(0, 0, 1),
		FOV:      1.0,
	}
}

// The Renderer capability consumed by the viewer core. Implementations
// rasterize a scene graph into an RGBA framebuffer; the viewer never
// touches renderer internals directly.
type Renderer interface {
	// Draw the visible content of the given scene graphs from the
	// given view. Graphs are drawn into a single frame; the viewer
	// passes its decoration graph and the user scene graph together.
	Draw(view *View, graphs ...*scenegraph.Graph) error

	// Get the current framebuffer as raw RGBA bytes in bottom-up row
	// order (the GL convention) together with its dimensions.
	Frame() ([]byte, int, int)

	// Replace the light rig.
	SetLights(lights []Light)

	// Set the fog state. A nil fog disables it.
	SetFog(fog *Fog)

	// Turn HDR tone-mapping on or off.
	EnableHDR(enable bool)

	// Set the background clear color.
	SetBackgroundColor(color types.Vec3)

	// Release renderer resources.
	Close()
}

// Fog describes exponential-squared distance fog.
type Fog struct {
	Color   types.Vec3
	Density float32
}
