package render

import "github.com/ikalevatykh/panda3d-viewer/types"

type LightType uint8

const (
	AmbientLight LightType = iota
	DirectionalLight
	SpotLight
)

// Light is a single member of the scene light rig.
type Light struct {
	Type  LightType
	Color types.Vec3

	// Position and aim point (directional and spot lights).
	Pos    types.Vec3
	Target types.Vec3

	// Shadow casting flag. Stored per light so that shadow toggles
	// survive light on/off cycles.
	CastShadow bool
}

// Get the normalized direction from the light towards its target.
func (l Light) Direction() types.Vec3 {
	return l.Target.Sub(l.Pos).Normalize()
}

// The default rig: one ambient light plus four tinted lights placed
// above the scene corners, aimed at the origin.
func DefaultLights(spot bool) []Light {
	kind := DirectionalLight
	if spot {
		kind = SpotLight
	}
	return []Light{
		{Type: AmbientLight, Color: types.XYZ(0.2, 0.2, 0.2)},
		{Type: kind, Color: types.XYZ(0.6, 0.8, 0.8), Pos: types.XYZ(8.0, 8.0, 10.0)},
		{Type: kind, Color: types.XYZ(0.8, 0.6, 0.8), Pos: types.XYZ(8.0, -8.0, 10.0)},
		{Type: kind, Color: types.XYZ(0.8, 0.8, 0.6), Pos: types.XYZ(-8.0, 8.0, 10.0)},
		{Type: kind, Color: types.XYZ(0.6, 0.6, 0.8), Pos: types.XYZ(-8.0, -8.0, 10.0)},
	}
}
