package viewer

import (
	"encoding/gob"
	"fmt"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// request carries one dispatched command host to worker. Args holds
// the per-method argument struct, nil for methods without arguments.
type request struct {
	Method string
	Args   interface{}
}

// reply answers exactly one request, in request order. Either Value or
// Err is set, never both.
type reply struct {
	Value interface{}
	Err   *remoteError
}

// Per-method argument structs. One concrete type per method keeps the
// wire format explicit and lets gob do the copying.
type initArgs struct {
	Config string
}

type appendGroupArgs struct {
	Path           string
	RemoveIfExists bool
	Scale          float32
}

type removeGroupArgs struct {
	Path string
}

type showGroupArgs struct {
	Path string
	Show bool
}

type moveNodesArgs struct {
	Path  string
	Poses map[string]scenegraph.Pose
}

type appendMeshArgs struct {
	Path     string
	Name     string
	MeshPath string
	Scale    types.Vec3
	Frame    []scenegraph.Pose
}

type appendCapsuleArgs struct {
	Path   string
	Name   string
	Radius float32
	Length float32
	Frame  []scenegraph.Pose
}

type appendCylinderArgs struct {
	Path   string
	Name   string
	Radius float32
	Length float32
	Frame  []scenegraph.Pose
}

type appendBoxArgs struct {
	Path  string
	Name  string
	Size  types.Vec3
	Frame []scenegraph.Pose
}

type appendPlaneArgs struct {
	Path  string
	Name  string
	Size  types.Vec2
	Frame []scenegraph.Pose
}

type appendSphereArgs struct {
	Path   string
	Name   string
	Radius float32
	Frame  []scenegraph.Pose
}

type updatePointCloudArgs struct {
	Path      string
	Name      string
	Vertices  []types.Vec3
	Colors    []types.Vec4
	TexCoords []types.Vec2
	Texture   *geometry.Image
}

type setMaterialArgs struct {
	Path  string
	Name  string
	Color types.Vec4
}

type setTextureArgs struct {
	Path        string
	Name        string
	TexturePath string
}

type resetCameraArgs struct {
	Pos    types.Vec3
	LookAt types.Vec3
}

type toggleArgs struct {
	Enable bool
}

type enableLightArgs struct {
	Index  int
	Enable bool
}

type setBackgroundArgs struct {
	Color types.Vec3
}

type saveScreenshotArgs struct {
	Filename string
}

type getScreenshotArgs struct {
	Format string
}

func init() {
	gob.Register(request{})
	gob.Register(reply{})
	gob.Register(false)
	gob.Register(&geometry.Image{})

	gob.Register(initArgs{})
	gob.Register(appendGroupArgs{})
	gob.Register(removeGroupArgs{})
	gob.Register(showGroupArgs{})
	gob.Register(moveNodesArgs{})
	gob.Register(appendMeshArgs{})
	gob.Register(appendCapsuleArgs{})
	gob.Register(appendCylinderArgs{})
	gob.Register(appendBoxArgs{})
	gob.Register(appendPlaneArgs{})
	gob.Register(appendSphereArgs{})
	gob.Register(updatePointCloudArgs{})
	gob.Register(setMaterialArgs{})
	gob.Register(setTextureArgs{})
	gob.Register(resetCameraArgs{})
	gob.Register(toggleArgs{})
	gob.Register(enableLightArgs{})
	gob.Register(setBackgroundArgs{})
	gob.Register(saveScreenshotArgs{})
	gob.Register(getScreenshotArgs{})
}

// The allow-list of dispatchable methods. The worker loop handles
// "step" and "join" itself; everything else goes through this table.
var handlers = map[string]func(app *App, args interface{}) (interface{}, error){
	"append_group": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendGroupArgs)
		if !ok {
			return nil, badArgs("append_group")
		}
		return nil, app.AppendGroup(a.Path, a.RemoveIfExists, a.Scale)
	},
	"remove_group": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(removeGroupArgs)
		if !ok {
			return nil, badArgs("remove_group")
		}
		return nil, app.RemoveGroup(a.Path)
	},
	"show_group": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(showGroupArgs)
		if !ok {
			return nil, badArgs("show_group")
		}
		return nil, app.ShowGroup(a.Path, a.Show)
	},
	"move_nodes": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(moveNodesArgs)
		if !ok {
			return nil, badArgs("move_nodes")
		}
		return nil, app.MoveNodes(a.Path, a.Poses)
	},
	"append_mesh": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendMeshArgs)
		if !ok {
			return nil, badArgs("append_mesh")
		}
		return nil, app.AppendMesh(a.Path, a.Name, a.MeshPath, a.Scale, a.Frame...)
	},
	"append_capsule": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendCapsuleArgs)
		if !ok {
			return nil, badArgs("append_capsule")
		}
		return nil, app.AppendCapsule(a.Path, a.Name, a.Radius, a.Length, a.Frame...)
	},
	"append_cylinder": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendCylinderArgs)
		if !ok {
			return nil, badArgs("append_cylinder")
		}
		return nil, app.AppendCylinder(a.Path, a.Name, a.Radius, a.Length, a.Frame...)
	},
	"append_box": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendBoxArgs)
		if !ok {
			return nil, badArgs("append_box")
		}
		return nil, app.AppendBox(a.Path, a.Name, a.Size, a.Frame...)
	},
	"append_plane": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendPlaneArgs)
		if !ok {
			return nil, badArgs("append_plane")
		}
		return nil, app.AppendPlane(a.Path, a.Name, a.Size, a.Frame...)
	},
	"append_sphere": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(appendSphereArgs)
		if !ok {
			return nil, badArgs("append_sphere")
		}
		return nil, app.AppendSphere(a.Path, a.Name, a.Radius, a.Frame...)
	},
	"update_point_cloud": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(updatePointCloudArgs)
		if !ok {
			return nil, badArgs("update_point_cloud")
		}
		return nil, app.UpdatePointCloud(a.Path, a.Name, a.Vertices, a.Colors, a.TexCoords, a.Texture)
	},
	"set_material": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(setMaterialArgs)
		if !ok {
			return nil, badArgs("set_material")
		}
		return nil, app.SetMaterial(a.Path, a.Name, a.Color)
	},
	"set_texture": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(setTextureArgs)
		if !ok {
			return nil, badArgs("set_texture")
		}
		return nil, app.SetTexture(a.Path, a.Name, a.TexturePath)
	},
	"reset_camera": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(resetCameraArgs)
		if !ok {
			return nil, badArgs("reset_camera")
		}
		return nil, app.ResetCamera(a.Pos, a.LookAt)
	},
	"enable_lights": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("enable_lights")
		}
		return nil, app.EnableLights(a.Enable)
	},
	"enable_light": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(enableLightArgs)
		if !ok {
			return nil, badArgs("enable_light")
		}
		return nil, app.EnableLight(a.Index, a.Enable)
	},
	"enable_shadow": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("enable_shadow")
		}
		return nil, app.EnableShadow(a.Enable)
	},
	"enable_hdr": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("enable_hdr")
		}
		return nil, app.EnableHDR(a.Enable)
	},
	"enable_fog": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("enable_fog")
		}
		return nil, app.EnableFog(a.Enable)
	},
	"show_axes": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("show_axes")
		}
		return nil, app.ShowAxes(a.Enable)
	},
	"show_grid": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("show_grid")
		}
		return nil, app.ShowGrid(a.Enable)
	},
	"show_floor": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("show_floor")
		}
		return nil, app.ShowFloor(a.Enable)
	},
	"show_fps_meter": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(toggleArgs)
		if !ok {
			return nil, badArgs("show_fps_meter")
		}
		return nil, app.ShowFPSMeter(a.Enable)
	},
	"set_background_color": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(setBackgroundArgs)
		if !ok {
			return nil, badArgs("set_background_color")
		}
		return nil, app.SetBackgroundColor(a.Color)
	},
	"save_screenshot": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(saveScreenshotArgs)
		if !ok {
			return nil, badArgs("save_screenshot")
		}
		return app.SaveScreenshot(a.Filename)
	},
	"get_screenshot": func(app *App, args interface{}) (interface{}, error) {
		a, ok := args.(getScreenshotArgs)
		if !ok {
			return nil, badArgs("get_screenshot")
		}
		return app.GetScreenshot(a.Format)
	},
	"stop": func(app *App, args interface{}) (interface{}, error) {
		return nil, app.Stop()
	},
}

func dispatch(app *App, req request) (interface{}, error) {
	handler, ok := handlers[req.Method]
	if !ok {
		return nil, fmt.Errorf("viewer: unknown method '%s'", req.Method)
	}
	return handler(app, req.Args)
}

func badArgs(method string) error {
	return fmt.Errorf("viewer: bad arguments for '%s'", method)
}
