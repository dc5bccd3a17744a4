package viewer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

const (
	// Bounded wait for a reply and for the startup handshake. A missed
	// deadline is fatal for the proxy, not retried.
	replyTimeout   = 2 * time.Second
	startupTimeout = 2 * time.Second
)

// Proxy is the host-side stand-in for the render worker process. Every
// method encodes a command, sends it over the transport and blocks for
// the correlated reply. Replies pair with requests purely by channel
// order: the mutex keeps exactly one call in flight at a time.
type Proxy struct {
	logger    log.Logger
	transport *Transport
	cmd       *exec.Cmd

	mu     sync.Mutex
	closed bool
}

// Spawn the render worker process and wait for its startup handshake.
// The worker is this executable re-run with the hidden worker command,
// so the host binary must route its "worker" argument into RunWorker;
// a binary without that command never answers the handshake and the
// startup fails after the timeout. The command pipe rides on the
// worker's standard streams.
func NewProxy(config *Config) (*Proxy, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}

	cmd := exec.Command(executable, "worker")
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}

	conn := &workerConn{stdin: stdin, stdout: stdout}
	proxy, err := newProxyConn(NewTransport(conn), config)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}
	proxy.cmd = cmd
	return proxy, nil
}

// Create a proxy over an established transport and perform the startup
// handshake: send the configuration, await the worker's first reply.
func newProxyConn(transport *Transport, config *Config) (*Proxy, error) {
	if config == nil {
		config = NewConfig()
	}

	proxy := &Proxy{
		logger:    log.New("proxy"),
		transport: transport,
	}

	if err := transport.Send(request{Method: "init", Args: initArgs{Config: config.String()}}); err != nil {
		transport.Close()
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}

	msg, err := transport.Recv(startupTimeout)
	if err != nil {
		transport.Close()
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%w: no handshake from the render worker within %s; "+
				"check that this binary routes the worker command into RunWorker", ErrStartup, startupTimeout)
		}
		return nil, fmt.Errorf("%w: %s", ErrStartup, err)
	}
	rep, ok := msg.(reply)
	if !ok {
		transport.Close()
		return nil, fmt.Errorf("%w: unexpected handshake message", ErrStartup)
	}
	if rep.Err != nil {
		transport.Close()
		return nil, rep.Err.resolve()
	}

	proxy.logger.Info("render worker ready")
	return proxy, nil
}

// Send one command and block for its reply. Worker-side errors are
// reconstructed and returned at the call site; a transport failure or
// a missed deadline makes the proxy unusable.
func (p *Proxy) call(method string, args interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	if err := p.transport.Send(request{Method: method, Args: args}); err != nil {
		p.closed = true
		return nil, fmt.Errorf("%w: %s", ErrClosed, err)
	}

	timeout := replyTimeout
	if method == "join" {
		// join by contract outlives any bound: the reply only arrives
		// once the user closes the main window.
		timeout = 0
	}

	msg, err := p.transport.Recv(timeout)
	if err != nil {
		p.closed = true
		if errors.Is(err, ErrTimeout) {
			return nil, ErrTimeout
		}
		return nil, ErrClosed
	}

	rep, ok := msg.(reply)
	if !ok {
		p.closed = true
		return nil, fmt.Errorf("viewer: unexpected message from the render worker")
	}
	if rep.Err != nil {
		err := rep.Err.resolve()
		if errors.Is(err, ErrClosed) {
			p.closed = true
		}
		return nil, err
	}

	// The worker loop exits after answering these; fail fast locally
	// from now on instead of talking to a dead pipe.
	if method == "stop" || method == "join" {
		p.closed = true
	}
	return rep.Value, nil
}

// Append a root node for a group of nodes.
func (p *Proxy) AppendGroup(path string, removeIfExists bool, scale float32) error {
	_, err := p.call("append_group", appendGroupArgs{Path: path, RemoveIfExists: removeIfExists, Scale: scale})
	return err
}

// Remove a group of nodes.
func (p *Proxy) RemoveGroup(path string) error {
	_, err := p.call("remove_group", removeGroupArgs{Path: path})
	return err
}

// Turn a node group rendering on or off.
func (p *Proxy) ShowGroup(path string, show bool) error {
	_, err := p.call("show_group", showGroupArgs{Path: path, Show: show})
	return err
}

// Set poses for nodes within a group.
func (p *Proxy) MoveNodes(path string, poses map[string]scenegraph.Pose) error {
	_, err := p.call("move_nodes", moveNodesArgs{Path: path, Poses: poses})
	return err
}

// Append a mesh node loaded from a file to the group.
func (p *Proxy) AppendMesh(path, name, meshPath string, scale types.Vec3, frame ...scenegraph.Pose) error {
	_, err := p.call("append_mesh", appendMeshArgs{Path: path, Name: name, MeshPath: meshPath, Scale: scale, Frame: frame})
	return err
}

// Append a capsule primitive node to the group.
func (p *Proxy) AppendCapsule(path, name string, radius, length float32, frame ...scenegraph.Pose) error {
	_, err := p.call("append_capsule", appendCapsuleArgs{Path: path, Name: name, Radius: radius, Length: length, Frame: frame})
	return err
}

// Append a cylinder primitive node to the group.
func (p *Proxy) AppendCylinder(path, name string, radius, length float32, frame ...scenegraph.Pose) error {
	_, err := p.call("append_cylinder", appendCylinderArgs{Path: path, Name: name, Radius: radius, Length: length, Frame: frame})
	return err
}

// Append a box primitive node to the group.
func (p *Proxy) AppendBox(path, name string, size types.Vec3, frame ...scenegraph.Pose) error {
	_, err := p.call("append_box", appendBoxArgs{Path: path, Name: name, Size: size, Frame: frame})
	return err
}

// Append a plane primitive node to the group.
func (p *Proxy) AppendPlane(path, name string, size types.Vec2, frame ...scenegraph.Pose) error {
	_, err := p.call("append_plane", appendPlaneArgs{Path: path, Name: name, Size: size, Frame: frame})
	return err
}

// Append a sphere primitive node to the group.
func (p *Proxy) AppendSphere(path, name string, radius float32, frame ...scenegraph.Pose) error {
	_, err := p.call("append_sphere", appendSphereArgs{Path: path, Name: name, Radius: radius, Frame: frame})
	return err
}

// Replace the point cloud buffers of a node.
func (p *Proxy) UpdatePointCloud(path, name string, vertices []types.Vec3, colors []types.Vec4, texCoords []types.Vec2, texture *geometry.Image) error {
	_, err := p.call("update_point_cloud", updatePointCloudArgs{
		Path:      path,
		Name:      name,
		Vertices:  vertices,
		Colors:    colors,
		TexCoords: texCoords,
		Texture:   texture,
	})
	return err
}

// Override the material color of a node.
func (p *Proxy) SetMaterial(path, name string, color types.Vec4) error {
	_, err := p.call("set_material", setMaterialArgs{Path: path, Name: name, Color: color})
	return err
}

// Swap the texture map of a node.
func (p *Proxy) SetTexture(path, name, texturePath string) error {
	_, err := p.call("set_texture", setTextureArgs{Path: path, Name: name, TexturePath: texturePath})
	return err
}

// Reset the camera position and aim point.
func (p *Proxy) ResetCamera(pos, lookAt types.Vec3) error {
	_, err := p.call("reset_camera", resetCameraArgs{Pos: pos, LookAt: lookAt})
	return err
}

// Turn lighting on or off.
func (p *Proxy) EnableLights(enable bool) error {
	_, err := p.call("enable_lights", toggleArgs{Enable: enable})
	return err
}

// Turn a single light of the rig on or off.
func (p *Proxy) EnableLight(index int, enable bool) error {
	_, err := p.call("enable_light", enableLightArgs{Index: index, Enable: enable})
	return err
}

// Turn shadow casting on or off.
func (p *Proxy) EnableShadow(enable bool) error {
	_, err := p.call("enable_shadow", toggleArgs{Enable: enable})
	return err
}

// Turn the HDR tone-mapping effect on or off.
func (p *Proxy) EnableHDR(enable bool) error {
	_, err := p.call("enable_hdr", toggleArgs{Enable: enable})
	return err
}

// Turn distance fog on or off.
func (p *Proxy) EnableFog(enable bool) error {
	_, err := p.call("enable_fog", toggleArgs{Enable: enable})
	return err
}

// Turn the world axes rendering on or off.
func (p *Proxy) ShowAxes(show bool) error {
	_, err := p.call("show_axes", toggleArgs{Enable: show})
	return err
}

// Turn the ground grid rendering on or off.
func (p *Proxy) ShowGrid(show bool) error {
	_, err := p.call("show_grid", toggleArgs{Enable: show})
	return err
}

// Turn the floor plane rendering on or off.
func (p *Proxy) ShowFloor(show bool) error {
	_, err := p.call("show_floor", toggleArgs{Enable: show})
	return err
}

// Show the frame rate in the window title.
func (p *Proxy) ShowFPSMeter(show bool) error {
	_, err := p.call("show_fps_meter", toggleArgs{Enable: show})
	return err
}

// Set the background clear color.
func (p *Proxy) SetBackgroundColor(color types.Vec3) error {
	_, err := p.call("set_background_color", setBackgroundArgs{Color: color})
	return err
}

// Capture the current frame in the worker and write it to disk there.
func (p *Proxy) SaveScreenshot(filename string) (bool, error) {
	value, err := p.call("save_screenshot", saveScreenshotArgs{Filename: filename})
	if err != nil {
		return false, err
	}
	saved, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("viewer: unexpected save_screenshot reply")
	}
	return saved, nil
}

// Capture the current frame in the worker and copy it back.
func (p *Proxy) GetScreenshot(format string) (*geometry.Image, error) {
	value, err := p.call("get_screenshot", getScreenshotArgs{Format: format})
	if err != nil {
		return nil, err
	}
	img, ok := value.(*geometry.Image)
	if !ok {
		return nil, fmt.Errorf("viewer: unexpected get_screenshot reply")
	}
	return img, nil
}

// Advance the worker render loop by exactly one frame.
func (p *Proxy) Step() error {
	_, err := p.call("step", nil)
	return err
}

// Block until the user closes the worker's main window. Returns nil
// when the worker is already closed.
func (p *Proxy) Join() error {
	_, err := p.call("join", nil)
	if err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

// Stop the worker render loop.
func (p *Proxy) Stop() error {
	_, err := p.call("stop", nil)
	return err
}

// Stop the worker if still running, close the command pipe and reap
// the worker process.
func (p *Proxy) Destroy() error {
	p.mu.Lock()
	if !p.closed {
		if err := p.transport.Send(request{Method: "stop", Args: nil}); err == nil {
			p.transport.Recv(replyTimeout)
		}
		p.closed = true
	}
	p.mu.Unlock()

	p.transport.Close()
	if p.cmd != nil {
		p.cmd.Wait()
	}
	return nil
}

// Duplex connection over the worker process standard streams.
type workerConn struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (c *workerConn) Read(p []byte) (int, error)  { return c.stdout.Read(p) }
func (c *workerConn) Write(p []byte) (int, error) { return c.stdin.Write(p) }

func (c *workerConn) Close() error {
	c.stdin.Close()
	return c.stdout.Close()
}
