package render

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
)

// Window wraps the software renderer with an onscreen glfw window: each
// draw rasterizes the scene into the framebuffer and blits it to the
// window surface. Keyboard input is forwarded to a registered handler.
//
// glfw requires that the window is created and driven from the same OS
// thread; the render worker locks its goroutine accordingly.
type Window struct {
	Renderer

	logger log.Logger
	window *glfw.Window
	texID  uint32

	title    string
	showFPS  bool
	frames   int
	fpsStamp time.Time

	keyHandler func(key string)
}

// Open an onscreen window backed by a software framebuffer.
func NewWindow(opts Options) (*Window, error) {
	opts = opts.withDefaults()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDisplay, err)
	}

	if opts.FixedSize {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}
	if opts.Multisamples > 0 {
		glfw.WindowHint(glfw.Samples, int(opts.Multisamples))
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(int(opts.FrameW), int(opts.FrameH), opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: %s", ErrNoDisplay, err)
	}
	window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("render: could not init opengl: %s", err)
	}

	w := &Window{
		Renderer: NewSoftware(opts),
		logger:   log.New("window"),
		window:   window,
		title:    opts.Title,
		fpsStamp: time.Now(),
	}

	gl.GenTextures(1, &w.texID)
	gl.BindTexture(gl.TEXTURE_2D, w.texID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	window.SetKeyCallback(w.onKeyEvent)

	w.logger.Infof("opened %dx%d window", opts.FrameW, opts.FrameH)
	return w, nil
}

// Register a handler for keyboard shortcuts. Keys are reported as
// lower-case names ("a", "space", "escape", "f1").
func (w *Window) SetKeyHandler(handler func(key string)) {
	w.keyHandler = handler
}

// Show the frame rate in the window title.
func (w *Window) ShowFPSMeter(show bool) {
	w.showFPS = show
	if !show {
		w.window.SetTitle(w.title)
	}
}

// Returns true once the user has requested the window to close.
func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

// Request the window to close.
func (w *Window) RequestClose() {
	w.window.SetShouldClose(true)
}

// Draw the scene into the framebuffer and present it on the window.
func (w *Window) Draw(view *View, graphs ...*scenegraph.Graph) error {
	if err := w.Renderer.Draw(view, graphs...); err != nil {
		return err
	}

	pix, fw, fh := w.Renderer.Frame()

	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.Enable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, w.texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(fw), int32(fh), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))

	// The framebuffer rows are bottom-up which matches the GL texture
	// origin, so a plain fullscreen quad presents it unflipped.
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(-1, -1)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(1, -1)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(-1, 1)
	gl.End()

	w.window.SwapBuffers()
	glfw.PollEvents()

	w.countFrame()
	return nil
}

func (w *Window) countFrame() {
	if !w.showFPS {
		return
	}
	w.frames++
	if elapsed := time.Since(w.fpsStamp); elapsed >= time.Second {
		fps := float64(w.frames) / elapsed.Seconds()
		w.window.SetTitle(fmt.Sprintf("%s [%.1f fps]", w.title, fps))
		w.frames = 0
		w.fpsStamp = time.Now()
	}
}

// Release the window and renderer resources.
func (w *Window) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
		glfw.Terminate()
	}
	w.Renderer.Close()
}

func (w *Window) onKeyEvent(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press || w.keyHandler == nil {
		return
	}

	var name string
	switch {
	case key == glfw.KeySpace:
		name = "space"
	case key == glfw.KeyEscape:
		name = "escape"
	case key == glfw.KeyF1:
		name = "f1"
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		name = string(rune('a' + key - glfw.KeyA))
	default:
		return
	}
	w.keyHandler(name)
}

// Compile-time interface checks.
var (
	_ Renderer = (*softRenderer)(nil)
	_ Renderer = (*Window)(nil)
)
