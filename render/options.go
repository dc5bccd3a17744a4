package render

import "github.com/ikalevatykh/panda3d-viewer/types"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Window parameters (onscreen mode only).
	Title     string
	FixedSize bool

	// MSAA multisample count, 0 to disable.
	Multisamples uint32

	// Background clear color.
	Background types.Vec3
}

// Fill in defaults for unset options.
func (o Options) withDefaults() Options {
	if o.FrameW == 0 {
		o.FrameW = 800
	}
	if o.FrameH == 0 {
		o.FrameH = 600
	}
	if o.Title == "" {
		o.Title = "Viewer"
	}
	return o
}
