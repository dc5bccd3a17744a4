package render

import (
	"bytes"
	"testing"

	"github.com/ikalevatykh/panda3d-viewer/geometry"
	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

func newTestScene(t *testing.T) *scenegraph.Graph {
	t.Helper()
	graph := scenegraph.NewGraph(1)
	group, err := graph.CreateGroup("g", true, 1)
	if err != nil {
		t.Fatal(err)
	}
	group.AttachNode("box", geometry.MakeBox())
	return graph
}

func drawFrame(t *testing.T, r Renderer, graph *scenegraph.Graph) []byte {
	t.Helper()
	if err := r.Draw(DefaultView(), graph); err != nil {
		t.Fatal(err)
	}
	pix, _, _ := r.Frame()
	frame := make([]byte, len(pix))
	copy(frame, pix)
	return frame
}

func countNonBackground(pix []byte, bg [3]byte) int {
	count := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != bg[0] || pix[i+1] != bg[1] || pix[i+2] != bg[2] {
			count++
		}
	}
	return count
}

func TestSoftwareClear(t *testing.T) {
	r := NewSoftware(Options{FrameW: 16, FrameH: 16, Background: types.XYZ(0, 0, 1)})
	defer r.Close()

	pix := drawFrame(t, r, scenegraph.NewGraph(1))
	for i := 0; i < len(pix); i += 4 {
		if pix[i] != 0 || pix[i+1] != 0 || pix[i+2] != 255 || pix[i+3] != 255 {
			t.Fatalf("expected pure background at pixel %d; got %v", i/4, pix[i:i+4])
		}
	}
}

func TestSoftwareBoxVisible(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()

	graph := newTestScene(t)
	pix := drawFrame(t, r, graph)

	if visible := countNonBackground(pix, [3]byte{0, 0, 0}); visible == 0 {
		t.Fatal("expected the box to cover some pixels")
	}
}

func TestSoftwareLightsAffectShading(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()
	graph := newTestScene(t)

	unlit := drawFrame(t, r, graph)
	r.SetLights(DefaultLights(false))
	lit := drawFrame(t, r, graph)

	if bytes.Equal(unlit, lit) {
		t.Fatal("expected the light rig to change the shading")
	}
}

func TestSoftwareFog(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()
	graph := newTestScene(t)

	clear := drawFrame(t, r, graph)
	r.SetFog(&Fog{Color: types.XYZ(0.5, 0.5, 0.5), Density: 0.2})
	foggy := drawFrame(t, r, graph)

	if bytes.Equal(clear, foggy) {
		t.Fatal("expected fog to change the frame")
	}

	r.SetFog(nil)
	restored := drawFrame(t, r, graph)
	if !bytes.Equal(clear, restored) {
		t.Fatal("expected disabling fog to restore the frame")
	}
}

func TestSoftwareHDR(t *testing.T) {
	r := NewSoftware(Options{FrameW: 32, FrameH: 32, Background: types.XYZ(1, 1, 1)})
	defer r.Close()

	plain := drawFrame(t, r, scenegraph.NewGraph(1))
	r.EnableHDR(true)
	mapped := drawFrame(t, r, scenegraph.NewGraph(1))

	if bytes.Equal(plain, mapped) {
		t.Fatal("expected tone mapping to compress the background")
	}
}

func TestSoftwareMaterialColor(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()

	graph := newTestScene(t)
	group, _ := graph.Group("g")
	group.Node("box").SetColor(types.XYZW(1, 0, 0, 1))

	pix := drawFrame(t, r, graph)

	reds := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 0 && pix[i+1] == 0 && pix[i+2] == 0 {
			reds++
		}
	}
	if reds == 0 {
		t.Fatal("expected red box pixels")
	}
}

func TestSoftwarePointCloud(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()

	graph := scenegraph.NewGraph(1)
	group, _ := graph.CreateGroup("cloud", true, 1)
	node := group.AttachNode("points", nil)
	err := node.UpdatePoints(
		[]types.Vec3{{0, 0, 0.5}, {0.2, 0, 0.5}, {0, 0.2, 0.5}},
		[]types.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}},
		nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	pix := drawFrame(t, r, graph)
	if visible := countNonBackground(pix, [3]byte{0, 0, 0}); visible == 0 {
		t.Fatal("expected cloud points to cover some pixels")
	}
}

func TestSoftwareHiddenGroup(t *testing.T) {
	r := NewSoftware(Options{FrameW: 64, FrameH: 64})
	defer r.Close()

	graph := newTestScene(t)
	graph.SetGroupVisible("g", false)

	pix := drawFrame(t, r, graph)
	if visible := countNonBackground(pix, [3]byte{0, 0, 0}); visible != 0 {
		t.Fatal("expected an empty frame for a hidden group")
	}
}

func TestSoftwareClosed(t *testing.T) {
	r := NewSoftware(Options{FrameW: 16, FrameH: 16})
	r.Close()
	if err := r.Draw(DefaultView(), scenegraph.NewGraph(1)); err != ErrClosed {
		t.Fatalf("expected ErrClosed; got %v", err)
	}
}
