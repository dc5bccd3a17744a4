package viewer

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
)

// Start a worker loop on an in-memory pipe and connect a proxy to it,
// the same wiring as the spawned process but without the exec.
func startTestWorker(t *testing.T) *Proxy {
	t.Helper()

	hostConn, workerConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunWorker(workerConn)
	}()

	config := NewConfig()
	config.SetWindowType("offscreen")
	config.SetWindowSize(64, 64)

	proxy, err := newProxyConn(NewTransport(hostConn), config)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		proxy.Destroy()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("worker loop did not exit")
		}
	})
	return proxy
}

func TestProxyCommandPairing(t *testing.T) {
	proxy := startTestWorker(t)

	// A sequence of commands with interleaved steps: each reply must
	// pair with its own request, so the error pattern proves the FIFO
	// discipline.
	if err := proxy.AppendGroup("robot", true, 1); err != nil {
		t.Fatal(err)
	}
	if err := proxy.Step(); err != nil {
		t.Fatal(err)
	}
	if err := proxy.AppendBox("robot", "body", types.XYZ(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := proxy.Step(); err != nil {
		t.Fatal(err)
	}

	err := proxy.AppendGroup("robot", false, 1)
	var duplicate *scenegraph.DuplicateGroupError
	if !errors.As(err, &duplicate) || duplicate.Path != "robot" {
		t.Fatalf("expected DuplicateGroupError for 'robot'; got %v", err)
	}

	err = proxy.RemoveGroup("ghost")
	var unknown *scenegraph.UnknownGroupError
	if !errors.As(err, &unknown) || unknown.Path != "ghost" {
		t.Fatalf("expected UnknownGroupError for 'ghost'; got %v", err)
	}

	err = proxy.UpdatePointCloud("robot", "cloud",
		[]types.Vec3{{0, 0, 0}, {1, 0, 0}},
		[]types.Vec4{{1, 0, 0, 1}},
		nil, nil)
	if !errors.Is(err, scenegraph.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch; got %v", err)
	}

	if err := proxy.SetMaterial("robot", "body", types.XYZW(0, 1, 0, 1)); err != nil {
		t.Fatal(err)
	}
}

func TestProxyMoveNodes(t *testing.T) {
	proxy := startTestWorker(t)

	if err := proxy.AppendGroup("robot", true, 1); err != nil {
		t.Fatal(err)
	}
	if err := proxy.AppendSphere("robot", "head", 0.5); err != nil {
		t.Fatal(err)
	}

	poses := map[string]scenegraph.Pose{
		"head":    scenegraph.PoseAt(types.XYZ(0, 0, 1), types.QuatIdent()),
		"missing": scenegraph.PoseAt(types.XYZ(9, 9, 9), types.QuatIdent()),
	}
	if err := proxy.MoveNodes("robot", poses); err != nil {
		t.Fatal(err)
	}
}

func TestProxyScreenshotScenario(t *testing.T) {
	proxy := startTestWorker(t)

	if err := proxy.AppendGroup("g", true, 1); err != nil {
		t.Fatal(err)
	}
	if err := proxy.AppendBox("g", "b", types.XYZ(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := proxy.SetMaterial("g", "b", types.XYZW(1, 0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if err := proxy.Step(); err != nil {
		t.Fatal(err)
	}

	img, err := proxy.GetScreenshot("RGB")
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 64 || img.Height != 64 || img.Channels != 3 {
		t.Fatalf("unexpected screenshot shape %dx%dx%d", img.Width, img.Height, img.Channels)
	}
	if len(img.Pix) != 64*64*3 {
		t.Fatalf("unexpected buffer length %d", len(img.Pix))
	}

	visible := false
	for _, b := range img.Pix {
		if b != 0 {
			visible = true
			break
		}
	}
	if !visible {
		t.Fatal("expected a non-background region in the screenshot")
	}
}

func TestProxyClosedAfterStop(t *testing.T) {
	proxy := startTestWorker(t)

	if err := proxy.Stop(); err != nil {
		t.Fatal(err)
	}

	// Every further call must fail fast, never hang.
	failed := make(chan error, 1)
	go func() {
		failed <- proxy.AppendGroup("late", true, 1)
	}()
	select {
	case err := <-failed:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed; got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("call after stop hung")
	}

	if err := proxy.Join(); err != nil {
		t.Fatalf("expected join after stop to return quietly; got %v", err)
	}
	if err := proxy.Stop(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from a second stop; got %v", err)
	}
}

func TestProxyToggles(t *testing.T) {
	proxy := startTestWorker(t)

	toggles := []func(bool) error{
		proxy.EnableLights,
		proxy.EnableShadow,
		proxy.EnableHDR,
		proxy.EnableFog,
		proxy.ShowAxes,
		proxy.ShowGrid,
		proxy.ShowFloor,
		proxy.ShowFPSMeter,
	}
	for i, toggle := range toggles {
		if err := toggle(i%2 == 0); err != nil {
			t.Fatal(err)
		}
	}

	if err := proxy.EnableLight(1, false); err != nil {
		t.Fatal(err)
	}
	if err := proxy.EnableLight(99, true); err == nil {
		t.Fatal("expected an error for an out-of-range light index")
	}
	if err := proxy.SetBackgroundColor(types.XYZ(0.1, 0.2, 0.3)); err != nil {
		t.Fatal(err)
	}
	if err := proxy.ResetCamera(types.XYZ(2, 2, 2), types.XYZ(0, 0, 0)); err != nil {
		t.Fatal(err)
	}
}

func TestProxyStartupSilentPeer(t *testing.T) {
	// A peer that reads commands but never answers the handshake, the
	// behavior of a host binary without a worker command: the proxy must
	// fail with a startup error instead of hanging.
	hostConn, workerConn := net.Pipe()
	go io.Copy(io.Discard, workerConn)
	t.Cleanup(func() { workerConn.Close() })

	_, err := newProxyConn(NewTransport(hostConn), NewConfig())
	if !errors.Is(err, ErrStartup) {
		t.Fatalf("expected a startup error; got %v", err)
	}
	if !strings.Contains(err.Error(), "worker command") {
		t.Fatalf("expected the error to name the worker command contract; got %v", err)
	}
}
