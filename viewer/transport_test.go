package viewer

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ikalevatykh/panda3d-viewer/types"
)

func newTransportPair(t *testing.T) (*Transport, *Transport) {
	t.Helper()
	hostConn, workerConn := net.Pipe()
	host := NewTransport(hostConn)
	worker := NewTransport(workerConn)
	t.Cleanup(func() {
		host.Close()
		worker.Close()
	})
	return host, worker
}

func TestTransportRequestRoundTrip(t *testing.T) {
	host, worker := newTransportPair(t)

	sent := request{Method: "append_box", Args: appendBoxArgs{
		Path: "robot",
		Name: "body",
		Size: types.XYZ(1, 2, 3),
	}}
	go func() {
		host.Send(sent)
	}()

	msg, err := worker.Recv(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	req, ok := msg.(request)
	if !ok {
		t.Fatalf("expected a request; got %T", msg)
	}
	if req.Method != "append_box" {
		t.Fatalf("unexpected method '%s'", req.Method)
	}
	args, ok := req.Args.(appendBoxArgs)
	if !ok {
		t.Fatalf("expected appendBoxArgs; got %T", req.Args)
	}
	if args.Path != "robot" || args.Name != "body" || args.Size != types.XYZ(1, 2, 3) {
		t.Fatalf("unexpected arguments %+v", args)
	}
}

func TestTransportErrorReply(t *testing.T) {
	host, worker := newTransportPair(t)

	go func() {
		worker.Send(reply{Err: &remoteError{Kind: kindClosed, Message: "closed"}})
	}()

	msg, err := host.Recv(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	rep, ok := msg.(reply)
	if !ok {
		t.Fatalf("expected a reply; got %T", msg)
	}
	if rep.Err == nil || !errors.Is(rep.Err.resolve(), ErrClosed) {
		t.Fatalf("expected a closed error reply; got %+v", rep)
	}
}

func TestTransportRecvTimeout(t *testing.T) {
	host, _ := newTransportPair(t)

	start := time.Now()
	_, err := host.Recv(20 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout; got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout wait took far too long")
	}
}

func TestTransportRecvAfterClose(t *testing.T) {
	host, worker := newTransportPair(t)

	worker.Close()
	if _, err := host.Recv(time.Second); err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("expected a connection error; got %v", err)
	}
}
