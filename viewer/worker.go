package viewer

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/ikalevatykh/panda3d-viewer/log"
)

const (
	// At most this many pending commands are drained between frames so
	// a burst of host calls cannot starve the render cadence.
	drainBudget = 100

	// Poll wait for the next pending command between frames.
	pollTimeout = time.Millisecond
)

// RunWorker is the render worker entry point. It reads the host
// configuration from the connection, builds the application and then
// runs a single-threaded loop interleaving render steps with command
// dispatch. The loop exits when the app closes; a pending join gets
// its reply just before the worker returns.
func RunWorker(conn io.ReadWriteCloser) error {
	// The window system requires that the render loop stays on the OS
	// thread that created the window.
	runtime.LockOSThread()

	logger := log.New("worker")
	transport := NewTransport(conn)
	defer transport.Close()

	app, err := handshake(transport)
	if err != nil {
		return err
	}
	defer app.Destroy()
	logger.Info("render worker started")

	joinPending := false
	for !app.closed() {
		if err := app.Step(); err != nil && !errors.Is(err, ErrClosed) {
			logger.Errorf("render step failed: %s", err)
		}

		for budget := 0; budget < drainBudget; budget++ {
			msg, err := transport.Recv(pollTimeout)
			if errors.Is(err, ErrTimeout) {
				break
			}
			if err != nil {
				logger.Info("host connection lost")
				app.Stop()
				break
			}

			req, ok := msg.(request)
			if !ok {
				transport.Send(reply{Err: &remoteError{Message: "viewer: unexpected message"}})
				continue
			}

			if req.Method == "step" {
				// Answer immediately and yield to the render loop so
				// the next command observes a fresh frame.
				transport.Send(reply{})
				break
			}
			if req.Method == "join" {
				// The reply is held until the loop exits.
				joinPending = true
				continue
			}

			value, cmdErr := dispatch(app, req)
			if sendErr := transport.Send(reply{Value: value, Err: encodeError(cmdErr)}); sendErr != nil {
				logger.Info("host connection lost")
				app.Stop()
				break
			}
		}
	}

	if joinPending {
		transport.Send(reply{})
	}
	logger.Info("render worker stopped")
	return nil
}

// Read the init command, build the app and answer the handshake. A
// failed renderer construction is shipped back as a startup error.
func handshake(transport *Transport) (*App, error) {
	msg, err := transport.Recv(0)
	if err != nil {
		return nil, fmt.Errorf("viewer: no init command: %w", err)
	}
	req, ok := msg.(request)
	if !ok || req.Method != "init" {
		return nil, fmt.Errorf("viewer: expected an init command")
	}
	args, ok := req.Args.(initArgs)
	if !ok {
		return nil, badArgs("init")
	}

	app, err := NewApp(ParseConfig(args.Config))
	if err != nil {
		transport.Send(reply{Err: &remoteError{Kind: kindStartup, Message: err.Error()}})
		return nil, err
	}

	if err := transport.Send(reply{}); err != nil {
		app.Destroy()
		return nil, err
	}
	return app, nil
}
