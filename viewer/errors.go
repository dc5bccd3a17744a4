package viewer

import (
	"errors"
	"fmt"

	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
)

var (
	// The render worker failed to initialize or did not answer the
	// startup handshake in time.
	ErrStartup = errors.New("viewer: could not start the render worker")

	// The viewer has been stopped or the user closed the main window;
	// every further call fails fast with this error.
	ErrClosed = errors.New("viewer: viewer is closed")

	// The render worker did not reply within the bounded wait. The
	// proxy must be treated as unusable afterwards.
	ErrTimeout = errors.New("viewer: no reply from the render worker")
)

// Error kinds understood on both sides of the command channel.
const (
	kindStartup        = "startup"
	kindClosed         = "closed"
	kindUnknownGroup   = "unknown-group"
	kindDuplicateGroup = "duplicate-group"
	kindShapeMismatch  = "shape-mismatch"
	kindInvalidPath    = "invalid-path"
)

// remoteError is the wire form of an error raised while executing a
// dispatched command. Known kinds are reconstructed as the matching
// typed error on the host side; anything else crosses as plain text.
type remoteError struct {
	Kind    string
	Path    string
	Message string
}

func encodeError(err error) *remoteError {
	if err == nil {
		return nil
	}

	remote := &remoteError{Message: err.Error()}

	var unknown *scenegraph.UnknownGroupError
	var duplicate *scenegraph.DuplicateGroupError
	switch {
	case errors.Is(err, ErrClosed):
		remote.Kind = kindClosed
	case errors.Is(err, ErrStartup):
		remote.Kind = kindStartup
	case errors.As(err, &unknown):
		remote.Kind = kindUnknownGroup
		remote.Path = unknown.Path
	case errors.As(err, &duplicate):
		remote.Kind = kindDuplicateGroup
		remote.Path = duplicate.Path
	case errors.Is(err, scenegraph.ErrShapeMismatch):
		remote.Kind = kindShapeMismatch
	case errors.Is(err, scenegraph.ErrInvalidPath):
		remote.Kind = kindInvalidPath
	}
	return remote
}

// Reconstruct the host-side error value for an error reply.
func (e *remoteError) resolve() error {
	switch e.Kind {
	case kindClosed:
		return ErrClosed
	case kindStartup:
		return fmt.Errorf("%w: %s", ErrStartup, e.Message)
	case kindUnknownGroup:
		return &scenegraph.UnknownGroupError{Path: e.Path}
	case kindDuplicateGroup:
		return &scenegraph.DuplicateGroupError{Path: e.Path}
	case kindShapeMismatch:
		return scenegraph.ErrShapeMismatch
	case kindInvalidPath:
		return scenegraph.ErrInvalidPath
	}
	return errors.New(e.Message)
}
