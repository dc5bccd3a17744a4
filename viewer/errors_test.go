package viewer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
)

func TestErrorWireRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, got error)
	}{
		{
			name: "closed",
			err:  ErrClosed,
			check: func(t *testing.T, got error) {
				if !errors.Is(got, ErrClosed) {
					t.Fatalf("expected ErrClosed; got %v", got)
				}
			},
		},
		{
			name: "wrapped closed",
			err:  fmt.Errorf("%w: pipe broken", ErrClosed),
			check: func(t *testing.T, got error) {
				if !errors.Is(got, ErrClosed) {
					t.Fatalf("expected ErrClosed; got %v", got)
				}
			},
		},
		{
			name: "unknown group",
			err:  &scenegraph.UnknownGroupError{Path: "a/b"},
			check: func(t *testing.T, got error) {
				var unknown *scenegraph.UnknownGroupError
				if !errors.As(got, &unknown) || unknown.Path != "a/b" {
					t.Fatalf("expected UnknownGroupError with path; got %v", got)
				}
			},
		},
		{
			name: "duplicate group",
			err:  &scenegraph.DuplicateGroupError{Path: "robot"},
			check: func(t *testing.T, got error) {
				var duplicate *scenegraph.DuplicateGroupError
				if !errors.As(got, &duplicate) || duplicate.Path != "robot" {
					t.Fatalf("expected DuplicateGroupError with path; got %v", got)
				}
			},
		},
		{
			name: "shape mismatch",
			err:  scenegraph.ErrShapeMismatch,
			check: func(t *testing.T, got error) {
				if !errors.Is(got, scenegraph.ErrShapeMismatch) {
					t.Fatalf("expected ErrShapeMismatch; got %v", got)
				}
			},
		},
		{
			name: "invalid path",
			err:  scenegraph.ErrInvalidPath,
			check: func(t *testing.T, got error) {
				if !errors.Is(got, scenegraph.ErrInvalidPath) {
					t.Fatalf("expected ErrInvalidPath; got %v", got)
				}
			},
		},
		{
			name: "startup",
			err:  fmt.Errorf("%w: no display", ErrStartup),
			check: func(t *testing.T, got error) {
				if !errors.Is(got, ErrStartup) {
					t.Fatalf("expected ErrStartup; got %v", got)
				}
			},
		},
		{
			name: "generic",
			err:  errors.New("viewer: something odd"),
			check: func(t *testing.T, got error) {
				if got == nil || got.Error() != "viewer: something odd" {
					t.Fatalf("expected the message to survive; got %v", got)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			remote := encodeError(tc.err)
			if remote == nil {
				t.Fatal("expected a wire error")
			}
			tc.check(t, remote.resolve())
		})
	}
}

func TestEncodeNilError(t *testing.T) {
	if encodeError(nil) != nil {
		t.Fatal("expected nil for a nil error")
	}
}
