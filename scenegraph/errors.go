package scenegraph

import (
	"errors"
	"fmt"
)

var (
	// The point cloud buffer lengths disagree with the vertex count.
	ErrShapeMismatch = errors.New("scenegraph: point cloud buffer shape mismatch")

	// The group path is empty or contains empty segments.
	ErrInvalidPath = errors.New("scenegraph: invalid group path")
)

// UnknownGroupError is returned when an operation references a group
// path that is not present in the registry.
type UnknownGroupError struct {
	Path string
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("scenegraph: unknown group '%s'", e.Path)
}

// DuplicateGroupError is returned when a group is created over an
// existing path without requesting replacement.
type DuplicateGroupError struct {
	Path string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("scenegraph: group '%s' already exists", e.Path)
}
