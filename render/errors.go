package render

import "errors"

var (
	ErrClosed    = errors.New("render: renderer is closed")
	ErrNoDisplay = errors.New("render: could not open a display window")
)
