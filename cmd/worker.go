package cmd

import (
	"github.com/urfave/cli"

	"github.com/ikalevatykh/panda3d-viewer/viewer"
)

// The entry point of the spawned render worker process. Commands
// arrive on stdin and replies leave on stdout; never invoked by hand.
func Worker(ctx *cli.Context) error {
	setupLogging(ctx)
	return viewer.RunWorker(viewer.Stdio())
}
