package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/ikalevatykh/panda3d-viewer/types"
	"github.com/ikalevatykh/panda3d-viewer/viewer"
)

// Open an interactive viewer window and show the given mesh files.
// Blocks until the user closes the window.
func View(ctx *cli.Context) error {
	setupLogging(ctx)

	config := viewer.NewConfig()
	config.SetWindowTitle(ctx.String("title"))
	config.SetWindowSize(ctx.Int("width"), ctx.Int("height"))
	if samples := ctx.Int("msaa"); samples > 0 {
		config.EnableAntialiasing(true, samples)
	}
	config.ShowFloor(ctx.Bool("floor"))

	v, err := viewer.New(config)
	if err != nil {
		return err
	}
	defer v.Destroy()

	if ctx.NArg() > 0 {
		if err := v.AppendGroup("models", true, 1); err != nil {
			return err
		}
		for i, path := range ctx.Args() {
			name := fmt.Sprintf("model-%02d", i)
			if err := v.AppendMesh("models", name, path, types.XYZ(1, 1, 1)); err != nil {
				return err
			}
			logger.Infof("loaded %s as %s", path, name)
		}
	}

	return v.Join()
}
