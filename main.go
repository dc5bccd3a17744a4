package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/ikalevatykh/panda3d-viewer/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "panda3d-viewer"
	app.Usage = "a simple and efficient 3d viewer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "view",
			Usage: "open an interactive viewer window",
			Description: `
Open a viewer window, show the given mesh files and run until the user
closes the window. The renderer runs in a spawned worker process; the
window supports keyboard shortcuts (press F1 for the list).`,
			ArgsUsage: "model1.obj model2.obj ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "title",
					Value: "Viewer",
					Usage: "window title",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 800,
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 600,
					Usage: "window height",
				},
				cli.IntFlag{
					Name:  "msaa",
					Value: 0,
					Usage: "MSAA multisample count, 0 to disable",
				},
				cli.BoolFlag{
					Name:  "floor",
					Usage: "show the floor plane",
				},
			},
			Action: cmd.View,
		},
		{
			Name:      "snapshot",
			Usage:     "render a scene offscreen into an image file",
			ArgsUsage: "model1.obj model2.obj ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 800,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 600,
					Usage: "frame height",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "snapshot.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: cmd.Snapshot,
		},
		{
			Name:   "worker",
			Hidden: true,
			Action: cmd.Worker,
		},
	}

	app.Run(os.Args)
}
