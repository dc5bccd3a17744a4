package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/ikalevatykh/panda3d-viewer/scenegraph"
	"github.com/ikalevatykh/panda3d-viewer/types"
	"github.com/ikalevatykh/panda3d-viewer/viewer"
)

// Render the given mesh files offscreen and write a snapshot image.
// Without arguments a built-in primitive demo scene is rendered.
func Snapshot(ctx *cli.Context) error {
	setupLogging(ctx)

	config := viewer.NewConfig()
	config.SetWindowType("offscreen")
	config.SetWindowSize(ctx.Int("width"), ctx.Int("height"))

	v, err := viewer.New(config)
	if err != nil {
		return err
	}
	defer v.Destroy()

	start := time.Now()

	var nodes [][2]string
	if ctx.NArg() > 0 {
		if err := v.AppendGroup("models", true, 1); err != nil {
			return err
		}
		for i, path := range ctx.Args() {
			name := fmt.Sprintf("model-%02d", i)
			if err := v.AppendMesh("models", name, path, types.XYZ(1, 1, 1)); err != nil {
				return err
			}
			nodes = append(nodes, [2]string{name, path})
		}
	} else {
		if nodes, err = buildDemoScene(v); err != nil {
			return err
		}
	}

	saved, err := v.SaveScreenshot(ctx.String("out"))
	if err != nil {
		return err
	}
	if !saved {
		return errors.New("could not save the snapshot")
	}

	displaySnapshotStats(nodes, ctx.String("out"), time.Since(start))
	return nil
}

// A small scene showing off each primitive shape.
func buildDemoScene(v *viewer.Viewer) ([][2]string, error) {
	if err := v.AppendGroup("demo", true, 1); err != nil {
		return nil, err
	}
	if err := v.AppendBox("demo", "box", types.XYZ(0.6, 0.6, 0.6)); err != nil {
		return nil, err
	}
	if err := v.AppendSphere("demo", "sphere", 0.4); err != nil {
		return nil, err
	}
	if err := v.AppendCapsule("demo", "capsule", 0.25, 0.5); err != nil {
		return nil, err
	}
	if err := v.AppendCylinder("demo", "cylinder", 0.3, 0.6); err != nil {
		return nil, err
	}

	colors := map[string]types.Vec4{
		"box":      types.XYZW(0.9, 0.2, 0.2, 1),
		"sphere":   types.XYZW(0.2, 0.9, 0.2, 1),
		"capsule":  types.XYZW(0.2, 0.2, 0.9, 1),
		"cylinder": types.XYZW(0.9, 0.9, 0.2, 1),
	}
	for name, color := range colors {
		if err := v.SetMaterial("demo", name, color); err != nil {
			return nil, err
		}
	}

	poses := map[string]scenegraph.Pose{
		"box":      scenegraph.PoseAt(types.XYZ(-1, -1, 0.3), types.QuatIdent()),
		"sphere":   scenegraph.PoseAt(types.XYZ(1, -1, 0.4), types.QuatIdent()),
		"capsule":  scenegraph.PoseAt(types.XYZ(-1, 1, 0.5), types.QuatIdent()),
		"cylinder": scenegraph.PoseAt(types.XYZ(1, 1, 0.3), types.QuatIdent()),
	}
	if err := v.MoveNodes("demo", poses); err != nil {
		return nil, err
	}

	return [][2]string{
		{"box", "builtin"},
		{"sphere", "builtin"},
		{"capsule", "builtin"},
		{"cylinder", "builtin"},
	}, nil
}

func displaySnapshotStats(nodes [][2]string, out string, elapsed time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Node", "Source"})
	for _, node := range nodes {
		table.Append([]string{node[0], node[1]})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%s in %s", out, elapsed.Round(time.Millisecond))})

	table.Render()
	logger.Noticef("snapshot statistics\n%s", buf.String())
}
