package cmd

import (
	"github.com/ikalevatykh/panda3d-viewer/log"
	"github.com/urfave/cli"
)

var logger = log.New("panda3d-viewer")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
