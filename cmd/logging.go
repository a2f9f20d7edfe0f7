package cmd

import (
	"github.com/achilleasa/lightcuts/log"
	"github.com/urfave/cli"
)

var logger = log.New("lightcuts")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
