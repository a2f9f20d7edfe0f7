package main

import (
	"os"

	"github.com/achilleasa/lightcuts/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	treeFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "lights, n",
			Value: 4096,
			Usage: "number of synthetic lights",
		},
		cli.Float64Flag{
			Name:  "scene-size",
			Value: 100,
			Usage: "side of the cube that encloses the synthetic lights",
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "seed for light generation and sampling",
		},
		cli.IntFlag{
			Name:  "code-bits",
			Value: 10,
			Usage: "bits per axis for light spatial codes",
		},
		cli.IntFlag{
			Name:  "key-width",
			Value: 64,
			Usage: "sort record width in bits (32 or 64)",
		},
		cli.BoolFlag{
			Name:  "descending",
			Usage: "sort leaves in descending code order",
		},
		cli.IntFlag{
			Name:  "work-budget",
			Value: 2048,
			Usage: "max nodes written per tree construction dispatch",
		},
		cli.BoolFlag{
			Name:  "host-sort",
			Usage: "sort tree leaves on the host",
		},
		cli.StringFlag{
			Name:  "buffer-policy",
			Value: "grow-only",
			Usage: "device buffer allocation policy (grow-only or exact-resize)",
		},
		cli.StringSliceFlag{
			Name:  "blacklist, b",
			Value: &cli.StringSlice{},
			Usage: "blacklist devices whose names contain this value",
		},
		cli.StringFlag{
			Name:  "force-device",
			Usage: "use the device whose name contains this value",
		},
	}

	frameFlags := append([]cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 256,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 256,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: 1,
			Usage: "light samples per pixel",
		},
		cli.Float64Flag{
			Name:  "error-limit",
			Value: 0.001,
			Usage: "light cut error limit relative to the pixel's total light estimate",
		},
		cli.Float64Flag{
			Name:  "min-distance-ratio",
			Value: 1.0 / 1024,
			Usage: "min light distance as a fraction of the scene radius",
		},
		cli.Float64Flag{
			Name:  "plane-y",
			Usage: "height of the query point plane",
		},
		cli.IntFlag{
			Name:  "frames",
			Value: 1,
			Usage: "number of frames to render",
		},
		cli.BoolFlag{
			Name:  "verify",
			Usage: "verify the tree invariants after each frame",
		},
		cli.BoolFlag{
			Name:  "dump-levels",
			Usage: "log the tree levels after each frame",
		},
	}, treeFlags...)

	app := cli.NewApp()
	app.Name = "lightcuts"
	app.Usage = "build light trees and select per-pixel light cuts"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a yaml config file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "build",
			Usage: "build a light tree for a synthetic light set",
			Description: `
Generate a random light set, build its light tree on the selected device and
print per-stage timings and a per-level summary of the tree. The tree
invariants are verified after the build.`,
			Flags:  treeFlags,
			Action: cmd.BuildTree,
		},
		{
			Name:  "frame",
			Usage: "run the full pipeline over a grid of query points",
			Description: `
Render one or more frames: each frame uploads a fresh random light set,
builds its light tree and selects lights for every pixel of a query point
plane. Per-stage statistics are printed for every frame.`,
			Flags:  frameFlags,
			Action: cmd.RenderFrame,
		},
		{
			Name:  "sort",
			Usage: "benchmark the device sorter",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "count",
					Value: 1 << 20,
					Usage: "number of records to sort",
				},
				cli.IntFlag{
					Name:  "iterations",
					Value: 5,
					Usage: "number of benchmark iterations",
				},
			}, treeFlags...),
			Action: cmd.BenchmarkSort,
		},
	}

	app.Run(os.Args)
}
