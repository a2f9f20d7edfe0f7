package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/lightcuts/lightcut"
	"github.com/achilleasa/lightcuts/renderer"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Run the full frame pipeline for a synthetic light set over a grid of query
// points and display per-stage statistics.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	dev, err := renderer.SelectDevice(opts)
	if err != nil {
		return err
	}
	defer dev.Close()
	logger.Noticef(`using device "%s"`, dev.Name)

	var debugFlags renderer.DebugFlag
	if ctx.Bool("verify") {
		debugFlags |= renderer.VerifyTree
	}
	if ctx.Bool("dump-levels") {
		debugFlags |= renderer.DumpTreeLevels
	}

	r, err := renderer.New(dev, renderer.DefaultPipeline(debugFlags), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	bounds := sceneBounds(ctx)
	points := scene.QueryGrid(int(opts.FrameW), int(opts.FrameH), bounds, float32(ctx.Float64("plane-y")))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frames := max(ctx.Int("frames"), 1)
	var out *renderer.FrameOutput
	for frame := 0; frame < frames; frame++ {
		lights := scene.Random(ctx.Int("lights"), bounds, opts.Seed+uint64(frame))
		out, err = r.Render(sigCtx, renderer.FrameInput{Lights: lights, Points: points})
		if err != nil {
			return err
		}
		displayFrameStats(r.Stats())
	}

	surface, err := out.Read()
	if err != nil {
		return err
	}
	displaySelectionSummary(surface, int(opts.FrameW), int(opts.FrameH), int(opts.SamplesPerPixel))
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "% of frame", "Time"})
	for _, stat := range stats.Stages {
		table.Append([]string{
			stat.Name,
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%s", stat.Time),
		})
	}
	table.SetFooter([]string{fmt.Sprintf("%d dispatches", stats.Dispatches), "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})

	table.Render()
	logger.Noticef(
		"frame %d statistics (%d lights, %d leaves, %d levels)\n%s",
		stats.Frame, stats.LightCount, stats.LeafCount, stats.LevelCount, buf.String(),
	)
}

func displaySelectionSummary(frame *lightcut.Frame, width, height, spp int) {
	var (
		selected, empty  int
		cutTotal, cutMax int
	)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cutSize := frame.CutSize(x, y)
			cutTotal += cutSize
			cutMax = max(cutMax, cutSize)
			for slot := 0; slot < spp; slot++ {
				if frame.At(x, y, slot).Valid() {
					selected++
				} else {
					empty++
				}
			}
		}
	}

	pixels := max(width*height, 1)
	logger.Noticef(
		"selected %d light samples (%d empty); mean cut size %.2f, max cut size %d",
		selected, empty, float64(cutTotal)/float64(pixels), cutMax,
	)
}
