package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/lighttree"
	"github.com/achilleasa/lightcuts/renderer"
	"github.com/achilleasa/lightcuts/scene"
	"github.com/achilleasa/lightcuts/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build a light tree for a synthetic light set, print its levels and verify
// its invariants.
func BuildTree(ctx *cli.Context) error {
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
	if err = dev.Init(); err != nil {
		return err
	}
	defer dev.Close()
	logger.Noticef(`using device "%s"`, dev.Name)

	builder, err := lighttree.NewBuilder(dev, opts.TreeConfig())
	if err != nil {
		return err
	}
	defer builder.Close()

	ls := scene.Random(ctx.Int("lights"), sceneBounds(ctx), opts.Seed)
	lights := device.NewBuffer[scene.Light](dev, "cmd.lights")
	defer lights.Release()
	if err = lights.AllocateAndWriteData(ls.Lights); err != nil {
		return err
	}

	h, err := builder.Build(lights, uint32(ls.Len()), ls.Bounds())
	if err != nil {
		return err
	}

	nodes, err := h.Nodes()
	if err != nil {
		return err
	}

	displayBuildStats(builder.Stats())
	displayTreeLevels(h, nodes)

	if err = lighttree.Verify(nodes, h.Layout); err != nil {
		return fmt.Errorf("tree verification failed: %w", err)
	}
	logger.Noticef("verified tree with %d lights (%d leaves, %d levels)", h.Layout.LightCount, h.Layout.LeafCount, h.Layout.LevelCount)
	return nil
}

// Return a cube with the side given by the scene-size flag centered at the
// origin.
func sceneBounds(ctx *cli.Context) types.BBox {
	half := float32(ctx.Float64("scene-size")) / 2
	return types.BBox{
		Min: types.XYZ(-half, -half, -half),
		Max: types.XYZ(half, half, half),
	}
}

func displayBuildStats(stats lighttree.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Dispatches", "Time"})
	table.Append([]string{"generate keys", "1", fmt.Sprintf("%s", stats.KeysTime)})
	table.Append([]string{"sort keys", fmt.Sprintf("%d", stats.SortDispatches), fmt.Sprintf("%s", stats.SortTime)})
	table.Append([]string{"generate leaves", "1", fmt.Sprintf("%s", stats.LeavesTime)})
	table.Append([]string{"construct tree", fmt.Sprintf("%d", stats.ConstructDispatches), fmt.Sprintf("%s", stats.ConstructTime)})
	table.SetFooter([]string{"", "TOTAL", fmt.Sprintf("%s", stats.KeysTime+stats.SortTime+stats.LeavesTime+stats.ConstructTime)})

	table.Render()
	logger.Noticef("build statistics\n%s", buf.String())
}

func displayTreeLevels(h *lighttree.Hierarchy, nodes []lighttree.Node) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Level", "First node", "Last node", "Real nodes", "Power"})
	for _, level := range h.Levels() {
		var (
			realNodes int
			power     float32
		)
		for i := level.Start; i < level.End; i++ {
			if nodes[i].IsBogus() {
				continue
			}
			realNodes++
			power += nodes[i].Power
		}
		table.Append([]string{
			fmt.Sprintf("%d", level.Level),
			fmt.Sprintf("%d", level.Start),
			fmt.Sprintf("%d", level.End-1),
			fmt.Sprintf("%d", realNodes),
			fmt.Sprintf("%.3f", power),
		})
	}

	table.Render()
	logger.Noticef("tree levels\n%s", buf.String())
}
