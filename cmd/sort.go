package cmd

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/achilleasa/lightcuts/bitonic"
	"github.com/achilleasa/lightcuts/device"
	"github.com/achilleasa/lightcuts/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Benchmark the device sorter over random records and check the output
// order.
func BenchmarkSort(ctx *cli.Context) error {
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

	sorter, err := bitonic.New(dev, opts.KeyWidth)
	if err != nil {
		return err
	}
	defer sorter.Close()

	count := ctx.Int("count")
	if count < 0 {
		return fmt.Errorf("invalid record count %d", count)
	}
	iterations := max(ctx.Int("iterations"), 1)
	sortOpts := bitonic.Options{Descending: opts.Descending}
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(count)))

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Iteration", "Records", "Dispatches", "Time"})

	var total time.Duration
	for iteration := 0; iteration < iterations; iteration++ {
		var stats bitonic.Stats
		switch opts.KeyWidth {
		case bitonic.Key32:
			stats, err = sortRandom(dev, sorter, count, sortOpts, rng.Uint32)
		default:
			stats, err = sortRandom(dev, sorter, count, sortOpts, rng.Uint64)
		}
		if err != nil {
			return err
		}

		total += stats.Elapsed
		table.Append([]string{
			fmt.Sprintf("%d", iteration),
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%d", stats.Dispatches),
			fmt.Sprintf("%s", stats.Elapsed),
		})
	}
	table.SetFooter([]string{"", "", "AVERAGE", fmt.Sprintf("%s", total/time.Duration(iterations))})

	table.Render()
	logger.Noticef("sorted %d-bit records (descending: %t)\n%s", opts.KeyWidth, opts.Descending, buf.String())
	return nil
}

func sortRandom[T uint32 | uint64](dev *device.Device, sorter *bitonic.Sorter, count int, opts bitonic.Options, next func() T) (bitonic.Stats, error) {
	records := make([]T, count)
	for i := range records {
		records[i] = next()
	}

	buf := device.NewBuffer[T](dev, "cmd.sortRecords")
	defer buf.Release()
	if err := buf.AllocateAndWriteData(records); err != nil {
		return bitonic.Stats{}, err
	}

	stats, err := sorter.Sort(buf, uint32(count), opts)
	if err != nil {
		return stats, err
	}

	if err = buf.ReadData(0, 0, 0, records); err != nil {
		return stats, err
	}
	if opts.Descending {
		slices.Reverse(records)
	}
	if !slices.IsSorted(records) {
		return stats, fmt.Errorf("device sort produced out of order records")
	}
	return stats, nil
}
