package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/lightcuts/device"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	devList, err := device.SelectDevices(device.AllDevices, "")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Name", "Type", "Compute units", "Speed"})
	for index, dev := range devList {
		table.Append([]string{
			fmt.Sprintf("%02d", index),
			dev.Name,
			dev.Type.String(),
			fmt.Sprintf("%d", dev.ComputeUnits),
			fmt.Sprintf("%3.1f", dev.SpeedEstimate()),
		})
	}
	table.Render()

	logger.Noticef("system provides %d device(s)\n%s", len(devList), buf.String())
	return nil
}
