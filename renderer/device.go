package renderer

import (
	"strings"

	"github.com/achilleasa/lightcuts/device"
)

// Select the device to render with. Blacklisted devices are skipped. If
// ForceDevice is set the first device whose name contains it is used;
// otherwise the device with the best speed estimate wins.
func SelectDevice(opts Options) (*device.Device, error) {
	devList, err := device.SelectDevices(device.AllDevices, opts.ForceDevice)
	if err != nil {
		return nil, err
	}

	var selected *device.Device
	for _, dev := range devList {
		if isBlackListed(dev.Name, opts.BlackListedDevices) {
			continue
		}
		if selected == nil || (opts.ForceDevice == "" && dev.SpeedEstimate() > selected.SpeedEstimate()) {
			selected = dev
		}
	}

	if selected == nil {
		return nil, ErrNoDevices
	}
	return selected, nil
}

func isBlackListed(name string, blackList []string) bool {
	for _, entry := range blackList {
		if entry != "" && strings.Contains(strings.ToLower(name), strings.ToLower(entry)) {
			return true
		}
	}
	return false
}
