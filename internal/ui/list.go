package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotx/internal/services"
)

var (
	_ list.Item = deviceItem{}
)

// deviceItem wraps [services.Device] to implement [list.Item].
type deviceItem struct {
	device services.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	return fmt.Sprintf("%s %s", DeviceIcon(i.device.Type), i.device.Name)
}
func (i deviceItem) Description() string {
	desc := fmt.Sprintf("%s • %d%%", i.device.Type, i.device.VolumePercent)
	if i.device.IsActive {
		desc = "active • " + desc
	}
	return desc
}

func newDeviceList(devices []services.Device, width, height int) list.Model {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a device"
	l.SetShowHelp(false)
	return l
}
