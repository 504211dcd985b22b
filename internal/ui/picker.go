package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/services"
)

// pickerModel is a one-shot device list that quits on selection.
type pickerModel struct {
	list   list.Model
	choice *services.Device
}

func newPicker(devices []services.Device) pickerModel {
	l := newDeviceList(devices, 60, min(len(devices)*3+6, 20))
	l.Title = "🎵 Select a device to switch to"
	for i, d := range devices {
		if d.IsActive {
			l.Select(i)
		}
	}
	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(deviceItem); ok {
				d := item.device
				m.choice = &d
			}
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View()
}

// PickDevice shows an interactive list and returns the chosen device, or nil when cancelled.
func PickDevice(devices []services.Device) (*services.Device, error) {
	final, err := tea.NewProgram(newPicker(devices)).Run()
	if err != nil {
		return nil, fmt.Errorf("device picker failed: %w", err)
	}
	return final.(pickerModel).choice, nil
}
