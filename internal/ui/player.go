package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/services"
)

const (
	tickInterval    = time.Second
	refreshInterval = 5 * time.Second
	volumeStep      = 10
)

// EventEmitter records playback events triggered from the player.
type EventEmitter interface {
	Emit(event string, data map[string]any)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlayerView ViewState = iota
	DeviceView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	player    services.Player
	events    EventEmitter
	view      ViewState
	state     *services.PlaybackState
	volume    int
	status    string
	err       error
	width     int
	height    int
	lastFetch time.Time
	progress  progress.Model
	devices   list.Model
	help      help.Model
	keys      keyMap
	now       func() time.Time
}

// NewModel creates a new TUI model. events may be nil.
func NewModel(ctx context.Context, player services.Player, events EventEmitter) *Model {
	return &Model{
		ctx:      ctx,
		view:     PlayerView,
		player:   player,
		events:   events,
		progress: progress.New(progress.WithGradient("#1DB954", "#04B575"), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
		now:      time.Now,
	}
}

// Init fetches the playback state and starts the clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlayback(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(10, min(msg.Width-4, 60))
		m.help.Width = msg.Width
		if m.view == DeviceView {
			m.devices.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == DeviceView {
			return m.handleDeviceKeys(msg)
		}
		return m.handlePlayerKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == DeviceView {
		var cmd tea.Cmd
		m.devices, cmd = m.devices.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaybackFetched:
		result := msg.data.(playbackResult)
		m.lastFetch = m.now()
		if result.err != nil {
			m.err = result.err
			return m, nil
		}
		m.err = nil
		m.state = result.state
		if m.state != nil && m.state.Device != nil {
			m.volume = m.state.Device.VolumePercent
		}
		return m, nil

	case MsgDevicesFetched:
		result := msg.data.(devicesResult)
		if result.err != nil {
			m.err = result.err
			return m, nil
		}
		if len(result.devices) == 0 {
			m.status = "No devices found. Open Spotify on any device."
			return m, nil
		}
		m.devices = newDeviceList(result.devices, max(20, m.width-4), max(8, m.height-6))
		m.view = DeviceView
		return m, nil

	case MsgActionDone:
		result := msg.data.(actionResult)
		m.err = result.err
		if result.err == nil {
			m.status = result.status
		}
		return m, m.fetchPlayback()

	case MsgTick:
		m.advance()
		if m.now().Sub(m.lastFetch) >= refreshInterval {
			return m, tea.Batch(m.fetchPlayback(), tick())
		}
		return m, tick()
	}
	return m, nil
}

// advance moves the local progress clock between API refreshes.
func (m *Model) advance() {
	if m.state == nil || !m.state.IsPlaying {
		return
	}
	m.state.ProgressMS = min(m.state.DurationMS, m.state.ProgressMS+int(tickInterval/time.Millisecond))
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.playPause):
		return m, m.togglePlayback()
	case key.Matches(msg, m.keys.next):
		return m, m.skip(true)
	case key.Matches(msg, m.keys.previous):
		return m, m.skip(false)
	case key.Matches(msg, m.keys.volumeUp):
		return m, m.changeVolume(volumeStep)
	case key.Matches(msg, m.keys.volumeDown):
		return m, m.changeVolume(-volumeStep)
	case key.Matches(msg, m.keys.shuffle):
		return m, m.toggleShuffle()
	case key.Matches(msg, m.keys.repeat):
		return m, m.cycleRepeat()
	case key.Matches(msg, m.keys.devices):
		return m, m.fetchDevices()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlayback()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.devices.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.back), msg.String() == "q":
			m.view = PlayerView
			return m, nil
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.devices.SelectedItem().(deviceItem); ok {
				m.view = PlayerView
				return m, m.switchDevice(item.device)
			}
		}
	}

	var cmd tea.Cmd
	m.devices, cmd = m.devices.Update(msg)
	return m, cmd
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg() })
}

func (m *Model) emit(event string, data map[string]any) {
	if m.events != nil {
		m.events.Emit(event, data)
	}
}

func (m *Model) trackName() string {
	if m.state == nil {
		return ""
	}
	return m.state.Name
}

func (m *Model) fetchPlayback() tea.Cmd {
	return func() tea.Msg {
		state, err := m.player.CurrentPlayback(m.ctx)
		return playbackFetchedMsg(state, err)
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.player.Devices(m.ctx)
		return devicesFetchedMsg(devices, err)
	}
}

func (m *Model) togglePlayback() tea.Cmd {
	playing := m.state != nil && m.state.IsPlaying
	track := m.trackName()

	return func() tea.Msg {
		if playing {
			if err := m.player.Pause(m.ctx); err != nil {
				return actionDoneMsg("", err)
			}
			m.emit("track.paused", map[string]any{"track": track})
			return actionDoneMsg("⏸️ Paused", nil)
		}

		if _, err := m.player.Resume(m.ctx, ""); err != nil {
			m.emit("error.playback_failed", map[string]any{"command": "resume", "error": err.Error()})
			return actionDoneMsg("", err)
		}
		m.emit("track.resumed", map[string]any{"track": track})
		return actionDoneMsg("▶️ Resumed", nil)
	}
}

func (m *Model) skip(forward bool) tea.Cmd {
	track := m.trackName()

	return func() tea.Msg {
		direction, call, label := "next", m.player.Next, "⏭️ Skipped"
		if !forward {
			direction, call, label = "previous", m.player.Previous, "⏮️ Previous track"
		}

		if err := call(m.ctx); err != nil {
			return actionDoneMsg("", err)
		}
		m.emit("track.skipped", map[string]any{"track": track, "direction": direction})
		return actionDoneMsg(label, nil)
	}
}

func (m *Model) changeVolume(delta int) tea.Cmd {
	target := services.ClampVolume(m.volume + delta)
	m.volume = target

	return func() tea.Msg {
		volume, err := m.player.SetVolume(m.ctx, target)
		if err != nil {
			return actionDoneMsg("", err)
		}
		m.emit("volume.changed", map[string]any{"volume": volume})
		return actionDoneMsg(fmt.Sprintf("%s Volume %d%%", VolumeIcon(volume), volume), nil)
	}
}

func (m *Model) toggleShuffle() tea.Cmd {
	return func() tea.Msg {
		on, err := m.player.ToggleShuffle(m.ctx)
		if err != nil {
			return actionDoneMsg("", err)
		}
		m.emit("playback.shuffle", map[string]any{"shuffle": on})
		return actionDoneMsg(ShuffleLabel(on), nil)
	}
}

func (m *Model) cycleRepeat() tea.Cmd {
	return func() tea.Msg {
		state, err := m.player.CycleRepeat(m.ctx)
		if err != nil {
			return actionDoneMsg("", err)
		}
		m.emit("playback.repeat", map[string]any{"repeat": string(state)})
		return actionDoneMsg(RepeatLabel(state), nil)
	}
}

func (m *Model) switchDevice(device services.Device) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.TransferPlayback(m.ctx, device.ID, true); err != nil {
			return actionDoneMsg("", err)
		}
		m.emit("device.switched", map[string]any{"device_id": device.ID, "device_name": device.Name})
		return actionDoneMsg(fmt.Sprintf("%s Switched to %s", DeviceIcon(device.Type), device.Name), nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.view == DeviceView {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
		return fmt.Sprintf("%s\n\n%s", m.devices.View(), helpView)
	}
	return m.renderPlayer()
}

func (m *Model) renderPlayer() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("🎵 Spotify Player"))
	b.WriteString("\n")

	if m.state == nil {
		b.WriteString("🔇 Nothing is currently playing\n")
		b.WriteString(styles.help.Render("Press space to resume or d to pick a device"))
		b.WriteString("\n")
	} else {
		icon := "⏸️"
		if m.state.IsPlaying {
			icon = "▶️"
		}

		fmt.Fprintf(&b, "%s %s\n", icon, styles.ok.Render(m.state.Name))
		fmt.Fprintf(&b, "   by %s • %s\n\n", m.state.Artist, styles.help.Render(m.state.Album))

		percent := 0.0
		if m.state.DurationMS > 0 {
			percent = float64(m.state.ProgressMS) / float64(m.state.DurationMS)
		}
		fmt.Fprintf(&b, "%s %s/%s\n\n", m.progress.ViewAs(percent),
			FormatDuration(m.state.ProgressMS), FormatDuration(m.state.DurationMS))

		fmt.Fprintf(&b, "%s   %s\n", ShuffleLabel(m.state.ShuffleState), RepeatLabel(m.state.RepeatState))
		fmt.Fprintf(&b, "%s\n", VolumeLine(m.volume))
		if m.state.Device != nil {
			fmt.Fprintf(&b, "%s %s\n", DeviceIcon(m.state.Device.Type), styles.accent.Render(m.state.Device.Name))
		}
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("❌ %v", m.err)))
	case m.status != "":
		b.WriteString(styles.ok.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
