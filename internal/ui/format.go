package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/services"
)

const volumeBarWidth = 20

var deviceIcons = map[services.DeviceType]string{
	services.DeviceComputer:    "💻",
	services.DeviceSmartphone:  "📱",
	services.DeviceSpeaker:     "🔊",
	services.DeviceTV:          "📺",
	services.DeviceCastVideo:   "📺",
	services.DeviceAVR:         "🎵",
	services.DeviceAudioDongle: "🎧",
}

// DeviceIcon returns the symbol for a device type.
func DeviceIcon(t services.DeviceType) string {
	if icon, ok := deviceIcons[t]; ok {
		return icon
	}
	return "🎵"
}

// VolumeIcon picks a speaker glyph for a 0-100 volume.
func VolumeIcon(volume int) string {
	switch {
	case volume <= 0:
		return "🔇"
	case volume <= 33:
		return "🔈"
	case volume <= 66:
		return "🔉"
	default:
		return "🔊"
	}
}

// VolumeBar renders volume as a 20 cell ▓/░ bar.
func VolumeBar(volume int) string {
	filled := services.ClampVolume(volume) * volumeBarWidth / 100
	return strings.Repeat("▓", filled) + strings.Repeat("░", volumeBarWidth-filled)
}

// VolumeLine renders icon, bar and percentage together.
func VolumeLine(volume int) string {
	return fmt.Sprintf("%s %s %d%%", VolumeIcon(volume), VolumeBar(volume), volume)
}

// RepeatLabel describes a repeat mode with its icon.
func RepeatLabel(state services.RepeatState) string {
	switch state {
	case services.RepeatTrack:
		return "🔂 Repeat Track"
	case services.RepeatContext:
		return "🔁 Repeat All"
	default:
		return "➡️ Repeat Off"
	}
}

// ShuffleLabel describes a shuffle state with its icon.
func ShuffleLabel(on bool) string {
	if on {
		return "🔀 Shuffle On"
	}
	return "➡️ Shuffle Off"
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ProgressLine renders a ━━●━━ bar of width cells followed by elapsed and total time.
func ProgressLine(progressMS, durationMS, width int) string {
	if width < 2 {
		width = 2
	}

	filled := 0
	if durationMS > 0 {
		filled = min(width-1, max(0, progressMS*width/durationMS))
	}

	bar := strings.Repeat("━", filled) + "●" + strings.Repeat("━", width-filled-1)
	return fmt.Sprintf("%s %s/%s", bar, FormatDuration(progressMS), FormatDuration(durationMS))
}

// DeviceLabel renders a device for lists: status marker, icon, name, type and volume.
func DeviceLabel(d services.Device) string {
	status := "⚪"
	if d.IsActive {
		status = "🟢"
	}
	return fmt.Sprintf("%s %s %s (%s) [%d%%]", status, DeviceIcon(d.Type), d.Name, d.Type, d.VolumePercent)
}

// NowPlaying renders a multi-line summary of state.
func NowPlaying(state *services.PlaybackState) string {
	if state == nil {
		return "🔇 Nothing is currently playing"
	}

	icon := "⏸️"
	if state.IsPlaying {
		icon = "▶️"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", icon, styles.ok.Render(state.Name))
	fmt.Fprintf(&b, "   by %s\n", state.Artist)
	fmt.Fprintf(&b, "   on %s\n", styles.help.Render(state.Album))
	fmt.Fprintf(&b, "   %s", ProgressLine(state.ProgressMS, state.DurationMS, 30))
	if state.Device != nil {
		fmt.Fprintf(&b, "\n   %s %s  %s", DeviceIcon(state.Device.Type), state.Device.Name, VolumeLine(state.Device.VolumePercent))
	}
	return b.String()
}
