package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Devices lists devices, or with --switch transfers playback to the named or picked device.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	if err := r.requireCredentials(); err != nil {
		return r.fail(useJSON, err)
	}

	devices, err := r.player.Devices(ctx)
	if err != nil {
		return r.fail(useJSON, err)
	}

	if cmd.Bool("switch") {
		return r.switchDevice(ctx, devices, cmd.StringArg("name"), useJSON)
	}

	var active any
	types := []string{}
	seen := map[services.DeviceType]bool{}
	for _, d := range devices {
		if d.IsActive {
			active = d.ID
		}
		if !seen[d.Type] {
			seen[d.Type] = true
			types = append(types, string(d.Type))
		}
	}
	r.emit("devices.listed", map[string]any{
		"device_count":    len(devices),
		"active_device":   active,
		"available_types": types,
	})

	if useJSON {
		if devices == nil {
			devices = []services.Device{}
		}
		return r.writeJSON(devices, false)
	}

	if len(devices) == 0 {
		r.writePlain("%s\n", ui.Warn("📱 No devices found"))
		return r.writePlain("💡 Open Spotify on your phone, computer, or smart speaker\n")
	}

	r.writePlain("%s\n", ui.Title("📱 Available Spotify Devices"))
	for _, d := range devices {
		status := "⏸️ Inactive"
		if d.IsActive {
			status = "▶️ ACTIVE"
		}
		r.writePlain("  %s %s\n", ui.DeviceIcon(d.Type), ui.Accent(d.Name))
		r.writePlain("     Type: %s\n", d.Type)
		r.writePlain("     Volume: %d%%\n", d.VolumePercent)
		r.writePlain("     Status: %s\n\n", status)
	}

	if active == nil {
		r.writePlain("💡 No active device. Use `spotx devices --switch` to activate one\n")
	}
	return nil
}

func (r *Runner) switchDevice(ctx context.Context, devices []services.Device, name string, useJSON bool) error {
	if len(devices) == 0 {
		r.writePlain("%s\n", ui.Warn("📱 No devices found"))
		return r.writePlain("💡 Open Spotify on your phone, computer, or smart speaker\n")
	}

	var target *services.Device
	if name != "" {
		resolved, err := r.player.ResolveDevice(ctx, name)
		if err != nil {
			return r.fail(useJSON, err)
		}
		target = resolved
	} else {
		picked, err := r.pickDevice(devices)
		if err != nil {
			return r.fail(useJSON, err)
		}
		if picked == nil {
			return r.writePlain("Cancelled\n")
		}
		target = picked
	}

	if target.IsActive {
		if useJSON {
			return r.writeJSON(map[string]any{"success": true, "device_id": target.ID, "switched": false}, false)
		}
		return r.writePlain("✅ Already playing on %s\n", target.Name)
	}

	if !useJSON {
		r.writePlain("🔄 Switching to %s %s...\n", ui.DeviceIcon(target.Type), target.Name)
	}
	if err := r.player.TransferPlayback(ctx, target.ID, true); err != nil {
		return r.fail(useJSON, fmt.Errorf("failed to switch device: %w", err))
	}

	r.emit("device.switched", map[string]any{"device_id": target.ID, "device_name": target.Name})

	if useJSON {
		return r.writeJSON(map[string]any{"success": true, "device_id": target.ID, "switched": true}, false)
	}
	return r.writePlain("%s\n", ui.Success("✅ Playback transferred!"))
}
