package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/time/rate"
)

// DeviceType is the kind of playback endpoint reported by Spotify.
type DeviceType string

const (
	DeviceComputer    DeviceType = "Computer"
	DeviceSmartphone  DeviceType = "Smartphone"
	DeviceSpeaker     DeviceType = "Speaker"
	DeviceTV          DeviceType = "TV"
	DeviceCastVideo   DeviceType = "CastVideo"
	DeviceAVR         DeviceType = "AVR"
	DeviceAudioDongle DeviceType = "AudioDongle"
	DeviceOther       DeviceType = "Other"
)

// UnmarshalJSON maps unrecognised types to [DeviceOther].
func (d *DeviceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch t := DeviceType(s); t {
	case DeviceComputer, DeviceSmartphone, DeviceSpeaker, DeviceTV, DeviceCastVideo, DeviceAVR, DeviceAudioDongle:
		*d = t
	default:
		*d = DeviceOther
	}
	return nil
}

// Device is a playback endpoint. It is fetched fresh for every resolution.
type Device struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          DeviceType `json:"type"`
	IsActive      bool       `json:"is_active"`
	IsRestricted  bool       `json:"is_restricted"`
	VolumePercent int        `json:"volume_percent"`
}

// DeviceLister lists the account's devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]Device, error)
}

// ActivationPolicy waits for a device to accept commands after playback was transferred to it.
type ActivationPolicy interface {
	AwaitActive(ctx context.Context, devices DeviceLister, deviceID string) error
}

// FixedDelay sleeps for Delay regardless of device state.
type FixedDelay struct {
	Delay time.Duration
}

const DefaultActivationDelay = 500 * time.Millisecond

func (f FixedDelay) AwaitActive(ctx context.Context, _ DeviceLister, _ string) error {
	if f.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollUntilActive lists devices every Interval until deviceID reports active or Timeout elapses.
type PollUntilActive struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (p PollUntilActive) AwaitActive(ctx context.Context, devices DeviceLister, deviceID string) error {
	interval, timeout := p.Interval, p.Timeout
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: device %s not active after %s", shared.ErrDeviceActivation, deviceID, timeout)
		}

		list, err := devices.Devices(ctx)
		if err != nil {
			continue
		}
		for _, d := range list {
			if d.ID == deviceID && d.IsActive {
				return nil
			}
		}
	}
}

// NewActivationPolicy builds a policy from configuration. mode is "delay" or "poll".
func NewActivationPolicy(mode string, delay, timeout time.Duration) (ActivationPolicy, error) {
	switch strings.ToLower(mode) {
	case "", "delay":
		if delay <= 0 {
			delay = DefaultActivationDelay
		}
		return FixedDelay{Delay: delay}, nil
	case "poll":
		return PollUntilActive{Interval: delay, Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("%w: activation_mode must be delay or poll, got %q", shared.ErrInvalidConfig, mode)
	}
}

// pickActive returns the first active device, else the first listed device, else nil.
func pickActive(devices []Device) *Device {
	for i := range devices {
		if devices[i].IsActive {
			return &devices[i]
		}
	}
	if len(devices) > 0 {
		return &devices[0]
	}
	return nil
}

// matchDevice finds selector by exact id, then by case-insensitive name substring.
func matchDevice(devices []Device, selector string) *Device {
	for i := range devices {
		if devices[i].ID == selector {
			return &devices[i]
		}
	}

	needle := strings.ToLower(selector)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), needle) {
			return &devices[i]
		}
	}
	return nil
}

// ActiveDevice returns the device commands should target by default, or nil when there are none.
func (s *SpotifyService) ActiveDevice(ctx context.Context) (*Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return pickActive(devices), nil
}

// ResolveDevice finds a device by id or name.
func (s *SpotifyService) ResolveDevice(ctx context.Context, selector string) (*Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}

	if d := matchDevice(devices, selector); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrDeviceNotFound, selector)
}

// targetDevice resolves the device for a playback command and activates it when needed.
//
// With play set, the transfer itself starts playback and no activation wait is performed.
// transferred reports whether a transfer was issued so callers can classify a follow-up failure.
func (s *SpotifyService) targetDevice(ctx context.Context, selector string, play bool) (device *Device, transferred bool, err error) {
	if selector == "" {
		if device, err = s.ActiveDevice(ctx); err != nil {
			return nil, false, err
		}
		if device == nil {
			return nil, false, fmt.Errorf("%w: open Spotify on any device", shared.ErrNoDeviceAvailable)
		}
	} else if device, err = s.ResolveDevice(ctx, selector); err != nil {
		return nil, false, err
	}

	if device.IsActive {
		return device, false, nil
	}

	s.logger.Debug("activating device", "device", device.Name, "id", device.ID)
	if err := s.TransferPlayback(ctx, device.ID, play); err != nil {
		return nil, false, fmt.Errorf("%w: %w", shared.ErrDeviceActivation, err)
	}

	if !play {
		if err := s.activation.AwaitActive(ctx, s, device.ID); err != nil {
			return nil, true, fmt.Errorf("%w: %w", shared.ErrDeviceActivation, err)
		}
	}
	return device, true, nil
}

// afterTransfer marks a command failure that followed a transfer as an activation race.
func afterTransfer(err error, transferred bool) error {
	if err == nil || !transferred {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrDeviceActivation, err)
}
