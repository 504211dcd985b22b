package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	tu "github.com/desertthunder/spotx/internal/testing"
)

const twoDevices = `{"devices":[
	{"id":"d1","name":"Laptop","type":"Computer","is_active":true,"volume_percent":45},
	{"id":"d2","name":"Kitchen Speaker","type":"Speaker","is_active":false,"volume_percent":70}]}`

func TestDevices(t *testing.T) {
	t.Run("lists devices and emits devices.listed", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices})

		if err := h.run("devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Laptop", "Kitchen Speaker", "▶️ ACTIVE", "Volume: 70%"} {
			if !strings.Contains(h.out.String(), want) {
				t.Errorf("expected %q in output", want)
			}
		}

		evs := h.events(t)
		if len(evs) != 1 || evs[0].Event != "spotify.devices.listed" {
			t.Fatalf("unexpected events %+v", evs)
		}
		if evs[0].Data["device_count"] != float64(2) || evs[0].Data["active_device"] != "d1" {
			t.Errorf("unexpected event data %v", evs[0].Data)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices})

		if err := h.run("devices", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var devices []services.Device
		if err := json.Unmarshal(h.out.Bytes(), &devices); err != nil {
			t.Fatalf("expected JSON array, got %q", h.out.String())
		}
		if len(devices) != 2 || devices[1].Type != services.DeviceSpeaker {
			t.Errorf("unexpected devices %+v", devices)
		}
	})

	t.Run("no devices", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: `{"devices":[]}`})

		if err := h.run("devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.out.String(), "No devices found") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("switch by name transfers and plays", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices}).
			On(http.MethodPut, "/me/player", noContent)

		if err := h.run("devices", "--switch", "kitchen"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		transfer := h.api.Calls(http.MethodPut, "/me/player")
		if len(transfer) != 1 || transfer[0].Body != `{"device_ids":["d2"],"play":true}` {
			t.Errorf("unexpected transfer %+v", transfer)
		}

		evs := h.events(t)
		if len(evs) != 1 || evs[0].Event != "spotify.device.switched" || evs[0].Data["device_name"] != "Kitchen Speaker" {
			t.Errorf("unexpected events %+v", evs)
		}
	})

	t.Run("switch to the active device is a no-op", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices})

		if err := h.run("devices", "--switch", "d1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(h.api.Calls(http.MethodPut, "/me/player")) != 0 {
			t.Error("expected no transfer")
		}
		if !strings.Contains(h.out.String(), "Already playing on Laptop") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("switch to unknown device", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices})

		if err := h.run("devices", "--switch", "garage"); !errors.Is(err, shared.ErrDeviceNotFound) {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}
	})

	t.Run("switch without a name uses the picker", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices}).
			On(http.MethodPut, "/me/player", noContent)

		var offered int
		h.runner.pickDevice = func(devices []services.Device) (*services.Device, error) {
			offered = len(devices)
			return &devices[1], nil
		}

		if err := h.run("devices", "--switch"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if offered != 2 {
			t.Errorf("expected 2 devices offered, got %d", offered)
		}
		if len(h.api.Calls(http.MethodPut, "/me/player")) != 1 {
			t.Error("expected a transfer")
		}
	})

	t.Run("cancelled picker does nothing", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices})
		h.runner.pickDevice = func([]services.Device) (*services.Device, error) { return nil, nil }

		if err := h.run("devices", "--switch"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(h.api.Calls(http.MethodPut, "/me/player")) != 0 {
			t.Error("expected no transfer")
		}
	})
}

func TestPlaylists(t *testing.T) {
	t.Run("lists playlists", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/playlists", tu.Route{Body: `{"items":[
			{"id":"p1","name":"Mix","owner":{"display_name":"me"},"tracks":{"total":12}}]}`})

		if err := h.run("playlists", "--limit", "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls := h.api.Calls(http.MethodGet, "/me/playlists"); len(calls) != 1 || calls[0].Query.Get("limit") != "5" {
			t.Errorf("unexpected request %+v", calls)
		}
		for _, want := range []string{"Mix", "12 tracks", "ID: p1"} {
			if !strings.Contains(h.out.String(), want) {
				t.Errorf("expected %q in %q", want, h.out.String())
			}
		}
	})

	t.Run("play sends the playlist context", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/me/player/devices", tu.Route{Body: twoDevices}).
			On(http.MethodPut, "/me/player/play", noContent)

		if err := h.run("playlists", "play", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		play := h.api.Calls(http.MethodPut, "/me/player/play")
		if len(play) != 1 || !strings.Contains(play[0].Body, `"context_uri":"spotify:playlist:p1"`) {
			t.Errorf("unexpected play request %+v", play)
		}
	})

	t.Run("play requires an id", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("playlists", "play"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("tracks skips removed items", func(t *testing.T) {
		h := newHarness(t)
		h.api.On(http.MethodGet, "/playlists/p1/tracks", tu.Route{Body: `{"items":[
			{"track":{"name":"One","artists":[{"name":"A"}],"duration_ms":60000}},
			{"track":null},
			{"track":{"name":"Two","artists":[{"name":"B"}],"duration_ms":120000}}],"next":null}`})

		if err := h.run("playlists", "tracks", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"1. One by A", "2. Two by B", "2 tracks"} {
			if !strings.Contains(h.out.String(), want) {
				t.Errorf("expected %q in %q", want, h.out.String())
			}
		}
	})

	t.Run("export writes files and a manifest", func(t *testing.T) {
		h := newHarness(t)
		out := filepath.Join(h.dir, "export")
		h.api.On(http.MethodGet, "/playlists/p1", tu.Route{Body: `{"id":"p1","name":"Mix"}`}).
			On(http.MethodGet, "/playlists/p1/tracks", tu.Route{Body: `{"items":[
				{"track":{"name":"One","uri":"spotify:track:1","artists":[{"name":"A"}],"duration_ms":60000}}],"next":null}`})

		if err := h.run("playlists", "export", "--format", "csv", "--output", out, "--rate", "100", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(out, "p1_tracks.csv"))
		tu.AssertFileExists(t, filepath.Join(out, "export_manifest.json"))
		if !strings.Contains(h.out.String(), "Exported 1/1 playlists") {
			t.Errorf("unexpected output %q", h.out.String())
		}

		evs := h.events(t)
		if len(evs) != 1 || evs[0].Event != "spotify.playlist.exported" || evs[0].Data["format"] != "csv" {
			t.Errorf("unexpected events %+v", evs)
		}
	})

	t.Run("export all uses the library", func(t *testing.T) {
		h := newHarness(t)
		out := filepath.Join(h.dir, "export")
		h.api.On(http.MethodGet, "/me/playlists", tu.Route{Body: `{"items":[{"id":"p1","name":"Mix"}]}`}).
			On(http.MethodGet, "/playlists/p1", tu.Route{Body: `{"id":"p1","name":"Mix"}`}).
			On(http.MethodGet, "/playlists/p1/tracks", tu.Route{Body: `{"items":[],"next":null}`})

		if err := h.run("playlists", "export", "--all", "--json", "-o", out, "--rate", "100"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(h.out.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON, got %q", h.out.String())
		}
		if got["success"] != true || got["succeeded"] != float64(1) {
			t.Errorf("unexpected result %v", got)
		}
		tu.AssertFileExists(t, filepath.Join(out, "p1.json"))
	})

	t.Run("export requires ids", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("playlists", "export"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("playlists", "export", "--format", "xml", "p1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
