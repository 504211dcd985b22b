package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotx/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaybackFetched MsgKind = iota
	MsgDevicesFetched
	MsgActionDone
	MsgTick
)

type playbackResult struct {
	state *services.PlaybackState
	err   error
}

type devicesResult struct {
	devices []services.Device
	err     error
}

type actionResult struct {
	status string
	err    error
}

// playbackFetchedMsg is the constructor for [MsgPlaybackFetched]
func playbackFetchedMsg(state *services.PlaybackState, err error) Msg {
	return Msg{kind: MsgPlaybackFetched, data: playbackResult{state, err}}
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []services.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesResult{devices, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{status, err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}
