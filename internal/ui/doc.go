// Package ui renders playback state for the terminal.
//
// The formatting helpers (device icons, volume bars, progress lines) are shared by plain CLI
// output and the interactive player.
//
// The player [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// messages via the [Msg] union type. It has two views:
//  1. [PlayerView] : now playing, progress, shuffle/repeat, volume and device
//  2. [DeviceView] : a filterable device list for transferring playback
//
// Remote calls run as [tea.Cmd]s so the view never blocks. The progress clock advances locally
// every second and the state is re-fetched from Spotify every few seconds and after each action.
package ui
