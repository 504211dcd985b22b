// Package services implements a typed client for the Spotify Web API player, search and playlist
// endpoints.
//
// # Authentication
//
// [SpotifyService] asks its [TokenProvider] for a bearer token before every call. The provider
// (an auth.Session in the CLI) refreshes stale tokens, so the client itself never talks to the
// accounts service.
//
// # Device Targeting
//
// Commands that start playback resolve a target device first:
//   - no selector: the active device, else the first listed device, else [shared.ErrNoDeviceAvailable]
//   - selector: exact id, then case-insensitive name substring, else [shared.ErrDeviceNotFound]
//
// An inactive target receives a transfer, then the [ActivationPolicy] waits for it to accept
// commands. Spotify marks devices active eventually, so a command issued right after a transfer
// can still fail; such failures wrap [shared.ErrDeviceActivation].
//
// # Error Handling
//
// Non-2xx responses become [*APIError] carrying the message Spotify returned, and match
// [shared.ErrAPIRequest]. Invalid repeat, shuffle or volume arguments are rejected or clamped
// before any request is made.
package services
