package shared

import "fmt"

var (
	// Configuration errors
	ErrConfigurationMissing = fmt.Errorf("spotify client credentials not configured")
	ErrInvalidConfig        = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthTimeout         = fmt.Errorf("authorization timed out")
	ErrAuthCancelled       = fmt.Errorf("authorization cancelled")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrTokenRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrNoPortAvailable     = fmt.Errorf("no callback port available")

	// Device errors
	ErrNoDeviceAvailable = fmt.Errorf("no spotify devices available")
	ErrDeviceNotFound    = fmt.Errorf("device not found")
	ErrDeviceActivation  = fmt.Errorf("device did not accept playback after transfer")

	// API and playback errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrNothingPlaying = fmt.Errorf("nothing is currently playing")
	ErrNoResults      = fmt.Errorf("no results found")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidState    = fmt.Errorf("invalid state")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
