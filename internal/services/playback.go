package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// RepeatState is the repeat mode reported and accepted by the player.
type RepeatState string

const (
	RepeatOff     RepeatState = "off"
	RepeatContext RepeatState = "context"
	RepeatTrack   RepeatState = "track"
)

// ParseRepeatState validates s. Anything other than off, track or context is [shared.ErrInvalidState].
func ParseRepeatState(s string) (RepeatState, error) {
	state := RepeatState(strings.ToLower(strings.TrimSpace(s)))
	if !state.Valid() {
		return "", fmt.Errorf("%w: repeat must be off, track, or context, got %q", shared.ErrInvalidState, s)
	}
	return state, nil
}

func (r RepeatState) Valid() bool {
	switch r {
	case RepeatOff, RepeatContext, RepeatTrack:
		return true
	}
	return false
}

// Next cycles off → context → track → off. Unknown states restart at context.
func (r RepeatState) Next() RepeatState {
	switch r {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	case RepeatTrack:
		return RepeatOff
	default:
		return RepeatContext
	}
}

// ShuffleMode is the parsed argument of the shuffle command.
type ShuffleMode int

const (
	ShuffleOff ShuffleMode = iota
	ShuffleOn
	ShuffleToggle
)

// ParseShuffle accepts on, off or toggle (and their boolean spellings).
func ParseShuffle(s string) (ShuffleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return ShuffleOn, nil
	case "off", "false", "0":
		return ShuffleOff, nil
	case "toggle", "":
		return ShuffleToggle, nil
	default:
		return 0, fmt.Errorf("%w: shuffle must be on, off, or toggle, got %q", shared.ErrInvalidState, s)
	}
}

// ClampVolume bounds v to [0, 100].
func ClampVolume(v int) int {
	return max(0, min(100, v))
}
