package events

import (
	"strings"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

const DefaultComponent = "spotify"

// Event is one lifecycle record. It is written as a single JSON line.
type Event struct {
	ID        string         `json:"id"`
	Component string         `json:"component"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an event, prefixing name with the component unless it already is.
func NewEvent(component, name string, data map[string]any, now time.Time) Event {
	if component == "" {
		component = DefaultComponent
	}
	if data == nil {
		data = map[string]any{}
	}

	return Event{
		ID:        shared.GenerateID(),
		Component: component,
		Event:     Qualify(component, name),
		Data:      data,
		Timestamp: now.UTC().Truncate(time.Second),
	}
}

// Qualify prefixes name with component, defaulting the component to [DefaultComponent].
func Qualify(component, name string) string {
	if component == "" {
		component = DefaultComponent
	}
	if strings.HasPrefix(name, component+".") {
		return name
	}
	return component + "." + name
}
