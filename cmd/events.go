package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/events"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// EventEmit writes an event to the log. Data, when given, must be a JSON object.
func (r *Runner) EventEmit(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: event name", shared.ErrMissingArgument)
	}

	data := map[string]any{}
	if raw := cmd.StringArg("data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("%w: event data must be a JSON object: %v", shared.ErrInvalidArgument, err)
		}
	}

	ev := r.events.Publish(events.NewEvent(r.config.Events.Component, name, data, time.Now()))

	if cmd.Bool("json") {
		return r.writeJSON(ev, false)
	}
	return r.writePlain("✅ Event emitted: %s\n", ev.Event)
}

// EventsTail prints recent events, newest last, from SQLite when configured or the JSONL log otherwise.
func (r *Runner) EventsTail(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	name := cmd.String("name")
	if name != "" {
		name = events.Qualify(r.config.Events.Component, name)
	}

	var evs []events.Event
	var err error
	if r.history != nil {
		evs, err = r.history.Recent(limit, name)
		for i, j := 0, len(evs)-1; i < j; i, j = i+1, j-1 {
			evs[i], evs[j] = evs[j], evs[i]
		}
	} else {
		evs, err = events.ReadLog(r.config.EventsFile(), 0)
		evs = filterEvents(evs, name, limit)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if evs == nil {
			evs = []events.Event{}
		}
		return r.writeJSON(evs, false)
	}

	if len(evs) == 0 {
		return r.writePlain("No events recorded\n")
	}

	for _, ev := range evs {
		payload, _ := json.Marshal(ev.Data)
		r.writePlain("%s %s %s\n", ui.Muted(ev.Timestamp.Local().Format(time.DateTime)), ui.Accent(ev.Event), payload)
	}
	return nil
}

// filterEvents keeps the last limit events named name.
func filterEvents(evs []events.Event, name string, limit int) []events.Event {
	if name != "" {
		kept := evs[:0]
		for _, ev := range evs {
			if ev.Event == name {
				kept = append(kept, ev)
			}
		}
		evs = kept
	}
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	return evs
}
