package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// Sink receives every emitted event in addition to the JSONL log.
type Sink interface {
	Record(e Event) error
	Close() error
}

// EmitterOptions configures an [Emitter]. An empty Path disables the JSONL log.
type EmitterOptions struct {
	Path      string
	Component string
	Logger    *log.Logger
	Sinks     []Sink
}

// Emitter appends events to a newline-delimited JSON log shared with other tools.
//
// Emit never fails the caller: write errors are logged at debug level and dropped.
type Emitter struct {
	path      string
	component string
	logger    *log.Logger
	sinks     []Sink
	now       func() time.Time

	mu sync.Mutex
}

func NewEmitter(opts EmitterOptions) *Emitter {
	if opts.Component == "" {
		opts.Component = DefaultComponent
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Emitter{
		path:      opts.Path,
		component: opts.Component,
		logger:    opts.Logger,
		sinks:     opts.Sinks,
		now:       time.Now,
	}
}

// Emit records name with data. It is safe for concurrent use.
func (e *Emitter) Emit(name string, data map[string]any) {
	if e == nil {
		return
	}
	e.Publish(NewEvent(e.component, name, data, e.now()))
}

// Publish records a fully formed event, returning it for callers that want to echo it.
func (e *Emitter) Publish(ev Event) Event {
	if e == nil {
		return ev
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path != "" {
		if err := appendLine(e.path, ev); err != nil {
			e.logger.Debug("event not written", "event", ev.Event, "error", err)
		}
	}

	for _, sink := range e.sinks {
		if err := sink.Record(ev); err != nil {
			e.logger.Debug("event sink failed", "event", ev.Event, "error", err)
		}
	}
	return ev
}

// Close releases every sink.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func appendLine(path string, ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create event log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
