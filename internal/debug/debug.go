// Package debug defines the structured debug-event surface shared by every
// component: a fixed category/level vocabulary plus an Emitter interface.
// Transport (HTML/ANSI/JSON renderers, log shippers) is an external
// collaborator; the default Emitter writes through logrus.
package debug

import (
	"github.com/sirupsen/logrus"
)

// Category classifies the subsystem an event originates from.
type Category string

const (
	CategorySQL         Category = "SQL"
	CategoryPerformance Category = "PERFORMANCE"
	CategoryBulk        Category = "BULK"
	CategoryCache       Category = "CACHE"
	CategoryTransaction Category = "TRANSACTION"
	CategoryMaintenance Category = "MAINTENANCE"
	CategorySecurity    Category = "SECURITY"
)

// Level controls verbosity, lowest first.
type Level int

const (
	Basic    Level = 1
	Detailed Level = 2
	Verbose  Level = 3
)

// Event is a single structured debug record.
type Event struct {
	Message  string
	Category Category
	Level    Level
	Context  map[string]any
}

// Emitter accepts structured events. Implementations must not block the
// caller for long; the query-builder/profiler hot paths call Emit inline.
type Emitter interface {
	Emit(Event)
}

// LogrusEmitter is the default Emitter, writing each Event as a single
// structured logrus entry.
type LogrusEmitter struct {
	Logger   *logrus.Logger
	MinLevel Level
}

// NewLogrusEmitter builds an emitter over logrus's standard logger,
// reporting events whose level is minLevel or lower (less verbose); more
// verbose events are dropped.
func NewLogrusEmitter(minLevel Level) *LogrusEmitter {
	return &LogrusEmitter{Logger: logrus.StandardLogger(), MinLevel: minLevel}
}

func (e *LogrusEmitter) Emit(ev Event) {
	if ev.Level > e.MinLevel {
		return
	}

	fields := logrus.Fields{"category": string(ev.Category), "level": int(ev.Level)}
	for k, v := range ev.Context {
		fields[k] = v
	}

	entry := e.Logger.WithFields(fields)
	switch ev.Category {
	case CategorySecurity:
		entry.Warn(ev.Message)
	default:
		entry.Debug(ev.Message)
	}
}

// NopEmitter discards every event; used as a default when no transport is
// configured.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
