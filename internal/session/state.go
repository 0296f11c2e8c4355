// Package session drives one file through the import workflow: load, map,
// preview, import.
package session

import (
	"errors"
	"fmt"
)

// State is a step of the import workflow.
type State int

const (
	Idle State = iota
	Loaded
	Mapped
	Previewed
	Importing
	Done
	Failed
)

var stateNames = [...]string{"idle", "loaded", "mapped", "previewed", "importing", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// EventKind is something that happens to a session.
type EventKind int

const (
	EventLoad EventKind = iota
	EventEditMapping
	EventConfirmMapping
	EventPreview
	EventStartImport
	EventImportSucceeded
	EventImportFailed
	EventClose
)

var eventNames = [...]string{
	"load", "edit-mapping", "confirm-mapping", "preview",
	"start-import", "import-succeeded", "import-failed", "close",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// Event carries the facts the transition guards look at.
type Event struct {
	Kind      EventKind
	Ready     bool   // mapping readiness, for EventConfirmMapping
	AccountID string // selected account, for EventStartImport
	ValidRows int    // valid row count, for EventStartImport
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMappingNotReady   = errors.New("required fields are not mapped")
	ErrNoAccount         = errors.New("no account selected")
	ErrNoValidRows       = errors.New("no valid rows to import")
)

// Transition returns the state reached from s on e. It has no side effects.
func Transition(s State, e Event) (State, error) {
	if e.Kind == EventClose {
		return Idle, nil
	}

	switch s {
	case Idle:
		if e.Kind == EventLoad {
			return Loaded, nil
		}
	case Loaded, Mapped, Previewed:
		switch e.Kind {
		case EventEditMapping:
			return Loaded, nil
		case EventConfirmMapping:
			if s == Loaded {
				if !e.Ready {
					return s, ErrMappingNotReady
				}
				return Mapped, nil
			}
		case EventPreview:
			if s == Mapped || s == Previewed {
				return Previewed, nil
			}
		case EventStartImport:
			if s == Previewed {
				if e.AccountID == "" {
					return s, ErrNoAccount
				}
				if e.ValidRows < 1 {
					return s, ErrNoValidRows
				}
				return Importing, nil
			}
		}
	case Importing:
		switch e.Kind {
		case EventImportSucceeded:
			return Done, nil
		case EventImportFailed:
			return Failed, nil
		}
	}
	return s, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e.Kind, s)
}
