package watcher

import (
	"context"
	"time"
)

type State int

const (
	StateAttached State = iota
	StateConsistent
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateConsistent:
		return "consistent"
	case StateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Event is emitted on every state transition. FamilyID is the pointer value
// that caused it, "" when the pointer is unset.
type Event struct {
	State      State
	FamilyID   string
	ObservedAt time.Time
}

// PointerReader reads the account's current-family pointer, "" when unset.
type PointerReader interface {
	CurrentFamilyID(ctx context.Context, userID string) (string, error)
}
