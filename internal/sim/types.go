package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
)

var (
	ErrAlreadyRunning  = errors.New("sim: clock already running")
	ErrInvalidInterval = errors.New("sim: tick interval must be positive")
)

// DefaultInterval is the sensor update cadence.
const DefaultInterval = time.Second

// Cause identifies the transition that produced a snapshot.
type Cause int

const (
	CauseInit Cause = iota
	CauseTick
	CauseEdit
	CauseToggle
)

func (c Cause) String() string {
	switch c {
	case CauseTick:
		return "tick"
	case CauseEdit:
		return "edit"
	case CauseToggle:
		return "toggle"
	}
	return "init"
}

func (c Cause) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Cause) UnmarshalText(b []byte) error {
	switch string(b) {
	case "init":
		*c = CauseInit
	case "tick":
		*c = CauseTick
	case "edit":
		*c = CauseEdit
	case "toggle":
		*c = CauseToggle
	default:
		return fmt.Errorf("sim: unknown cause %q", b)
	}
	return nil
}

// Snapshot is a read-only view of the state after one transition.
type Snapshot struct {
	Seq   uint64        `json:"seq"`  // transitions applied so far
	Tick  uint64        `json:"tick"` // clock ticks applied so far
	Cause Cause         `json:"cause"`
	At    time.Time     `json:"at"`
	State process.State `json:"state"`
}

// Observer receives every snapshot in transition order. OnSnapshot runs while
// the updater is locked: it must not block and must not call back into the
// updater.
type Observer interface {
	OnSnapshot(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }
