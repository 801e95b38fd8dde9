package controller

import "github.com/pkg/errors"

// State is the lifecycle position of the load controller.
type State int

const (
	StateIdle State = iota
	StateProvisioned
	StateRunning
	StateCollected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProvisioned:
		return "provisioned"
	case StateRunning:
		return "running"
	case StateCollected:
		return "collected"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid controller state transition")

func transitionError(op string, from State) error {
	return errors.Wrapf(ErrInvalidTransition, "%s from %s", op, from)
}
