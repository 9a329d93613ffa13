package order

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

var (
	// ErrUnknownState is returned for a state name that does not parse.
	ErrUnknownState = errors.New("unknown order state")
	// ErrBackwardTransition is returned when a request would move an order
	// back in its lifecycle.
	ErrBackwardTransition = errors.New("order state can only move forward")
	// ErrNotMutation is returned when a read-only request reaches the
	// mutation path.
	ErrNotMutation = errors.New("view detail is not a status change")
)

// ParseState parses a state name, case-insensitively.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatePending, StateInProgress, StateDone, StateViewDetail:
		return st, nil
	default:
		return "", errors.Wrapf(ErrUnknownState, "%q", s)
	}
}

// Classify maps the two lifecycle flags to a state. A completed order that
// was never started is treated as done.
func Classify(o Order) State {
	switch {
	case o.IsCompleted:
		return StateDone
	case o.IsStarted:
		return StateInProgress
	default:
		return StatePending
	}
}

// FilterByState returns the orders classified as state, in input order.
func FilterByState(orders []Order, state State) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if Classify(o) == state {
			out = append(out, o)
		}
	}
	return out
}

func rank(s State) int {
	switch s {
	case StatePending:
		return 0
	case StateInProgress:
		return 1
	case StateDone:
		return 2
	default:
		return -1
	}
}

// Transition returns the fields to write to move an order from current to
// requested. An empty result means the order is already there.
func Transition(current, requested State) (docstore.Fields, error) {
	if requested == StateViewDetail {
		return nil, ErrNotMutation
	}
	from, to := rank(current), rank(requested)
	if from < 0 || to < 0 {
		return nil, errors.Wrapf(ErrUnknownState, "%s -> %s", current, requested)
	}
	switch {
	case to < from:
		return nil, errors.Wrapf(ErrBackwardTransition, "%s -> %s", current, requested)
	case to == from:
		return docstore.Fields{}, nil
	}

	fields := docstore.Fields{}
	if from < rank(StateInProgress) {
		fields[fieldIsStarted] = true
	}
	if to == rank(StateDone) {
		fields[fieldIsCompleted] = true
	}
	return fields, nil
}
