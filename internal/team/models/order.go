package models

import (
	"strings"

	dErrors "binoqule/pkg/domain-errors"
)

// Direction is the way a move shifts a member.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "direction must be \"up\" or \"down\"")
	}
}

// MoveCommand asks for the member at Index to be swapped with a neighbour.
// ExpectedID, when set, must be the member currently at Index; it guards
// against moves issued from an outdated list.
type MoveCommand struct {
	Index      int
	Direction  Direction
	ExpectedID string
}
