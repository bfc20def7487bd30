package world

import (
	"errors"
	"fmt"
)

// Structural rejections. The operation returning one of these has not
// mutated anything.
var (
	ErrInvalidComponent  = errors.New("invalid component")
	ErrAttachCycle       = errors.New("attachment would create a cycle")
	ErrAttachConflict    = errors.New("conflicting attachment state")
	ErrEntityInLevel     = errors.New("entity already belongs to a level")
	ErrForeignEntity     = errors.New("entity belongs to another world")
	ErrLevelInCollection = errors.New("level already belongs to a collection")
	ErrForeignLevel      = errors.New("level belongs to another world")
	ErrLevelNotFound     = errors.New("level not in any collection")
	ErrPersistentLevel   = errors.New("persistent level cannot be removed")
	ErrUnknownCollection = errors.New("unknown level collection")
)

// InvariantViolation is the panic value for broken runtime invariants.
// It is never returned as an error.
type InvariantViolation struct {
	Msg string
}

func (v InvariantViolation) Error() string { return "invariant violation: " + v.Msg }

// Fatalf panics with an InvariantViolation.
func Fatalf(format string, args ...any) {
	panic(InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}

func invariant(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}
