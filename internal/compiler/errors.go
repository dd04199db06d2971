package compiler

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors through errors.Is
var (
	ErrEmptyChain        = errors.New("empty chain")
	ErrInvalidChain      = errors.New("invalid chain")
	ErrDuplicateStepName = errors.New("duplicate step name")
	ErrDependency        = errors.New("unmet dependency")
	ErrMalformedGraph    = errors.New("malformed graph")
)

// EmptyChainError is returned when a chain has no steps
type EmptyChainError struct {
	Chain string
}

func (e *EmptyChainError) Error() string {
	return fmt.Sprintf("chain %q has no steps", e.Chain)
}

func (e *EmptyChainError) Is(target error) bool { return target == ErrEmptyChain }

// InvalidChainError is returned when the chain or one of its steps has no name.
// Step is -1 when the chain name itself is the problem.
type InvalidChainError struct {
	Chain  string
	Step   int
	Reason string
}

func (e *InvalidChainError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("invalid chain %q: %s", e.Chain, e.Reason)
	}
	return fmt.Sprintf("invalid chain %q: step %d: %s", e.Chain, e.Step, e.Reason)
}

func (e *InvalidChainError) Is(target error) bool { return target == ErrInvalidChain }

// DuplicateStepNameError is returned when two steps of one chain share a name
type DuplicateStepNameError struct {
	Chain  string
	Step   string
	First  int
	Second int
}

func (e *DuplicateStepNameError) Error() string {
	return fmt.Sprintf("chain %q: step name %q used at positions %d and %d", e.Chain, e.Step, e.First, e.Second)
}

func (e *DuplicateStepNameError) Is(target error) bool { return target == ErrDuplicateStepName }

// DependencyError is returned when a step declares an input that no earlier step produces
type DependencyError struct {
	Chain string
	Step  string
	Input string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("chain %q: step %q requires %q but no preceding step produces it", e.Chain, e.Step, e.Input)
}

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

// MalformedGraphError is returned when a graph is not a single simple path
type MalformedGraphError struct {
	Chain   string
	Sources int
	Sinks   int
	Reason  string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph for chain %q (%d sources, %d sinks): %s", e.Chain, e.Sources, e.Sinks, e.Reason)
}

func (e *MalformedGraphError) Is(target error) bool { return target == ErrMalformedGraph }
