package alpha

import (
	"fmt"

	"github.com/lukehollenback/gander/trader/market"
)

//
// UniverseError represents an add notification for an instrument that is already being tracked.
// It means that whoever manages the universe has lost track of its own membership.
//
type UniverseError struct {
	Symbol market.Symbol
}

func NewUniverseError(symbol market.Symbol) *UniverseError {
	return &UniverseError{
		Symbol: symbol,
	}
}

func (o *UniverseError) Error() string {
	return fmt.Sprintf("instrument %s is already being tracked", o.Symbol)
}

//
// StaleRemovalError represents a remove notification for an instrument that is not being tracked.
// It is expected when a removal is delivered twice, so it is only ever logged.
//
type StaleRemovalError struct {
	Symbol market.Symbol
}

func NewStaleRemovalError(symbol market.Symbol) *StaleRemovalError {
	return &StaleRemovalError{
		Symbol: symbol,
	}
}

func (o *StaleRemovalError) Error() string {
	return fmt.Sprintf("instrument %s is not being tracked and cannot be removed", o.Symbol)
}
