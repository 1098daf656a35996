package alpha

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lukehollenback/gander/trader/market"
)

//
// Direction is an enum that represents the predicted direction of an instrument's price.
//
type Direction int

const (
	Flat Direction = iota
	Up
	Down
)

func (o Direction) String() string {
	return [...]string{"Flat", "Up", "Down"}[o]
}

//
// Kind is an enum that represents what a signal makes a prediction about.
//
type Kind int

const (
	Price Kind = iota
)

func (o Kind) String() string {
	return [...]string{"Price"}[o]
}

//
// Signal is a directional forecast for an instrument that remains valid for Period after the
// instant it was generated at. Signals are plain values; holding one never aliases another.
//
type Signal struct {
	ID          uuid.UUID
	Symbol      market.Symbol
	Kind        Kind
	Direction   Direction
	Period      time.Duration
	GeneratedAt time.Time
	Source      string
}

//
// NewSignal instantiates a price signal with a fresh identifier.
//
func NewSignal(
	symbol market.Symbol,
	direction Direction,
	period time.Duration,
	generatedAt time.Time,
	source string,
) Signal {
	return Signal{
		ID:          uuid.New(),
		Symbol:      symbol,
		Kind:        Price,
		Direction:   direction,
		Period:      period,
		GeneratedAt: generatedAt,
		Source:      source,
	}
}

//
// Equal reports whether two signals make the same prediction: the same instrument, kind and
// direction. Identifiers, validity periods and generation times are ignored.
//
func (o Signal) Equal(other Signal) bool {
	return o.Symbol == other.Symbol && o.Kind == other.Kind && o.Direction == other.Direction
}

//
// ExpiresAt returns the first instant at which the signal is no longer valid.
//
func (o Signal) ExpiresAt() time.Time {
	return o.GeneratedAt.Add(o.Period)
}

func (o Signal) String() string {
	return fmt.Sprintf(
		"%s %s %s for %s at %s",
		o.Symbol, o.Kind, o.Direction, o.Period, o.GeneratedAt.Format(time.RFC3339),
	)
}
