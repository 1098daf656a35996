package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

//
// Symbol is the opaque identifier of a tradable instrument (e.g. "BTC-USD"). Two symbols are the
// same instrument if and only if their values are equal, which makes them safe to use as map keys.
//
type Symbol string

func (o Symbol) String() string {
	return string(o)
}

//
// Observation is a single, already-validated price sample for an instrument. Time is the instant
// the sample was taken. EndTime is the instant the sample stops being current; for trade prints
// the two are identical, while samples derived from bars carry the bar's close instant.
//
type Observation struct {
	Symbol  Symbol
	Time    time.Time
	EndTime time.Time
	Price   decimal.Decimal
}

//
// NewObservation instantiates an observation of a point-in-time price (such as a trade match).
//
func NewObservation(symbol Symbol, at time.Time, price decimal.Decimal) Observation {
	return Observation{
		Symbol:  symbol,
		Time:    at,
		EndTime: at,
		Price:   price,
	}
}

func (o Observation) String() string {
	return fmt.Sprintf("%s %s @ %s", o.Symbol, o.Price, o.Time.Format(time.RFC3339))
}
