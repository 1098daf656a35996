package indicator

import (
	"fmt"
	"strings"

	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/structs/evictingqueue"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
)

//
// MovingAverageType is an enum that selects how the averages within an indicator are computed.
//
type MovingAverageType int

const (
	Exponential MovingAverageType = iota
	Simple
)

func (o MovingAverageType) String() string {
	return [...]string{"exponential", "simple"}[o]
}

//
// ParseMovingAverageType converts a configuration value ("exponential"/"ema" or "simple"/"sma")
// into a MovingAverageType. The empty string selects the exponential moving average.
//
func ParseMovingAverageType(s string) (MovingAverageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exponential", "ema":
		return Exponential, nil
	case "simple", "sma":
		return Simple, nil
	}

	return Exponential, fmt.Errorf("unknown moving average type %q", s)
}

//
// MovingAverage is a running average over a stream of samples.
//
type MovingAverage interface {

	//
	// Update calculates the provided sample into the average.
	//
	Update(value decimal.Decimal)

	//
	// Value returns the most-recently-calculated average.
	//
	Value() decimal.Decimal

	//
	// Ready returns whether or not at least one full period of samples has been seen.
	//
	Ready() bool

	//
	// Samples returns the number of samples that have been calculated into the average.
	//
	Samples() int

	//
	// Reset returns the average to its freshly-constructed state.
	//
	Reset()
}

//
// NewMovingAverage instantiates a moving average of the provided type and period length.
//
func NewMovingAverage(kind MovingAverageType, period int) (MovingAverage, error) {
	if period <= 0 {
		return nil, market.NewConfigError("moving average period", "must be positive (got %d)", period)
	}

	if kind == Simple {
		return NewSMA(period), nil
	}

	return NewEMA(period), nil
}

//
// EMA is an exponential moving average. It is primed with its first sample and then updated
// recursively with a smoothing factor of 2 ÷ (period + 1).
//
type EMA struct {
	period          int
	smoothingFactor decimal.Decimal
	value           decimal.Decimal
	samples         int
}

func NewEMA(period int) *EMA {
	return &EMA{
		period:          period,
		smoothingFactor: constants.Two().Div(decimal.NewFromInt(int64(period)).Add(constants.One())),
	}
}

func (o *EMA) Update(value decimal.Decimal) {
	o.samples++

	if o.samples == 1 {
		o.value = value

		return
	}

	// NOTE ~> EMA = (current sample - previous EMA) × smoothing factor + previous EMA

	o.value = value.Sub(o.value).Mul(o.smoothingFactor).Add(o.value)
}

func (o *EMA) Value() decimal.Decimal {
	return o.value
}

func (o *EMA) Ready() bool {
	return o.samples >= o.period
}

func (o *EMA) Samples() int {
	return o.samples
}

func (o *EMA) Reset() {
	o.value = decimal.Zero
	o.samples = 0
}

//
// SMA is a simple moving average over the most recent period's worth of samples.
//
type SMA struct {
	window  *evictingqueue.EvictingQueue[decimal.Decimal]
	sum     decimal.Decimal
	samples int
}

func NewSMA(period int) *SMA {
	return &SMA{
		window: evictingqueue.New[decimal.Decimal](period),
	}
}

func (o *SMA) Update(value decimal.Decimal) {
	o.samples++
	o.sum = o.sum.Add(value)

	if evicted, ok := o.window.Add(value); ok {
		o.sum = o.sum.Sub(evicted)
	}
}

func (o *SMA) Value() decimal.Decimal {
	if o.window.Len() == 0 {
		return decimal.Zero
	}

	return o.sum.Div(decimal.NewFromInt(int64(o.window.Len())))
}

func (o *SMA) Ready() bool {
	return o.window.Full()
}

func (o *SMA) Samples() int {
	return o.samples
}

func (o *SMA) Reset() {
	o.window.Clear()
	o.sum = decimal.Zero
	o.samples = 0
}
