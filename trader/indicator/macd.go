package indicator

import (
	"fmt"
	"time"

	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
)

const (
	DefaultFastPeriod   = 12
	DefaultSlowPeriod   = 26
	DefaultSignalPeriod = 9
)

//
// MACD is a moving average convergence/divergence indicator. It tracks a fast and a slow moving
// average of its input, their difference (the MACD line), and a moving average of that difference
// (the signal line).
//
// The indicator is warmed up once it has seen as many samples as its longest period. Until then
// every output reads as zero.
//
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	kind         MovingAverageType

	fast   MovingAverage
	slow   MovingAverage
	signal MovingAverage

	macd       decimal.Decimal
	samples    int
	lastUpdate time.Time
}

//
// NewMACD instantiates a MACD indicator with the provided period lengths. Every period must be
// positive.
//
func NewMACD(fastPeriod, slowPeriod, signalPeriod int, kind MovingAverageType) (*MACD, error) {
	var err error

	o := &MACD{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
		kind:         kind,
	}

	if o.fast, err = NewMovingAverage(kind, fastPeriod); err != nil {
		return nil, market.NewConfigError("fast period", "must be positive (got %d)", fastPeriod)
	}

	if o.slow, err = NewMovingAverage(kind, slowPeriod); err != nil {
		return nil, market.NewConfigError("slow period", "must be positive (got %d)", slowPeriod)
	}

	if o.signal, err = NewMovingAverage(kind, signalPeriod); err != nil {
		return nil, market.NewConfigError("signal period", "must be positive (got %d)", signalPeriod)
	}

	return o, nil
}

//
// Update calculates the provided sample into the indicator.
//
func (o *MACD) Update(at time.Time, value decimal.Decimal) {
	o.fast.Update(value)
	o.slow.Update(value)

	o.macd = o.fast.Value().Sub(o.slow.Value())
	o.signal.Update(o.macd)

	o.samples++
	o.lastUpdate = at
}

//
// WarmUpPeriod returns the number of samples required before the indicator's output is meaningful.
//
func (o *MACD) WarmUpPeriod() int {
	return max(o.fastPeriod, o.slowPeriod, o.signalPeriod)
}

func (o *MACD) Ready() bool {
	return o.samples >= o.WarmUpPeriod()
}

func (o *MACD) Samples() int {
	return o.samples
}

func (o *MACD) LastUpdate() time.Time {
	return o.lastUpdate
}

//
// Value returns the MACD line (fast average minus slow average), or zero while warming up.
//
func (o *MACD) Value() decimal.Decimal {
	if !o.Ready() {
		return decimal.Zero
	}

	return o.macd
}

//
// Signal returns the signal line (the moving average of the MACD line), or zero while warming up.
//
func (o *MACD) Signal() decimal.Decimal {
	if !o.Ready() {
		return decimal.Zero
	}

	return o.signal.Value()
}

//
// Histogram returns the MACD line minus the signal line, or zero while warming up.
//
func (o *MACD) Histogram() decimal.Decimal {
	if !o.Ready() {
		return decimal.Zero
	}

	return o.macd.Sub(o.signal.Value())
}

//
// Reset returns the indicator to its freshly-constructed state.
//
func (o *MACD) Reset() {
	o.fast.Reset()
	o.slow.Reset()
	o.signal.Reset()

	o.macd = decimal.Zero
	o.samples = 0
	o.lastUpdate = time.Time{}
}

func (o *MACD) String() string {
	return fmt.Sprintf("MACD(%d,%d,%d,%s)", o.fastPeriod, o.slowPeriod, o.signalPeriod, o.kind)
}
