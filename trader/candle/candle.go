package candle

import (
	"fmt"
	"time"

	"github.com/lukehollenback/gander/constants"
	"github.com/shopspring/decimal"
)

//
// Candle represents a snapshot of price observations that fell within one fixed-duration bucket.
//
type Candle struct {
	start    time.Time
	duration time.Duration
	open     decimal.Decimal
	close    decimal.Decimal
	high     decimal.Decimal
	low      decimal.Decimal
	avg      decimal.Decimal
	total    decimal.Decimal
	cnt      decimal.Decimal
}

//
// CreateCandle instantiates a new candle struct.
//
func CreateCandle(
	start time.Time,
	duration time.Duration,
	firstAmt decimal.Decimal,
) *Candle {
	o := &Candle{
		start:    start,
		duration: duration,
		open:     firstAmt,
		close:    firstAmt,
		high:     firstAmt,
		low:      firstAmt,
		avg:      firstAmt,
		total:    firstAmt,
		cnt:      constants.One(),
	}

	return o
}

//
// Append calculates a given price observation into the candle. The observation must fall within
// the window in time that the candle represents a snapshot of.
//
func (o *Candle) Append(at time.Time, amt decimal.Decimal) error {
	//
	// Make sure the provided observation is valid for this candle.
	//
	if !o.Contains(at) {
		return fmt.Errorf(
			"cannot append observation from %s to %s candle starting at %s",
			at, o.duration, o.start,
		)
	}

	//
	// Update the necessary fields of the candle.
	//
	o.close = amt

	if amt.GreaterThan(o.high) {
		o.high = amt
	}

	if amt.LessThan(o.low) {
		o.low = amt
	}

	o.total = o.total.Add(amt)
	o.cnt = o.cnt.Add(constants.One())
	o.avg = o.total.Div(o.cnt)

	return nil
}

//
// Contains reports whether the provided instant falls within [start, start + duration).
//
func (o *Candle) Contains(at time.Time) bool {
	return !at.Before(o.start) && at.Before(o.End())
}

func (o *Candle) Start() time.Time {
	return o.start
}

//
// End returns the first instant that is no longer covered by the candle.
//
func (o *Candle) End() time.Time {
	return o.start.Add(o.duration)
}

func (o *Candle) Duration() time.Duration {
	return o.duration
}

func (o *Candle) OpenAmt() decimal.Decimal {
	return o.open
}

func (o *Candle) HighAmt() decimal.Decimal {
	return o.high
}

func (o *Candle) LowAmt() decimal.Decimal {
	return o.low
}

//
// CloseAmt returns the last price appended to the candle. This is the scalar sample that
// downstream indicators consume.
//
func (o *Candle) CloseAmt() decimal.Decimal {
	return o.close
}

func (o *Candle) AvgAmt() decimal.Decimal {
	return o.avg
}

func (o *Candle) Count() int64 {
	return o.cnt.IntPart()
}

func (o *Candle) String() string {
	return fmt.Sprintf(
		"[%s +%s] O %s H %s L %s C %s (n=%d)",
		o.start.Format(time.RFC3339), o.duration, o.open, o.high, o.low, o.close, o.Count(),
	)
}
