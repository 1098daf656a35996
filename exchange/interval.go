package exchange

import "time"

//
// Interval is an enum that represents various kline/candlestick intervals that can be retrieved
// from an exchange's historical data endpoints.
//
type Interval int

const (
	OneMinute Interval = iota
	ThreeMinute
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	TwoHour
	FourHour
	SixHour
	EightHour
	TwelveHour
	OneDay
	ThreeDay
	OneWeek
)

var (
	durations = [...]time.Duration{
		time.Minute, 3 * time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute,
		time.Hour, 2 * time.Hour, 4 * time.Hour, 6 * time.Hour, 8 * time.Hour, 12 * time.Hour,
		24 * time.Hour, 72 * time.Hour, 7 * 24 * time.Hour,
	}
)

func (o Interval) String() string {
	return [...]string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w"}[o]
}

//
// Duration returns the length of time that a single candle of the interval spans.
//
func (o Interval) Duration() time.Duration {
	return durations[o]
}

//
// ParseInterval converts an exchange-style interval string (e.g. "15m") into an Interval.
//
func ParseInterval(s string) (Interval, bool) {
	for i := OneMinute; i <= OneWeek; i++ {
		if i.String() == s {
			return i, true
		}
	}

	return OneMinute, false
}
