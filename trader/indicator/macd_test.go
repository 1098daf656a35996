package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
)

var (
	start = time.Date(2020, 8, 25, 0, 0, 0, 0, time.UTC)
)

func feed(o *MACD, values ...string) {
	for i, v := range values {
		o.Update(start.Add(time.Duration(i)*10*time.Minute), decimal.RequireFromString(v))
	}
}

func TestNewMACDRejectsNonPositivePeriods(t *testing.T) {
	cases := [][3]int{{0, 26, 9}, {12, -1, 9}, {12, 26, 0}}

	for _, c := range cases {
		_, err := NewMACD(c[0], c[1], c[2], Exponential)

		var cfgErr *market.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected periods %v to be rejected with a configuration error, but got %v.", c, err)
		}
	}
}

func TestMACDWarmUp(t *testing.T) {
	o, err := NewMACD(3, 5, 2, Exponential)
	if err != nil {
		t.Fatalf("Failed to instantiate MACD. (Error: %s)", err)
	}

	if o.WarmUpPeriod() != 5 {
		t.Errorf("Expected a warm-up period of 5, but got %d.", o.WarmUpPeriod())
	}

	feed(o, "100", "101", "103", "108")

	if o.Ready() {
		t.Errorf("The indicator should not be ready after 4 of 5 samples.")
	}

	if !o.Signal().IsZero() || !o.Value().IsZero() || !o.Histogram().IsZero() {
		t.Errorf("Expected zero outputs while warming up, but the signal line was %s.", o.Signal())
	}

	o.Update(start.Add(time.Hour), decimal.NewFromInt(115))

	if !o.Ready() {
		t.Fatalf("The indicator should be ready after 5 samples.")
	}

	if !o.Signal().IsPositive() {
		t.Errorf("Expected a positive signal line for a rising series, but it was %s.", o.Signal())
	}

	if !o.LastUpdate().Equal(start.Add(time.Hour)) {
		t.Errorf("Expected the last update to be stamped %s, but it was %s.", start.Add(time.Hour), o.LastUpdate())
	}
}

func TestMACDFallingSeries(t *testing.T) {
	o, _ := NewMACD(3, 5, 2, Simple)

	feed(o, "120", "115", "109", "104", "100", "97", "92")

	if !o.Signal().IsNegative() {
		t.Errorf("Expected a negative signal line for a falling series, but it was %s.", o.Signal())
	}
}

func TestMACDDeterminism(t *testing.T) {
	values := []string{
		"100.13", "101.7", "99.25", "103.01", "108.5", "107.99", "115.2", "113.4", "120.05",
		"118.75", "121.125", "119.9", "125.3", "130.01", "128.8", "127.55", "133.3", "131.1",
		"140.62", "139.0", "141.25", "150.5", "148.75", "152.2", "155.55", "149.95", "160.1",
		"158.8", "162.06", "170.7",
	}

	a, _ := NewMACD(DefaultFastPeriod, DefaultSlowPeriod, DefaultSignalPeriod, Exponential)
	b, _ := NewMACD(DefaultFastPeriod, DefaultSlowPeriod, DefaultSignalPeriod, Exponential)

	feed(a, values...)
	feed(b, values...)

	if !a.Ready() {
		t.Fatalf("Expected the indicator to be ready after %d samples.", len(values))
	}

	if a.Signal().String() != b.Signal().String() {
		t.Errorf("Identical inputs produced different signal lines (%s vs %s).", a.Signal(), b.Signal())
	}

	if a.Value().String() != b.Value().String() {
		t.Errorf("Identical inputs produced different MACD lines (%s vs %s).", a.Value(), b.Value())
	}
}

func TestMACDReset(t *testing.T) {
	o, _ := NewMACD(2, 3, 2, Exponential)

	feed(o, "1", "2", "3", "4")
	o.Reset()

	if o.Ready() || o.Samples() != 0 || !o.LastUpdate().IsZero() {
		t.Errorf("Expected a reset indicator to be cold, but it had %d samples.", o.Samples())
	}
}
