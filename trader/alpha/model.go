package alpha

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/metrics"
	"github.com/lukehollenback/gander/trader/candle"
	"github.com/lukehollenback/gander/trader/indicator"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
)

const (
	Name = "≪alpha-model≫"
)

var (
	logger *log.Logger

	defaultThreshold = decimal.NewFromFloat(0.01)
)

func init() {
	//
	// Initialize the logger.
	//
	logger = log.New(log.Writer(), fmt.Sprintf(constants.LogPrefixFmt, Name), log.Ldate|log.Ltime|log.Lmsgprefix)
}

//
// Config holds the tunable parameters of a Model.
//
type Config struct {
	Name                string                      // Identifies the model as the source of its signals. Derived from the periods if empty.
	FastPeriod          int                         // Length (in candles) of the fast moving average.
	SlowPeriod          int                         // Length (in candles) of the slow moving average.
	SignalPeriod        int                         // Length (in candles) of the signal line's moving average.
	MovingAverageType   indicator.MovingAverageType // Kind of moving average used throughout the indicator.
	ConsolidationPeriod time.Duration               // Duration of each candle fed into the indicator.
	Threshold           decimal.Decimal             // Normalized signal line level that must be exceeded to call a direction.
	ValidityPeriod      time.Duration               // How long emitted signals stay valid. ConsolidationPeriod × FastPeriod if zero.
	History             int                         // Number of recently closed candles kept per instrument.
}

//
// DefaultConfig returns the standard 12/26/9 exponential configuration over ten minute candles
// with a one percent threshold.
//
func DefaultConfig() Config {
	return Config{
		FastPeriod:          indicator.DefaultFastPeriod,
		SlowPeriod:          indicator.DefaultSlowPeriod,
		SignalPeriod:        indicator.DefaultSignalPeriod,
		MovingAverageType:   indicator.Exponential,
		ConsolidationPeriod: candle.TenMinute,
		Threshold:           defaultThreshold,
		History:             5,
	}
}

//
// normalize validates the configuration and fills in derived values.
//
func (c Config) normalize() (Config, error) {
	if c.ConsolidationPeriod <= 0 {
		return c, market.NewConfigError("consolidation period", "must be positive (got %s)", c.ConsolidationPeriod)
	}

	if c.FastPeriod <= 0 {
		return c, market.NewConfigError("fast period", "must be positive (got %d)", c.FastPeriod)
	}

	if c.SlowPeriod <= 0 {
		return c, market.NewConfigError("slow period", "must be positive (got %d)", c.SlowPeriod)
	}

	if c.SignalPeriod <= 0 {
		return c, market.NewConfigError("signal period", "must be positive (got %d)", c.SignalPeriod)
	}

	if c.ValidityPeriod < 0 {
		return c, market.NewConfigError("validity period", "cannot be negative (got %s)", c.ValidityPeriod)
	}

	if c.History < 0 {
		return c, market.NewConfigError("history", "cannot be negative (got %d)", c.History)
	}

	if c.ValidityPeriod == 0 {
		c.ValidityPeriod = c.ConsolidationPeriod * time.Duration(c.FastPeriod)
	}

	if c.History == 0 {
		c.History = 1
	}

	if c.Name == "" {
		c.Name = fmt.Sprintf("MACD(%d,%d,%d)", c.FastPeriod, c.SlowPeriod, c.SignalPeriod)
	}

	c.Threshold = c.Threshold.Abs()

	return c, nil
}

//
// Model turns the MACD signal line of every instrument in the universe into directional signals.
// The signal line is normalized by the instrument's current price; the instrument is called Up when
// that exceeds the threshold, Down when it falls below the negated threshold, and Flat otherwise. A
// signal is only emitted when the call differs from the last one emitted for the instrument.
//
// A Model is driven by a single goroutine. OnUniverseChanged and Update must never run
// concurrently, and the Router it was constructed with must be fed from that same goroutine.
//
type Model struct {
	cfg      Config
	router   *candle.Router
	prices   market.Prices
	trackers map[market.Symbol]*symbolData
}

//
// NewModel instantiates a model with the provided configuration. Candles are built from
// observations delivered through the provided router, and current prices are read from the
// provided price source.
//
func NewModel(cfg Config, router *candle.Router, prices market.Prices) (*Model, error) {
	if router == nil {
		return nil, market.NewConfigError("router", "must be provided")
	}

	if prices == nil {
		return nil, market.NewConfigError("prices", "must be provided")
	}

	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	logger.Printf(
		"Initialized %s. (Candles = %s, Moving Averages = %s, Threshold = %s, Validity = %s).",
		cfg.Name, cfg.ConsolidationPeriod, cfg.MovingAverageType, cfg.Threshold, cfg.ValidityPeriod,
	)

	return &Model{
		cfg:      cfg,
		router:   router,
		prices:   prices,
		trackers: make(map[market.Symbol]*symbolData),
	}, nil
}

// Name returns the name the model stamps onto its signals.
func (o *Model) Name() string {
	return o.cfg.Name
}

// Config returns the model's normalized configuration.
func (o *Model) Config() Config {
	return o.cfg
}

//
// OnUniverseChanged starts tracking every added instrument and stops tracking every removed one.
// Removals are applied first, so an instrument that is both removed and added in the same change
// comes back with fresh state.
//
// Adding an instrument that is already tracked yields a *UniverseError in the returned (joined)
// error; removing an instrument that is not tracked is logged and otherwise ignored. Neither stops
// the remaining instruments from being processed.
//
func (o *Model) OnUniverseChanged(added []market.Symbol, removed []market.Symbol) error {
	var errs []error

	for _, symbol := range removed {
		tracker, ok := o.trackers[symbol]
		if !ok {
			logger.Printf("%s %s", aurora.Yellow("Ignoring removal."), NewStaleRemovalError(symbol))

			continue
		}

		tracker.cleanup()
		delete(o.trackers, symbol)

		logger.Printf("Stopped tracking %s.", aurora.Bold(symbol))
	}

	for _, symbol := range added {
		if _, ok := o.trackers[symbol]; ok {
			errs = append(errs, NewUniverseError(symbol))

			continue
		}

		tracker, err := newSymbolData(symbol, o.cfg, o.router, o.prices)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to track %s: %w", symbol, err))

			continue
		}

		o.trackers[symbol] = tracker

		logger.Printf("Started tracking %s.", aurora.Bold(symbol))
	}

	metrics.TrackedInstruments.Set(float64(len(o.trackers)))

	return errors.Join(errs...)
}

//
// Update evaluates every tracked instrument as of the provided instant and returns the signals
// that should be emitted (possibly none). Instruments without a current price or whose indicator
// is still warming up are skipped for this call.
//
func (o *Model) Update(now time.Time) []Signal {
	signals := make([]Signal, 0)

	for _, symbol := range o.Tracked() {
		tracker := o.trackers[symbol]

		//
		// Defer evaluation of instruments that have not been priced yet.
		//
		price := tracker.price()
		if price.IsZero() {
			continue
		}

		if !tracker.macd.Ready() {
			continue
		}

		//
		// Classify the normalized signal line.
		//
		normalized := tracker.signal().Div(price)
		direction := o.classify(normalized)

		signal := NewSignal(symbol, direction, o.cfg.ValidityPeriod, now, o.cfg.Name)

		//
		// Only changes of direction are worth emitting.
		//
		if tracker.hasPrevious && tracker.previous.Equal(signal) {
			metrics.SuppressedTotal.WithLabelValues(symbol.String()).Inc()

			continue
		}

		tracker.previous = signal
		tracker.hasPrevious = true

		signals = append(signals, signal)

		metrics.SignalsTotal.WithLabelValues(symbol.String(), direction.String()).Inc()

		logger.Printf(
			"%s is now %s (normalized signal line %s against threshold %s at %s).",
			aurora.Bold(symbol), colorize(direction), normalized.StringFixed(6), o.cfg.Threshold, price,
		)
	}

	return signals
}

func (o *Model) classify(normalized decimal.Decimal) Direction {
	if normalized.GreaterThan(o.cfg.Threshold) {
		return Up
	}

	if normalized.LessThan(o.cfg.Threshold.Mul(constants.NegOne())) {
		return Down
	}

	return Flat
}

//
// Tracked returns every tracked instrument in the order Update evaluates them.
//
func (o *Model) Tracked() []market.Symbol {
	symbols := make([]market.Symbol, 0, len(o.trackers))

	for symbol := range o.trackers {
		symbols = append(symbols, symbol)
	}

	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i] < symbols[j]
	})

	return symbols
}

// IsTracked reports whether the provided instrument is currently in the model's universe.
func (o *Model) IsTracked(symbol market.Symbol) bool {
	_, ok := o.trackers[symbol]

	return ok
}

//
// State returns a snapshot of the provided instrument's tracker, if it is being tracked.
//
func (o *Model) State(symbol market.Symbol) (State, bool) {
	tracker, ok := o.trackers[symbol]
	if !ok {
		return State{}, false
	}

	return tracker.state(), true
}

//
// Close stops tracking every instrument.
//
func (o *Model) Close() {
	_ = o.OnUniverseChanged(nil, o.Tracked())
}

func colorize(direction Direction) aurora.Value {
	switch direction {
	case Up:
		return aurora.Bold(aurora.Green(direction))
	case Down:
		return aurora.Bold(aurora.Red(direction))
	}

	return aurora.Bold(aurora.Blue(direction))
}
