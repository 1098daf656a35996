package alpha

import (
	"github.com/google/uuid"
	"github.com/lukehollenback/gander/metrics"
	"github.com/lukehollenback/gander/structs/evictingqueue"
	"github.com/lukehollenback/gander/trader/candle"
	"github.com/lukehollenback/gander/trader/indicator"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"
)

//
// symbolData binds one instrument's consolidator to its indicator and remembers the last signal
// that was emitted for the instrument. It is created when the instrument enters the universe and
// must be cleaned up when it leaves.
//
type symbolData struct {
	id     string
	symbol market.Symbol

	router       *candle.Router
	prices       market.Prices
	consolidator *candle.Consolidator
	macd         *indicator.MACD
	recent       *evictingqueue.EvictingQueue[*candle.Candle]

	previous    Signal // Snapshot of the last emitted signal. Only meaningful if hasPrevious.
	hasPrevious bool
	cleanedUp   bool
}

func newSymbolData(
	symbol market.Symbol,
	cfg Config,
	router *candle.Router,
	prices market.Prices,
) (*symbolData, error) {
	consolidator, err := candle.NewConsolidator(cfg.ConsolidationPeriod)
	if err != nil {
		return nil, err
	}

	macd, err := indicator.NewMACD(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod, cfg.MovingAverageType)
	if err != nil {
		return nil, err
	}

	o := &symbolData{
		id:           uuid.NewString(),
		symbol:       symbol,
		router:       router,
		prices:       prices,
		consolidator: consolidator,
		macd:         macd,
		recent:       evictingqueue.New[*candle.Candle](cfg.History),
	}

	//
	// Register our candle close handler and only then start receiving data, so that the indicator
	// never misses a candle.
	//
	o.consolidator.Subscribe(o.id, o.candleCloseHandler)
	o.router.Attach(o.symbol, o.consolidator)

	return o, nil
}

//
// candleCloseHandler is the only path through which the indicator is ever updated.
//
func (o *symbolData) candleCloseHandler(symbol market.Symbol, closed *candle.Candle) {
	o.macd.Update(closed.End(), closed.CloseAmt())
	o.recent.Add(closed)

	metrics.BarsTotal.WithLabelValues(symbol.String()).Inc()
}

//
// cleanup unsubscribes from the consolidator and detaches the consolidator from the router. Once
// it returns, no further observation can reach the indicator.
//
func (o *symbolData) cleanup() {
	if o.cleanedUp {
		return
	}

	o.consolidator.Unsubscribe(o.id)
	o.router.Detach(o.symbol, o.consolidator)

	o.cleanedUp = true
}

func (o *symbolData) price() decimal.Decimal {
	return o.prices.Price(o.symbol)
}

func (o *symbolData) signal() decimal.Decimal {
	return o.macd.Signal()
}

func (o *symbolData) state() State {
	return State{
		Symbol:      o.symbol,
		Samples:     o.macd.Samples(),
		Ready:       o.macd.Ready(),
		Signal:      o.macd.Signal(),
		Recent:      o.recent.Values(),
		Previous:    o.previous,
		HasPrevious: o.hasPrevious,
	}
}

//
// State is a read-only snapshot of a tracked instrument.
//
type State struct {
	Symbol      market.Symbol
	Samples     int
	Ready       bool
	Signal      decimal.Decimal
	Recent      []*candle.Candle
	Previous    Signal
	HasPrevious bool
}
