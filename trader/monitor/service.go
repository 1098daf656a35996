package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/exchange"
	"github.com/lukehollenback/gander/trader"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"

	coinbasepro "github.com/preichenberger/go-coinbasepro/v2"
)

const (
	Name = "≪monitor-service≫"

	pageLimit      = 1000
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
)

var (
	logger *log.Logger

	retryDelay = time.Second

	_ trader.Service = (*Service)(nil)
)

func init() {
	//
	// Initialize the logger.
	//
	logger = log.New(log.Writer(), fmt.Sprintf(constants.LogPrefixFmt, Name), log.Ldate|log.Ltime|log.Lmsgprefix)
}

//
// Handler receives every observation that the monitor service produces, in production order.
//
type Handler func(obs market.Observation)

//
// Config describes where a monitor service sources its observations from.
//
type Config struct {

	//
	// Symbols are the products to watch (e.g. "BTC-USD").
	//
	Symbols []market.Symbol

	//
	// FeedURL and Dial are used in live mode. They default to the Coinbase Pro websocket feed and
	// DialWebsocket respectively.
	//
	FeedURL string
	Dial    Dialer

	//
	// Backtest switches the service to replaying historical candles of the specified interval from
	// the provided client over the [BacktestStart, BacktestEnd] window.
	//
	Backtest         bool
	BacktestStart    time.Time
	BacktestEnd      time.Time
	BacktestInterval exchange.Interval
	Client           exchange.Client
}

//
// Service represents an observation monitor service instance.
//
type Service struct {
	mu        *sync.Mutex
	chKill    chan bool
	chStopped chan bool
	chDone    chan struct{}
	running   bool

	cfg   Config
	state state
	err   error

	handlers []Handler
}

//
// New instantiates a monitor service with the provided configuration.
//
func New(cfg Config) (*Service, error) {
	if len(cfg.Symbols) == 0 {
		return nil, market.NewConfigError("symbols", "at least one symbol must be watched")
	}

	if cfg.Backtest {
		if cfg.Client == nil {
			return nil, market.NewConfigError("client", "a backtest requires an exchange client")
		}

		if !cfg.BacktestStart.Before(cfg.BacktestEnd) {
			return nil, market.NewConfigError(
				"backtest window", "start (%s) must be before end (%s)", cfg.BacktestStart, cfg.BacktestEnd,
			)
		}
	}

	if cfg.FeedURL == "" {
		cfg.FeedURL = FeedURL
	}

	if cfg.Dial == nil {
		cfg.Dial = DialWebsocket
	}

	return &Service{
		mu:       &sync.Mutex{},
		cfg:      cfg,
		state:    disconnected,
		handlers: make([]Handler, 0),
	}, nil
}

//
// RegisterHandler registers a handler to be executed whenever a new observation is produced.
//
func (o *Service) RegisterHandler(handler Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.handlers = append(o.handlers, handler)
}

//
// Done returns a channel that is closed once the service stops producing observations, whether
// because it was stopped, the backtest window was exhausted, or the feed failed. It is nil before
// the service has been started.
//
func (o *Service) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.chDone
}

//
// Err returns the error that ended the most recent run, if any.
//
func (o *Service) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.err
}

//
// Start implements the trader.Service interface's described method.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, errors.New("the monitor service is already running")
	}

	//
	// (Re)initialize our instance variables.
	//
	o.chKill = make(chan bool, 1)
	o.chStopped = make(chan bool, 1)
	o.chDone = make(chan struct{})
	o.running = true
	o.err = nil

	//
	// Fire off a goroutine as the executor for the service.
	//
	go o.service(o.chKill, o.chStopped, o.chDone)

	//
	// Return our "started" channel in case the caller wants to block on it and log some debug info.
	//
	chStarted := make(chan bool, 1)
	chStarted <- true

	logger.Printf("Started.")

	return chStarted, nil
}

//
// Stop implements the trader.Service interface's described method.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return nil, errors.New("the monitor service is not running")
	}

	//
	// Log some debug info.
	//
	logger.Printf("Stopping...")

	//
	// Tell the goroutines that were spun off by the service to shutdown.
	//
	o.running = false
	o.chKill <- true

	//
	// Return the "stopped" channel that the caller can block on if they need to know that the
	// service has completely shutdown.
	//
	return o.chStopped, nil
}

//
// service executes the appropriate monitor until it completes, fails, or is told to stop.
//
func (o *Service) service(chKill <-chan bool, chStopped chan<- bool, chDone chan<- struct{}) {
	var err error

	if o.cfg.Backtest {
		err = o.backtestTrades(chKill)
	} else {
		err = o.monitorLiveTrades(chKill)
	}

	if err != nil {
		logger.Printf("%s (Error: %s)", aurora.Red("Stopped producing observations."), err)
	}

	o.mu.Lock()
	o.err = err
	o.state = disconnected
	o.mu.Unlock()

	close(chDone)

	//
	// Send the signal that we have shut down.
	//
	chStopped <- true
}

func (o *Service) setState(s state) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = s
}

func (o *Service) currentState() state {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

//
// emit fires off every registered handler with the provided observation.
//
func (o *Service) emit(obs market.Observation) {
	o.mu.Lock()
	handlers := make([]Handler, len(o.handlers))
	copy(handlers, o.handlers)
	o.mu.Unlock()

	// NOTE ~> Handlers are executed outside of the lock so that they may register further handlers.

	for _, handler := range handlers {
		handler(obs)
	}
}

//
// backtestTrades loads historical candles from the relevant exchange API and produces the close of
// each one as an observation stamped at the candle's end time. Candles of every symbol within a
// cursor window are produced in chronological order.
//
func (o *Service) backtestTrades(chKill <-chan bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-chKill:
			cancel()
		case <-ctx.Done():
		}
	}()

	o.setState(replaying)

	type pending struct {
		symbol market.Symbol
		candle exchange.Candle
	}

	for s, e, c := o.obtainBacktestCursors(nil); ; s, e, c = o.obtainBacktestCursors(&s) {
		//
		// Log some debug info.
		//
		logger.Printf("Loading historical candles from %s through %s.", s, e)

		//
		// Load historical candles of every symbol.
		//
		window := make([]pending, 0)

		for _, symbol := range o.cfg.Symbols {
			candles, err := o.retrieveCandles(ctx, symbol, s, e)

			if ctx.Err() != nil {
				return nil
			}

			if err != nil {
				return fmt.Errorf("failed to load historical %s candles of %s: %w", o.cfg.BacktestInterval, symbol, err)
			}

			for _, v := range candles {
				window = append(window, pending{symbol: symbol, candle: v})
			}
		}

		logger.Printf("Loaded %d historical candles.", len(window))

		//
		// Produce the candles in chronological order.
		//
		sort.SliceStable(window, func(i, j int) bool {
			return window[i].candle.End.Before(window[j].candle.End)
		})

		for _, v := range window {
			if ctx.Err() != nil {
				return nil
			}

			o.emit(market.Observation{
				Symbol:  v.symbol,
				Time:    v.candle.End,
				EndTime: v.candle.End,
				Price:   v.candle.Close,
			})
		}

		if !c {
			break
		}
	}

	//
	// Log some debug info.
	//
	logger.Printf("Backtesting has completed.")

	return nil
}

//
// retrieveCandles retrieves one page of historical candles for the provided symbol. Transient HTTP
// failures are retried a few times with a linearly growing delay.
//
func (o *Service) retrieveCandles(ctx context.Context, symbol market.Symbol, start, end time.Time) ([]exchange.Candle, error) {
	for attempt := 1; ; attempt++ {
		reqCtx, reqCancel := context.WithTimeout(ctx, requestTimeout)
		candles, err := o.cfg.Client.RetrieveCandles(
			reqCtx, o.cfg.Client.Market(symbol), o.cfg.BacktestInterval, start, end, pageLimit,
		)
		reqCancel()

		var httpErr *exchange.HTTPError
		if err == nil || attempt >= maxAttempts || !errors.As(err, &httpErr) || !httpErr.Retryable() {
			return candles, err
		}

		logger.Printf(
			"%s (Symbol: %s, Attempt: %d/%d) (Error: %s)",
			aurora.Yellow("Retrying historical candle request."), symbol, attempt, maxAttempts, err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryDelay):
		}
	}
}

//
// obtainBacktestCursors initializes or slides the start and end timestamp cursors being used to
// retrieve historical candles. Slides the window by twelve hours each call. The returned sentinel
// is false once the window reaches the end of the backtest period.
//
func (o *Service) obtainBacktestCursors(prevStart *time.Time) (time.Time, time.Time, bool) {
	var start time.Time
	var cont = true

	//
	// Prime or update the head cursor.
	//
	if prevStart == nil {
		start = o.cfg.BacktestStart
	} else {
		start = prevStart.Add(constants.TwelveHours)
	}

	//
	// Update the tail cursor and see if we are at the end of our backtest period.
	//
	end := start.Add(constants.TwelveHours).Add(-1 * time.Nanosecond)

	if !end.Before(o.cfg.BacktestEnd) {
		end = o.cfg.BacktestEnd
		cont = false
	}

	return start, end, cont
}

//
// monitorLiveTrades monitors trades as received from the Coinbase Pro websocket feed in realtime
// and produces each one as an observation.
//
func (o *Service) monitorLiveTrades(chKill <-chan bool) error {
	//
	// Connect to the websocket feed so that we can monitor network events that occur.
	//
	o.setState(connecting)

	conn, err := o.cfg.Dial(o.cfg.FeedURL)
	if err != nil {
		return fmt.Errorf("could not connect to the websocket feed: %w", err)
	}

	o.setState(connected)

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Printf("Failed to close the websocket connection. (Error: %s)", err)
		}
	}()

	//
	// Subscribe to heartbeat messages and trade messages over the websocket feed.
	//
	products := make([]string, len(o.cfg.Symbols))
	for i, symbol := range o.cfg.Symbols {
		products[i] = symbol.String()
	}

	subscribe := coinbasepro.Message{
		Type: "subscribe",
		Channels: []coinbasepro.MessageChannel{
			{Name: "heartbeat", ProductIds: products},
			{Name: "matches", ProductIds: products},
		},
	}

	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("could not subscribe to the websocket feed: %w", err)
	}

	//
	// Begin monitoring and processing messages from the websocket feed.
	//
	chQuit := make(chan struct{})
	defer close(chQuit)

	chMsg := make(chan *coinbasepro.Message)
	chErr := make(chan error, 1)

	go readMessages(conn, chMsg, chErr, chQuit)

	for {
		select {
		case <-chKill:
			return nil

		case msg := <-chMsg:
			if err := o.handleMessage(msg); err != nil {
				return err
			}

		case err := <-chErr:
			return fmt.Errorf("could not read the next JSON message from the websocket feed: %w", err)
		}
	}
}

//
// readMessages reads messages off of the provided connection until reading fails or the monitor
// quits.
//
func readMessages(conn Conn, chMsg chan<- *coinbasepro.Message, chErr chan<- error, chQuit <-chan struct{}) {
	for {
		msg := &coinbasepro.Message{}

		if err := conn.ReadJSON(msg); err != nil {
			chErr <- err

			return
		}

		select {
		case chMsg <- msg:
		case <-chQuit:
			return
		}
	}
}

func (o *Service) handleMessage(msg *coinbasepro.Message) error {
	if msg.Type == "error" {
		return fmt.Errorf("the websocket feed reported an error (%s)", msg.Message)
	}

	switch o.currentState() {
	case connected:
		if msg.Type == "subscriptions" {
			//
			// Move the monitor service into a "subscribed" state – indicating that it has
			// successfully received acknowledgement from the websocket API that it has subscribed to
			// the necessary message channels.
			//
			o.setState(subscribed)

			logger.Printf("Successfully subscribed to relevant websocket channels (Products: %v).", o.cfg.Symbols)
		}

	case subscribed, ready:
		if msg.Type != "last_match" && msg.Type != "match" {
			return nil
		}

		//
		// Extract the trade time and price from the message.
		//
		amt, err := decimal.NewFromString(msg.Price)
		if err != nil {
			logger.Printf("Dropped a trade with an unparseable price. (Product: %s) (Error: %s)", msg.ProductID, err)

			return nil
		}

		o.setState(ready)
		o.emit(market.NewObservation(market.Symbol(msg.ProductID), msg.Time.Time(), amt))
	}

	return nil
}
