package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/metrics"
	"github.com/lukehollenback/gander/trader"
	"github.com/lukehollenback/gander/trader/alpha"
	"github.com/lukehollenback/gander/trader/candle"
	"github.com/lukehollenback/gander/trader/market"
)

const (
	Name = "≪engine-service≫"

	observationBuffer = 1024
)

var (
	logger *log.Logger

	_ trader.Service = (*Service)(nil)
)

func init() {
	//
	// Initialize the logger.
	//
	logger = log.New(log.Writer(), fmt.Sprintf(constants.LogPrefixFmt, Name), log.Ldate|log.Ltime|log.Lmsgprefix)
}

//
// Sink receives every signal that the hosted model emits, in emission order. Sinks are executed on
// the engine's goroutine and should not block.
//
type Sink func(signal alpha.Signal)

type universeChange struct {
	added   []market.Symbol
	removed []market.Symbol
	chErr   chan error
}

//
// Service hosts a single alpha model. Every interaction with the model (observations, universe
// changes, and scheduler ticks) is funneled through one goroutine so that the model never has to
// deal with concurrent access.
//
// If the tick interval is positive, the model is ticked on a wall-clock timer. Otherwise it is
// ticked right after each observation, stamped with the observation's time, which makes replays
// of historical data deterministic.
//
type Service struct {
	mu        *sync.Mutex
	chKill    chan bool
	chStopped chan bool
	chDone    chan struct{}
	running   bool

	model        *alpha.Model
	router       *candle.Router
	book         *market.Book
	tickInterval time.Duration

	chObservations chan market.Observation
	chUniverse     chan universeChange

	sinks []Sink
}

//
// New instantiates an engine service hosting a freshly-constructed model with the provided
// configuration.
//
func New(cfg alpha.Config, tickInterval time.Duration) (*Service, error) {
	if tickInterval < 0 {
		return nil, market.NewConfigError("tick interval", "cannot be negative (got %s)", tickInterval)
	}

	router := candle.NewRouter()
	book := market.NewBook()

	model, err := alpha.NewModel(cfg, router, book)
	if err != nil {
		return nil, err
	}

	return &Service{
		mu:             &sync.Mutex{},
		model:          model,
		router:         router,
		book:           book,
		tickInterval:   tickInterval,
		chObservations: make(chan market.Observation, observationBuffer),
		chUniverse:     make(chan universeChange),
		sinks:          make([]Sink, 0),
	}, nil
}

//
// RegisterSink registers a handler to be executed for every emitted signal. Sinks must be
// registered before the service is started.
//
func (o *Service) RegisterSink(sink Sink) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sinks = append(o.sinks, sink)
}

// Prices exposes the engine's view of current prices.
func (o *Service) Prices() market.Prices {
	return o.book
}

//
// Start implements the trader.Service interface's described method.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, errors.New("the engine service is already running")
	}

	//
	// (Re)initialize our instance variables.
	//
	o.chKill = make(chan bool, 1)
	o.chStopped = make(chan bool, 1)
	o.chDone = make(chan struct{})
	o.running = true

	//
	// Fire off a goroutine as the executor for the service.
	//
	go o.service(o.chKill, o.chStopped, o.chDone, append([]Sink(nil), o.sinks...))

	//
	// Return our "started" channel in case the caller wants to block on it and log some debug info.
	//
	chStarted := make(chan bool, 1)
	chStarted <- true

	if o.tickInterval > 0 {
		logger.Printf("Started. Ticking %s every %s.", o.model.Name(), o.tickInterval)
	} else {
		logger.Printf("Started. Ticking %s on every observation.", o.model.Name())
	}

	return chStarted, nil
}

//
// Stop implements the trader.Service interface's described method. Observations that are still
// queued when Stop is called are dropped.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return nil, errors.New("the engine service is not running")
	}

	logger.Printf("Stopping...")

	//
	// Tell the goroutine that was spun off by the service to shut down.
	//
	o.chKill <- true
	o.running = false

	return o.chStopped, nil
}

//
// Observe queues an observation for delivery to the model. It blocks if the queue is full.
//
func (o *Service) Observe(obs market.Observation) {
	o.chObservations <- obs
}

//
// ChangeUniverse applies a universe change to the model and waits for it to be applied. Every
// observation queued before the call is delivered first. The returned error holds any universe
// consistency violations the model reported.
//
func (o *Service) ChangeUniverse(added []market.Symbol, removed []market.Symbol) error {
	o.mu.Lock()
	running := o.running
	chDone := o.chDone
	o.mu.Unlock()

	if !running {
		return errors.New("cannot change the universe of a stopped engine service")
	}

	change := universeChange{
		added:   added,
		removed: removed,
		chErr:   make(chan error, 1),
	}

	select {
	case o.chUniverse <- change:
		return <-change.chErr
	case <-chDone:
		return errors.New("the engine service stopped before the universe change was applied")
	}
}

//
// Flush waits until every observation queued before the call has been delivered to the model.
//
func (o *Service) Flush() error {
	return o.ChangeUniverse(nil, nil)
}

//
// service executes the top-level logic of the service. It is intended to be spun off into its own
// goroutine when the service is started.
//
func (o *Service) service(chKill <-chan bool, chStopped chan<- bool, chDone chan struct{}, sinks []Sink) {
	var chTick <-chan time.Time

	if o.tickInterval > 0 {
		ticker := time.NewTicker(o.tickInterval)
		defer ticker.Stop()

		chTick = ticker.C
	}

	for {
		select {
		case <-chKill:
			//
			// Release every tracked instrument so that nothing stays attached to the router.
			//
			o.model.Close()
			close(chDone)

			logger.Printf("Stopped.")

			chStopped <- true

			return

		case change := <-o.chUniverse:
			//
			// Observations queued before the change was requested must be applied against the
			// universe they were queued under.
			//
			o.drain(sinks)

			change.chErr <- o.model.OnUniverseChanged(change.added, change.removed)

		case obs := <-o.chObservations:
			o.consume(obs, sinks)

		case now := <-chTick:
			o.tick(now, sinks)
		}
	}
}

func (o *Service) drain(sinks []Sink) {
	for {
		select {
		case obs := <-o.chObservations:
			o.consume(obs, sinks)
		default:
			return
		}
	}
}

func (o *Service) consume(obs market.Observation, sinks []Sink) {
	o.handleObservation(obs)

	if o.tickInterval <= 0 {
		o.tick(obs.Time, sinks)
	}
}

func (o *Service) handleObservation(obs market.Observation) {
	//
	// Keep the side-channel price current first, so that a tick triggered by this very observation
	// sees it.
	//
	o.book.Set(obs)

	if err := o.router.Route(obs); err != nil {
		logger.Printf("%s (Error: %s)", aurora.Yellow("Dropped an observation."), err)

		return
	}

	metrics.ObservationsTotal.WithLabelValues(obs.Symbol.String()).Inc()
}

func (o *Service) tick(now time.Time, sinks []Sink) {
	for _, signal := range o.model.Update(now) {
		for _, sink := range sinks {
			sink(signal)
		}
	}
}
