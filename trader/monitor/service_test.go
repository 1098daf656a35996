package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lukehollenback/gander/exchange"
	"github.com/lukehollenback/gander/trader/market"
	"github.com/shopspring/decimal"

	coinbasepro "github.com/preichenberger/go-coinbasepro/v2"
)

var (
	base = time.Date(2020, 8, 25, 0, 0, 0, 0, time.UTC)
)

//
// fakeConn replays queued messages and then blocks until it is closed.
//
type fakeConn struct {
	mu       sync.Mutex
	written  []coinbasepro.Message
	messages chan coinbasepro.Message
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn(messages ...coinbasepro.Message) *fakeConn {
	o := &fakeConn{
		messages: make(chan coinbasepro.Message, len(messages)),
		closed:   make(chan struct{}),
	}

	for _, msg := range messages {
		o.messages <- msg
	}

	return o
}

func (o *fakeConn) ReadJSON(v interface{}) error {
	select {
	case msg := <-o.messages:
		*(v.(*coinbasepro.Message)) = msg

		return nil
	case <-o.closed:
		return errors.New("use of closed connection")
	}
}

func (o *fakeConn) WriteJSON(v interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch msg := v.(type) {
	case coinbasepro.Message:
		o.written = append(o.written, msg)
	case *coinbasepro.Message:
		o.written = append(o.written, *msg)
	default:
		return errors.New("unexpected message type")
	}

	return nil
}

func (o *fakeConn) Close() error {
	o.once.Do(func() { close(o.closed) })

	return nil
}

//
// fakeClient serves fixed candles per market, filtered to the requested window.
//
type fakeClient struct {
	mu       sync.Mutex
	candles  map[string][]exchange.Candle
	requests int
	err      error
}

func (o *fakeClient) Auth(key string, secret string) {}

func (o *fakeClient) Market(symbol market.Symbol) string {
	return "x:" + symbol.String()
}

func (o *fakeClient) RetrieveCandles(
	ctx context.Context,
	market string,
	interval exchange.Interval,
	start time.Time,
	end time.Time,
	limit int,
) ([]exchange.Candle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests++

	if o.err != nil {
		return nil, o.err
	}

	ret := make([]exchange.Candle, 0)

	for _, v := range o.candles[market] {
		if !v.Start.Before(start) && !v.Start.After(end) {
			ret = append(ret, v)
		}
	}

	return ret, nil
}

func hourly(offset int, closeAmt int64) exchange.Candle {
	start := base.Add(time.Duration(offset) * time.Hour)

	return exchange.Candle{
		Start: start,
		End:   start.Add(time.Hour - time.Millisecond),
		Close: decimal.NewFromInt(closeAmt),
	}
}

type collector struct {
	mu  sync.Mutex
	obs []market.Observation
}

func (o *collector) handle(obs market.Observation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.obs = append(o.obs, obs)
}

func (o *collector) snapshot() []market.Observation {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret := make([]market.Observation, len(o.obs))
	copy(ret, o.obs)

	return ret
}

func waitDone(t *testing.T, svc *Service) {
	t.Helper()

	select {
	case <-svc.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected the monitor service to finish but it did not.")
	}
}

func TestNewMisconfiguration(t *testing.T) {
	var cfgErr *market.ConfigError

	if _, err := New(Config{}); !errors.As(err, &cfgErr) {
		t.Errorf("Expected a monitor without symbols to be rejected but got %v.", err)
	}

	if _, err := New(Config{Symbols: []market.Symbol{"BTC-USD"}, Backtest: true}); !errors.As(err, &cfgErr) {
		t.Errorf("Expected a backtest without a client to be rejected but got %v.", err)
	}

	_, err := New(Config{
		Symbols:       []market.Symbol{"BTC-USD"},
		Backtest:      true,
		Client:        &fakeClient{},
		BacktestStart: base,
		BacktestEnd:   base,
	})
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected an empty backtest window to be rejected but got %v.", err)
	}
}

func TestObtainBacktestCursors(t *testing.T) {
	svc := &Service{cfg: Config{BacktestStart: base, BacktestEnd: base.Add(30 * time.Hour)}}

	s, e, c := svc.obtainBacktestCursors(nil)
	if !s.Equal(base) || !e.Equal(base.Add(12*time.Hour-time.Nanosecond)) || !c {
		t.Errorf("Unexpected first window %s through %s (continue = %t).", s, e, c)
	}

	s, e, c = svc.obtainBacktestCursors(&s)
	if !s.Equal(base.Add(12*time.Hour)) || !c {
		t.Errorf("Unexpected second window %s through %s (continue = %t).", s, e, c)
	}

	s, e, c = svc.obtainBacktestCursors(&s)
	if !s.Equal(base.Add(24*time.Hour)) || !e.Equal(base.Add(30*time.Hour)) || c {
		t.Errorf("Expected the third window to be clamped to the backtest end, but was %s through %s (continue = %t).", s, e, c)
	}
}

func TestBacktestProducesChronologicalObservations(t *testing.T) {
	client := &fakeClient{
		candles: map[string][]exchange.Candle{
			"x:BTC-USD": {hourly(0, 100), hourly(1, 101), hourly(13, 113)},
			"x:ETH-USD": {hourly(0, 10), hourly(12, 22)},
		},
	}

	svc, err := New(Config{
		Symbols:          []market.Symbol{"BTC-USD", "ETH-USD"},
		Backtest:         true,
		BacktestStart:    base,
		BacktestEnd:      base.Add(24 * time.Hour),
		BacktestInterval: exchange.OneHour,
		Client:           client,
	})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	c := &collector{}
	svc.RegisterHandler(c.handle)

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	waitDone(t, svc)

	if err := svc.Err(); err != nil {
		t.Errorf("Expected the backtest to complete cleanly but it failed. (Error: %s)", err)
	}

	got := c.snapshot()
	if len(got) != 5 {
		t.Fatalf("Expected 5 observations but got %d instead.", len(got))
	}

	for i := 1; i < len(got); i++ {
		if got[i].Time.Before(got[i-1].Time) {
			t.Errorf("Expected observations in chronological order but %s came after %s.", got[i], got[i-1])
		}
	}

	if got[0].Symbol != "BTC-USD" || !got[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected the first observation to be the first BTC-USD close but was %s.", got[0])
	}

	if !got[0].Time.Equal(hourly(0, 0).End) {
		t.Errorf("Expected observations to be stamped at the candle end but was %s.", got[0].Time)
	}

	if client.requests != 6 {
		t.Errorf("Expected 3 windows of 2 symbols (6 requests) but there were %d.", client.requests)
	}

	stopped, err := svc.Stop()
	if err != nil {
		t.Fatalf("Failed to stop the monitor service. (Error: %s)", err)
	}

	<-stopped
}

func TestBacktestFailure(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = time.Second })

	client := &fakeClient{err: exchange.NewHTTPError(500)}

	svc, err := New(Config{
		Symbols:       []market.Symbol{"BTC-USD"},
		Backtest:      true,
		BacktestStart: base,
		BacktestEnd:   base.Add(time.Hour),
		Client:        client,
	})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	waitDone(t, svc)

	var httpErr *exchange.HTTPError
	if !errors.As(svc.Err(), &httpErr) {
		t.Errorf("Expected the HTTP error to be reported but got %v.", svc.Err())
	}

	if client.requests != maxAttempts {
		t.Errorf("Expected the transient failure to be attempted %d times but it was attempted %d times.", maxAttempts, client.requests)
	}
}

func TestBacktestDoesNotRetryPermanentFailures(t *testing.T) {
	client := &fakeClient{err: exchange.NewHTTPError(400)}

	svc, err := New(Config{
		Symbols:       []market.Symbol{"BTC-USD"},
		Backtest:      true,
		BacktestStart: base,
		BacktestEnd:   base.Add(time.Hour),
		Client:        client,
	})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	waitDone(t, svc)

	if client.requests != 1 {
		t.Errorf("Expected a permanent failure to be attempted once but it was attempted %d times.", client.requests)
	}
}

func TestLiveTrades(t *testing.T) {
	at := base.Add(3 * time.Minute)

	conn := newFakeConn(
		coinbasepro.Message{Type: "match", ProductID: "BTC-USD", Price: "1"},
		coinbasepro.Message{Type: "subscriptions"},
		coinbasepro.Message{Type: "heartbeat", ProductID: "BTC-USD"},
		coinbasepro.Message{Type: "last_match", ProductID: "BTC-USD", Price: "11700.5", Time: coinbasepro.Time(at)},
		coinbasepro.Message{Type: "match", ProductID: "BTC-USD", Price: "not-a-price", Time: coinbasepro.Time(at)},
		coinbasepro.Message{Type: "match", ProductID: "ETH-USD", Price: "390.25", Time: coinbasepro.Time(at.Add(time.Second))},
	)

	svc, err := New(Config{
		Symbols: []market.Symbol{"BTC-USD", "ETH-USD"},
		Dial: func(url string) (Conn, error) {
			if url != FeedURL {
				t.Errorf("Expected to dial %s but dialed %s instead.", FeedURL, url)
			}

			return conn, nil
		},
	})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	c := &collector{}
	svc.RegisterHandler(c.handle)

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(c.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	stopped, err := svc.Stop()
	if err != nil {
		t.Fatalf("Failed to stop the monitor service. (Error: %s)", err)
	}

	<-stopped

	got := c.snapshot()
	if len(got) != 2 {
		t.Fatalf("Expected 2 observations but got %d instead.", len(got))
	}

	if got[0].Symbol != "BTC-USD" || got[0].Price.String() != "11700.5" || !got[0].Time.Equal(at) {
		t.Errorf("Expected the last match to become the first observation but was %s.", got[0])
	}

	if got[1].Symbol != "ETH-USD" || got[1].Price.String() != "390.25" {
		t.Errorf("Expected the ETH-USD match to become the second observation but was %s.", got[1])
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if len(conn.written) != 1 || conn.written[0].Type != "subscribe" || len(conn.written[0].Channels) != 2 {
		t.Fatalf("Expected exactly one subscribe message with two channels but got %+v.", conn.written)
	}

	if products := conn.written[0].Channels[1].ProductIds; len(products) != 2 || products[1] != "ETH-USD" {
		t.Errorf("Expected the matches channel to carry both products but got %v.", products)
	}

	if svc.Err() != nil {
		t.Errorf("Expected a clean stop but got %s.", svc.Err())
	}
}

func TestLiveFeedError(t *testing.T) {
	conn := newFakeConn(coinbasepro.Message{Type: "error", Message: "Failed to subscribe"})

	svc, err := New(Config{
		Symbols: []market.Symbol{"BTC-USD"},
		Dial: func(url string) (Conn, error) {
			return conn, nil
		},
	})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	if _, err := svc.Start(); err != nil {
		t.Fatalf("Failed to start the monitor service. (Error: %s)", err)
	}

	waitDone(t, svc)

	if svc.Err() == nil {
		t.Errorf("Expected the feed error to end the run.")
	}
}

func TestStopWithoutStart(t *testing.T) {
	svc, err := New(Config{Symbols: []market.Symbol{"BTC-USD"}})
	if err != nil {
		t.Fatalf("Failed to instantiate the monitor service. (Error: %s)", err)
	}

	if _, err := svc.Stop(); err == nil {
		t.Errorf("Expected stopping a monitor that was never started to fail.")
	}
}
