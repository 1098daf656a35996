package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lukehollenback/gander/exchange"
	"github.com/lukehollenback/gander/trader/market"
)

const (
	klines = `[
  [1598313600000, "11700.10", "11750.00", "11690.00", "11720.55", "12.5", 1598314499999, "0", 42, "0", "0", "0"],
  [1598314500000, "11720.55", "11800.00", "11710.00", "11790.00", "8.25", 1598315399999, "0", 17, "0", "0", "0"]
]`
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(server.Close)

	return server
}

func TestRetrieveCandles(t *testing.T) {
	start := time.Date(2020, 8, 25, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	server := newTestServer(t, http.StatusOK, klines, func(r *http.Request) {
		query := r.URL.Query()

		if r.URL.Path != CandlesPath {
			t.Errorf("Expected a request against %s but was instead against %s.", CandlesPath, r.URL.Path)
		}

		if query.Get("symbol") != "BTCUSD" || query.Get("interval") != "15m" {
			t.Errorf("Expected the BTCUSD 15m market but query was instead %s.", r.URL.RawQuery)
		}

		if query.Get("limit") != "1000" {
			t.Errorf("Expected the limit to be clamped to 1000 but was instead %s.", query.Get("limit"))
		}

		if r.Header.Get(APIKeyHeader) != "key" {
			t.Errorf("Expected the API key header to be set.")
		}
	})

	client := NewClientWithBaseURL(server.URL)
	client.Auth("key", "secret")

	candles, err := client.RetrieveCandles(
		context.Background(), client.Market(market.Symbol("btc-usd")), exchange.FifteenMinute, start, end, 5000,
	)
	if err != nil {
		t.Fatalf("Expected candles to be retrieved but got an error instead. (Error: %s)", err)
	}

	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles but got %d instead.", len(candles))
	}

	first := candles[0]

	if !first.Start.Equal(start) {
		t.Errorf("Expected the first candle to start at %s but was instead %s.", start, first.Start)
	}

	if first.Close.String() != "11720.55" {
		t.Errorf("Expected the first candle to close at 11720.55 but was instead %s.", first.Close)
	}

	if first.Count != 42 {
		t.Errorf("Expected the first candle to hold 42 trades but was instead %d.", first.Count)
	}

	if candles[1].High.String() != "11800" {
		t.Errorf("Expected the second candle's high to be 11800 but was instead %s.", candles[1].High)
	}
}

func TestRetrieveCandlesAPIError(t *testing.T) {
	server := newTestServer(t, http.StatusBadRequest, `{"code": -1121, "msg": "Invalid symbol."}`, nil)
	client := NewClientWithBaseURL(server.URL)

	_, err := client.RetrieveCandles(context.Background(), "NOPE", exchange.OneMinute, time.Now(), time.Now(), 10)

	var apiErr exchange.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected an API error but got %v instead.", err)
	}

	if apiErr.Code() != -1121 || apiErr.Message() != "Invalid symbol." {
		t.Errorf("Expected code -1121 with message \"Invalid symbol.\" but got %d, %q.", apiErr.Code(), apiErr.Message())
	}
}

func TestRetrieveCandlesHTTPError(t *testing.T) {
	server := newTestServer(t, http.StatusBadGateway, "", nil)
	client := NewClientWithBaseURL(server.URL)

	_, err := client.RetrieveCandles(context.Background(), "BTCUSD", exchange.OneMinute, time.Now(), time.Now(), 10)

	var httpErr *exchange.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected an HTTP error but got %v instead.", err)
	}

	if httpErr.StatusCode() != http.StatusBadGateway {
		t.Errorf("Expected a 502 status code but was instead %d.", httpErr.StatusCode())
	}
}

func TestRetrieveCandlesMalformed(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `[[1598313600000, 11700.10]]`, nil)
	client := NewClientWithBaseURL(server.URL)

	if _, err := client.RetrieveCandles(context.Background(), "BTCUSD", exchange.OneMinute, time.Now(), time.Now(), 10); err == nil {
		t.Errorf("Expected a malformed candle row to be rejected.")
	}
}

func TestRetrieveCandlesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClientWithBaseURL("http://127.0.0.1:1")

	if _, err := client.RetrieveCandles(ctx, "BTCUSD", exchange.OneMinute, time.Now(), time.Now(), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected a cancelled context to short circuit the request, but got %v.", err)
	}
}
