package exchange

import (
	"context"
	"time"

	"github.com/lukehollenback/gander/trader/market"
)

//
// Client generically provides an interface to an object that can be used to interact with a
// cryptocurrency exchange's regular REST API in order to retrieve historical market data.
//
// Whenever an endpoint fails – whether due to a system failure, an HTTP error, or an API error –
// the returned error will be non-nil. HTTP failures are reported as *HTTPError and first-class API
// failures as an error that also implements APIError.
//
type Client interface {

	//
	// Auth provides the relevant exchange's API key and secret to the client. Most implementations
	// simply store the information for use in request headers.
	//
	Auth(key string, secret string)

	//
	// Market returns the exchange's own name for the provided instrument (e.g. "BTC-USD" might be
	// "BTCUSD" on one exchange and "XBTUSD" on another).
	//
	Market(symbol market.Symbol) string

	//
	// RetrieveCandles retrieves candles of the specified interval for the specified market within
	// the specified time range. A maximum of the specified limit of candles will be returned (note
	// that many exchanges impose a hard maximum on the limit – usually at around 1000 candles).
	//
	RetrieveCandles(
		ctx context.Context,
		market string,
		interval Interval,
		start time.Time,
		end time.Time,
		limit int,
	) ([]Candle, error)
}
