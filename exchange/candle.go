package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

//
// Candle represents a candlestick (a.k.a. kline) provided in a response from a call to an
// exchange's API endpoint.
//
type Candle struct {

	//
	// Start is the opening instant of the candle.
	//
	Start time.Time

	//
	// End is the closing instant of the candle. As an example, a one minute candle might start at
	// 2020/8/25 00:00:00.000 and end at 2020/8/25 00:00:59.999.
	//
	End time.Time

	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal

	//
	// Count is the number of trades that went into the candle.
	//
	Count int
}
