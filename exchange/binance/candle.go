package binance

import (
	"fmt"
	"time"

	"github.com/lukehollenback/gander/exchange"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// NOTE ~> According to https://tinyurl.com/y4eywj46, the structure of the arrays returned from
//  the Binance.US candlestick endpoint are as follows:
//
//  [0]  1499040000000,      // Open time
//  [1]  "0.01634790",       // Open
//  [2]  "0.80000000",       // High
//  [3]  "0.01575800",       // Low
//  [4]  "0.01577100",       // Close
//  [5]  "148976.11427815",  // Volume
//  [6]  1499644799999,      // Close time
//  [7]  "2434.19055334",    // Quote asset volume
//  [8]  308,                // Number of trades
//  [9]  "1756.87402397",    // Taker buy base asset volume
//  [10] "28.46694368",      // Taker buy quote asset volume
//  [11] "17928899.62484339" // Ignore.

const (
	StartTimeIndex = 0
	OpenIndex      = 1
	HighIndex      = 2
	LowIndex       = 3
	CloseIndex     = 4
	VolumeIndex    = 5
	EndTimeIndex   = 6
	CountIndex     = 8

	rowLength = 9
)

//
// parseCandles converts the raw JSON array returned from the candlestick endpoint into candles.
//
func parseCandles(body []byte) ([]exchange.Candle, error) {
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("unexpected candlestick response format (%.64s)", body)
	}

	rows := result.Array()
	candles := make([]exchange.Candle, 0, len(rows))

	for i, row := range rows {
		candle, err := parseCandle(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse candle %d: %w", i, err)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func parseCandle(row gjson.Result) (exchange.Candle, error) {
	var o exchange.Candle

	//
	// Make sure the row actually looks like a candlestick.
	//
	fields := row.Array()
	if !row.IsArray() || len(fields) < rowLength {
		return o, fmt.Errorf("expected an array of at least %d fields (%s)", rowLength, row.Raw)
	}

	//
	// Parse the start and end time values of the candle.
	//
	if fields[StartTimeIndex].Type != gjson.Number {
		return o, fmt.Errorf("failed to assert type of start (open) time (%s)", fields[StartTimeIndex].Raw)
	}

	o.Start = time.UnixMilli(fields[StartTimeIndex].Int()).UTC()

	if fields[EndTimeIndex].Type != gjson.Number {
		return o, fmt.Errorf("failed to assert type of end (close) time (%s)", fields[EndTimeIndex].Raw)
	}

	o.End = time.UnixMilli(fields[EndTimeIndex].Int()).UTC()

	//
	// Parse the open, high, low, close, and volume values of the candle.
	//
	amounts := []struct {
		name  string
		index int
		dest  *decimal.Decimal
	}{
		{"open", OpenIndex, &o.Open},
		{"high", HighIndex, &o.High},
		{"low", LowIndex, &o.Low},
		{"close", CloseIndex, &o.Close},
		{"volume", VolumeIndex, &o.Volume},
	}

	for _, amt := range amounts {
		field := fields[amt.index]
		if field.Type != gjson.String {
			return o, fmt.Errorf("failed to assert type of %s (%s)", amt.name, field.Raw)
		}

		value, err := decimal.NewFromString(field.String())
		if err != nil {
			return o, fmt.Errorf("failed to parse %s: %w", amt.name, err)
		}

		*amt.dest = value
	}

	//
	// Parse the count value of the candle.
	//
	if fields[CountIndex].Type != gjson.Number {
		return o, fmt.Errorf("failed to assert type of count (%s)", fields[CountIndex].Raw)
	}

	o.Count = int(fields[CountIndex].Int())

	return o, nil
}
