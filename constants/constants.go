package constants

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LogPrefixFmt = "%-19s "

	//
	// TimestampLayout is the layout of every human-entered timestamp (flags and configuration
	// files). Timestamps are interpreted as UTC.
	//
	TimestampLayout = "2006-01-02 15:04"

	MetricsNamespace = "gander"

	TwelveHours = 12 * time.Hour
)

var (
	negOne = decimal.NewFromInt(-1)
	one    = decimal.NewFromInt(1)
	two    = decimal.NewFromInt(2)
)

func NegOne() decimal.Decimal {
	return negOne
}

func One() decimal.Decimal {
	return one
}

func Two() decimal.Decimal {
	return two
}
