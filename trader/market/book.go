package market

import (
	"sync"

	"github.com/shopspring/decimal"
)

//
// Prices provides the current price of an instrument outside of the observation stream. An
// instrument that has never been priced reports zero.
//
type Prices interface {
	Price(symbol Symbol) decimal.Decimal
}

//
// Book is a thread-safe Prices implementation that remembers the latest observed price of each
// instrument.
//
type Book struct {
	mu     *sync.RWMutex
	prices map[Symbol]decimal.Decimal
}

//
// NewBook instantiates an empty price book.
//
func NewBook() *Book {
	return &Book{
		mu:     &sync.RWMutex{},
		prices: make(map[Symbol]decimal.Decimal),
	}
}

//
// Set records the price carried by the provided observation as the instrument's current price.
//
func (o *Book) Set(obs Observation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.prices[obs.Symbol] = obs.Price
}

// Price implements the Prices interface.
func (o *Book) Price(symbol Symbol) decimal.Decimal {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if price, ok := o.prices[symbol]; ok {
		return price
	}

	return decimal.Zero
}

//
// Forget drops the current price of the specified instrument so that it reads as unpriced again.
//
func (o *Book) Forget(symbol Symbol) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.prices, symbol)
}
