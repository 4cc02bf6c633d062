package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable fill between a resting maker order and an
// incoming taker order. Price is always the maker's posted price.
type Trade struct {
	ID            string
	MarketID      string
	Outcome       Outcome
	Price         decimal.Decimal
	Quantity      int64
	MakerOrderID  string
	TakerOrderID  string
	MakerAddress  string
	TakerAddress  string
	BuyerAddress  string
	SellerAddress string
	Timestamp     time.Time
}

// Notional returns price * quantity rounded half-to-even to 8 fractional
// digits, the scale of locked collateral.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity)).RoundBank(8)
}
