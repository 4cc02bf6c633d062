package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// Opposite returns the side that crosses against s.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Order is a resting or historical limit order. Prices are decimal fractions
// in (0,1) with at most 8 fractional digits; quantity is a positive integer
// number of shares.
type Order struct {
	ID              string
	MarketID        string
	UserAddress     string
	Side            OrderSide
	Outcome         Outcome
	Price           decimal.Decimal
	Quantity        int64
	FilledQuantity  int64
	Status          OrderStatus
	CreatedAt       time.Time
	ArrivalSequence uint64 // monotonic arrival order at its price level, assigned by the book
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// ApplyFill increments FilledQuantity by qty and recomputes Status.
// qty must be <= Remaining(); callers (the matching engine) guarantee this.
func (o *Order) ApplyFill(qty int64) {
	o.FilledQuantity += qty
	switch {
	case o.FilledQuantity == o.Quantity:
		o.Status = OrderStatusFilled
	case o.FilledQuantity > 0:
		o.Status = OrderStatusPartiallyFilled
	default:
		o.Status = OrderStatusOpen
	}
}
