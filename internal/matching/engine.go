package matching

import (
	"time"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// MakerUpdate records a maker order touched by a match, for the service
// layer to persist. Order is the same *types.Order pointer the book holds
// (or held, if fully filled and removed); ApplyFill has already updated
// its FilledQuantity and Status in place.
type MakerUpdate struct {
	OrderID      string
	NewRemaining int64
	Order        *types.Order
}

// MatchResult is the output of running a taker order against a book: the
// trades it produced, the maker orders it touched, and however much of the
// taker's quantity is left to rest (zero if fully filled).
type MatchResult struct {
	Trades         []*types.Trade
	MakerUpdates   []MakerUpdate
	TakerRemaining int64
}

// Match crosses taker against book using price-time priority. Crossing
// side is the opposite of taker's side; a maker at the same address as the
// taker is skipped (no self-trade) and left resting. The book is mutated
// in place: filled makers are removed, partially filled makers have their
// quantity reduced. taker itself is never added to the book by Match;
// callers rest or discard the residual themselves.
//
// now is a single wall-clock sample applied to every trade emitted from
// this call, per the "one timestamp per submit" ordering guarantee.
func Match(taker *types.Order, book *OrderBook, now time.Time) *MatchResult {
	if taker.MarketID != book.MarketID || taker.Outcome != book.Outcome {
		panic(types.ErrOrderBookMismatch)
	}

	result := &MatchResult{}
	crossingSide := taker.Side.Opposite()

	book.Iterate(crossingSide, func(maker *types.Order) bool {
		if !crosses(taker, maker) {
			return false
		}
		if maker.UserAddress == taker.UserAddress {
			// Wash-trade policy: skip this maker, leave it resting, keep
			// walking the book for the next eligible maker at this or a
			// worse price.
			return true
		}

		qty := minInt64(taker.Remaining(), maker.Remaining())
		if qty <= 0 {
			panic(types.ErrInvariantViolation)
		}

		trade := newTrade(book.MarketID, book.Outcome, taker, maker, qty, now)
		result.Trades = append(result.Trades, trade)

		taker.ApplyFill(qty)
		maker.ApplyFill(qty)
		result.MakerUpdates = append(result.MakerUpdates, MakerUpdate{
			OrderID:      maker.ID,
			NewRemaining: maker.Remaining(),
			Order:        maker,
		})

		if maker.Remaining() == 0 {
			book.Remove(maker.ID)
		} else {
			book.syncAfterFill(maker.ID, qty)
		}

		return taker.Remaining() > 0
	})

	result.TakerRemaining = taker.Remaining()
	return result
}

// crosses reports whether taker can trade against maker's posted price:
// a BUY taker crosses at or below its limit price, a SELL taker crosses
// at or above it.
func crosses(taker, maker *types.Order) bool {
	if taker.Side == types.OrderSideBuy {
		return maker.Price.LessThanOrEqual(taker.Price)
	}
	return maker.Price.GreaterThanOrEqual(taker.Price)
}

func newTrade(marketID string, outcome types.Outcome, taker, maker *types.Order, qty int64, now time.Time) *types.Trade {
	t := &types.Trade{
		MarketID:     marketID,
		Outcome:      outcome,
		Price:        maker.Price,
		Quantity:     qty,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		MakerAddress: maker.UserAddress,
		TakerAddress: taker.UserAddress,
		Timestamp:    now,
	}
	if taker.Side == types.OrderSideBuy {
		t.BuyerAddress, t.SellerAddress = taker.UserAddress, maker.UserAddress
	} else {
		t.BuyerAddress, t.SellerAddress = maker.UserAddress, taker.UserAddress
	}
	return t
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
