package matching

import (
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// RebuildFromOrders constructs a fresh OrderBook from a snapshot of
// OPEN/PARTIALLY_FILLED rows read from durable storage. For byte-identical
// depth() with the book that produced those rows, rows must be supplied in
// ascending arrival_sequence order so time priority is preserved; the
// persistence layer's query is ordered by arrival_sequence for this
// reason.
func RebuildFromOrders(marketID string, outcome types.Outcome, rows []*types.Order, log *logging.Logger) *OrderBook {
	book := NewOrderBook(marketID, outcome, log)
	for _, o := range rows {
		if o.MarketID != marketID || o.Outcome != outcome {
			continue
		}
		if o.Status != types.OrderStatusOpen && o.Status != types.OrderStatusPartiallyFilled {
			continue
		}
		// Rows for another (market,outcome) were skipped above, so Add can
		// only fail here on a duplicate id, which indicates a corrupt
		// snapshot; that panics rather than being silently skipped.
		if err := book.Add(o); err != nil {
			panic(err)
		}
	}
	return book
}
