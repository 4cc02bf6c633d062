// Package matching implements the per-(market,outcome) order book and the
// price-time-priority matching algorithm that trades against it.
package matching

import (
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// DepthEntry is one aggregated level returned by OrderBook.Depth.
type DepthEntry struct {
	Price         decimal.Decimal
	TotalQuantity int64
	OrderCount    int
}

// orderLocation lets Remove/UpdateQuantity find an order's side and price
// in O(1) without scanning every level.
type orderLocation struct {
	side  types.OrderSide
	price decimal.Decimal
}

// OrderBook is the in-memory price-time-priority structure for one
// (market_id, outcome). It is the exclusive owner of its resting Order
// records; everything else borrows them by id. Callers are responsible
// for serializing access (the matching lock, in the service layer).
type OrderBook struct {
	MarketID string
	Outcome  types.Outcome

	bids *bookSide
	asks *bookSide

	locations map[string]orderLocation
	byUser    map[string]map[string]struct{} // user -> set of resident order ids

	log            *logging.Logger
	arrivalCounter uint64
}

func NewOrderBook(marketID string, outcome types.Outcome, log *logging.Logger) *OrderBook {
	return &OrderBook{
		MarketID:  marketID,
		Outcome:   outcome,
		bids:      newBookSide(true),
		asks:      newBookSide(false),
		locations: make(map[string]orderLocation),
		byUser:    make(map[string]map[string]struct{}),
		log:       log,
	}
}

// NextArrivalSequence reserves and returns the next arrival sequence
// number for this book without adding an order, for callers that need a
// durable sequence number assigned before the order is inserted anywhere.
func (b *OrderBook) NextArrivalSequence() uint64 {
	b.arrivalCounter++
	return b.arrivalCounter
}

func (b *OrderBook) sideFor(side types.OrderSide) *bookSide {
	if side == types.OrderSideBuy {
		return b.bids
	}
	return b.asks
}

// Add inserts a new resting order into the book. It fails with
// ErrDuplicateOrder if the id is already resident, or ErrOrderBookMismatch
// if the order's (market,outcome) doesn't match this book.
func (b *OrderBook) Add(o *types.Order) error {
	if o.MarketID != b.MarketID || o.Outcome != b.Outcome {
		return types.ErrOrderBookMismatch
	}
	if _, exists := b.locations[o.ID]; exists {
		return types.ErrDuplicateOrder
	}

	if o.ArrivalSequence == 0 {
		o.ArrivalSequence = b.NextArrivalSequence()
	} else if o.ArrivalSequence > b.arrivalCounter {
		b.arrivalCounter = o.ArrivalSequence
	}

	level := b.sideFor(o.Side).getOrCreateLevel(o.Price)
	level.append(o)
	b.locations[o.ID] = orderLocation{side: o.Side, price: o.Price}
	b.indexUser(o.UserAddress, o.ID)
	return nil
}

// Remove deletes an order from the book by id and returns it, or nil if it
// wasn't resident.
func (b *OrderBook) Remove(orderID string) *types.Order {
	loc, ok := b.locations[orderID]
	if !ok {
		return nil
	}
	side := b.sideFor(loc.side)
	level := side.getLevel(loc.price)
	if level == nil {
		return nil
	}
	o := level.removeByID(orderID)
	if o == nil {
		return nil
	}
	delete(b.locations, orderID)
	b.unindexUser(o.UserAddress, orderID)
	b.dropLevelIfEmpty(side, loc.price)
	return o
}

// UpdateQuantity sets an order's remaining quantity. newQty == 0 removes
// the order; negative input is rejected.
func (b *OrderBook) UpdateQuantity(orderID string, newQty int64) error {
	if newQty < 0 {
		return types.ErrNegativeQuantity
	}
	if newQty == 0 {
		b.Remove(orderID)
		return nil
	}
	loc, ok := b.locations[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	level := b.sideFor(loc.side).getLevel(loc.price)
	if level == nil {
		return types.ErrOrderNotFound
	}
	i, ok := level.index[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	o := level.orders[i]
	delta := newQty - o.Remaining()
	o.Quantity += delta
	level.total += delta
	return nil
}

// syncAfterFill reconciles a level's aggregate total after the matching
// engine has applied a fill directly to a resident order's Remaining()
// (via types.Order.ApplyFill, in place, since the engine holds the same
// *types.Order pointer the book stores). It must be called once per fill
// so depth() stays accurate; it does not touch the order itself.
func (b *OrderBook) syncAfterFill(orderID string, filledQty int64) {
	loc, ok := b.locations[orderID]
	if !ok {
		return
	}
	if level := b.sideFor(loc.side).getLevel(loc.price); level != nil {
		level.adjustQuantity(filledQty)
	}
}

func (b *OrderBook) dropLevelIfEmpty(side *bookSide, price decimal.Decimal) {
	i := side.searchIndex(price)
	if i < len(side.levels) && side.levels[i].price.Equal(price) {
		side.dropEmptyLevelAt(i)
	}
}

// BestBid returns the oldest order at the best (highest) bid price, or nil.
func (b *OrderBook) BestBid() *types.Order {
	l := b.bids.best()
	if l == nil {
		return nil
	}
	return l.head()
}

// BestAsk returns the oldest order at the best (lowest) ask price, or nil.
func (b *OrderBook) BestAsk() *types.Order {
	l := b.asks.best()
	if l == nil {
		return nil
	}
	return l.head()
}

// Depth returns up to n aggregated levels per side.
func (b *OrderBook) Depth(n int) (bids, asks []DepthEntry) {
	return b.bids.depth(n), b.asks.depth(n)
}

// Iterate walks resting orders on side in price-time priority order. See
// bookSide.iterate for the removal-tolerance contract.
func (b *OrderBook) Iterate(side types.OrderSide, visit func(*types.Order) bool) {
	b.sideFor(side).iterate(visit)
}

// OrderCount returns the number of resting orders on side.
func (b *OrderBook) OrderCount(side types.OrderSide) int {
	return b.sideFor(side).orderCount()
}

// TotalVolume returns the sum of remaining quantity resting on side.
func (b *OrderBook) TotalVolume(side types.OrderSide) int64 {
	return b.sideFor(side).totalVolume()
}

// OrdersByUser returns the ids of orders the user has resident in this
// book, for admission bookkeeping and tests.
func (b *OrderBook) OrdersByUser(user string) []string {
	set := b.byUser[user]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (b *OrderBook) indexUser(user, orderID string) {
	set, ok := b.byUser[user]
	if !ok {
		set = make(map[string]struct{})
		b.byUser[user] = set
	}
	set[orderID] = struct{}{}
}

func (b *OrderBook) unindexUser(user, orderID string) {
	if set, ok := b.byUser[user]; ok {
		delete(set, orderID)
		if len(set) == 0 {
			delete(b.byUser, user)
		}
	}
}
