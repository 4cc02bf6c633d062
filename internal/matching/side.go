package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// bookSide holds one side (bids or asks) of a single (market,outcome)
// order book: a price-sorted slice of levels, searched and inserted via
// binary search (O(log P) in the number of distinct price levels).
//
// Bids are kept descending by price (best bid first); asks ascending
// (best ask first) so that levels[0] is always the top of book.
type bookSide struct {
	isBid  bool
	levels []*priceLevel
}

func newBookSide(isBid bool) *bookSide {
	return &bookSide{isBid: isBid}
}

// ranksAhead reports whether price a has priority over price b on this side.
func (s *bookSide) ranksAhead(a, b decimal.Decimal) bool {
	if s.isBid {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

// searchIndex returns the index at which price either already lives or
// should be inserted, via binary search over the side's ordering.
func (s *bookSide) searchIndex(price decimal.Decimal) int {
	return sort.Search(len(s.levels), func(i int) bool {
		return !s.ranksAhead(s.levels[i].price, price)
	})
}

func (s *bookSide) getLevel(price decimal.Decimal) *priceLevel {
	i := s.searchIndex(price)
	if i < len(s.levels) && s.levels[i].price.Equal(price) {
		return s.levels[i]
	}
	return nil
}

// getOrCreateLevel returns the level at price, inserting it in sorted
// position if it doesn't exist yet.
func (s *bookSide) getOrCreateLevel(price decimal.Decimal) *priceLevel {
	i := s.searchIndex(price)
	if i < len(s.levels) && s.levels[i].price.Equal(price) {
		return s.levels[i]
	}
	level := newPriceLevel(price)
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = level
	return level
}

// deleteLevelAt removes an emptied level from the sorted slice.
func (s *bookSide) deleteLevelAt(i int) {
	copy(s.levels[i:], s.levels[i+1:])
	s.levels[len(s.levels)-1] = nil
	s.levels = s.levels[:len(s.levels)-1]
}

// dropEmptyLevelAt removes the level at i if it has no resting orders.
func (s *bookSide) dropEmptyLevelAt(i int) bool {
	if s.levels[i].empty() {
		s.deleteLevelAt(i)
		return true
	}
	return false
}

func (s *bookSide) best() *priceLevel {
	if len(s.levels) == 0 {
		return nil
	}
	return s.levels[0]
}

// depth returns up to n aggregated levels from the top of book.
func (s *bookSide) depth(n int) []DepthEntry {
	if n > len(s.levels) {
		n = len(s.levels)
	}
	out := make([]DepthEntry, n)
	for i := 0; i < n; i++ {
		l := s.levels[i]
		out[i] = DepthEntry{Price: l.price, TotalQuantity: l.total, OrderCount: l.orderCount()}
	}
	return out
}

// iterate walks a read-only snapshot of resting orders in price-time
// priority order, calling visit once per order. Because the walk is taken
// over a snapshot of each level's order slice at the moment it is reached,
// it tolerates the yielded order being removed from the live book as a
// side effect of visit (the case the matching engine relies on): later
// yields are unaffected. visit returns false to stop early.
func (s *bookSide) iterate(visit func(*types.Order) bool) {
	levels := make([]*priceLevel, len(s.levels))
	copy(levels, s.levels)
	for _, level := range levels {
		orders := make([]*types.Order, len(level.orders))
		copy(orders, level.orders)
		for _, o := range orders {
			if !visit(o) {
				return
			}
		}
	}
}

func (s *bookSide) orderCount() int {
	n := 0
	for _, l := range s.levels {
		n += l.orderCount()
	}
	return n
}

func (s *bookSide) totalVolume() int64 {
	var v int64
	for _, l := range s.levels {
		v += l.total
	}
	return v
}
