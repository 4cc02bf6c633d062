package matching

import (
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// priceLevel is a FIFO queue of resting orders at one price. Orders are
// appended at the tail on arrival and popped from the head as they fill,
// preserving arrival order for time priority within the level.
type priceLevel struct {
	price    decimal.Decimal
	orders   []*types.Order
	total    int64 // sum of Remaining() across orders, kept incrementally
	index    map[string]int
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{
		price:  price,
		orders: make([]*types.Order, 0, 4),
		index:  make(map[string]int, 4),
	}
}

func (l *priceLevel) append(o *types.Order) {
	l.index[o.ID] = len(l.orders)
	l.orders = append(l.orders, o)
	l.total += o.Remaining()
}

// removeAt removes the order at slice index i, preserving FIFO order of the
// remainder and keeping the id->index hint consistent.
func (l *priceLevel) removeAt(i int) *types.Order {
	o := l.orders[i]
	l.total -= o.Remaining()
	l.orders = append(l.orders[:i], l.orders[i+1:]...)
	delete(l.index, o.ID)
	for id, idx := range l.index {
		if idx > i {
			l.index[id] = idx - 1
		}
	}
	return o
}

func (l *priceLevel) removeByID(id string) *types.Order {
	i, ok := l.index[id]
	if !ok {
		return nil
	}
	return l.removeAt(i)
}

func (l *priceLevel) head() *types.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

func (l *priceLevel) empty() bool {
	return len(l.orders) == 0
}

// adjustQuantity reflects a fill of qty shares against the order's
// remaining balance, keeping the level's aggregate total in sync. It does
// not remove the order even if it reaches zero remaining; callers that want
// that behaviour call removeByID separately.
func (l *priceLevel) adjustQuantity(qty int64) {
	l.total -= qty
}

func (l *priceLevel) orderCount() int {
	return len(l.orders)
}
