package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

const testMarket = "mkt-1"

func testLogger() *logging.Logger {
	return logging.NewLoggerFromEnv("dev", "error")
}

func newOrder(id, user string, side types.OrderSide, price string, qty int64) *types.Order {
	return &types.Order{
		ID:          id,
		MarketID:    testMarket,
		UserAddress: user,
		Side:        side,
		Outcome:     types.OutcomeYes,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
		Status:      types.OrderStatusOpen,
		CreatedAt:   time.Now(),
	}
}

func TestOrderBook_AddRejectsDuplicateAndMismatch(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())

	o := newOrder("o1", "u1", types.OrderSideBuy, "0.5", 10)
	require.NoError(t, book.Add(o))
	assert.ErrorIs(t, book.Add(o), types.ErrDuplicateOrder)

	mismatched := newOrder("o2", "u1", types.OrderSideBuy, "0.5", 10)
	mismatched.MarketID = "other-market"
	assert.ErrorIs(t, book.Add(mismatched), types.ErrOrderBookMismatch)
}

func TestOrderBook_AddThenRemoveIsObservationallyIdentical(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	bidsBefore, asksBefore := book.Depth(10)

	o := newOrder("o1", "u1", types.OrderSideBuy, "0.42", 5)
	require.NoError(t, book.Add(o))
	removed := book.Remove(o.ID)
	require.NotNil(t, removed)

	bidsAfter, asksAfter := book.Depth(10)
	assert.Equal(t, bidsBefore, bidsAfter)
	assert.Equal(t, asksBefore, asksAfter)
	assert.Nil(t, book.BestBid())
	assert.Nil(t, book.BestAsk())
}

func TestOrderBook_BestBidAskTrackTopOfBook(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())

	require.NoError(t, book.Add(newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)))
	require.NoError(t, book.Add(newOrder("b2", "u2", types.OrderSideBuy, "0.55", 10)))
	require.NoError(t, book.Add(newOrder("a1", "u3", types.OrderSideSell, "0.70", 10)))
	require.NoError(t, book.Add(newOrder("a2", "u4", types.OrderSideSell, "0.60", 10)))

	require.NotNil(t, book.BestBid())
	assert.True(t, book.BestBid().Price.Equal(decimal.RequireFromString("0.55")))
	require.NotNil(t, book.BestAsk())
	assert.True(t, book.BestAsk().Price.Equal(decimal.RequireFromString("0.60")))
}

func TestOrderBook_DepthAggregatesPerLevel(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)))
	require.NoError(t, book.Add(newOrder("b2", "u2", types.OrderSideBuy, "0.40", 5)))

	bids, _ := book.Depth(10)
	require.Len(t, bids, 1)
	assert.Equal(t, int64(15), bids[0].TotalQuantity)
	assert.Equal(t, 2, bids[0].OrderCount)
}

func TestOrderBook_RemovingLastOrderAtLevelDeletesLevel(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)))
	book.Remove("b1")
	bids, _ := book.Depth(10)
	assert.Len(t, bids, 0)
}

func TestOrderBook_UpdateQuantityZeroRemoves(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)))
	require.NoError(t, book.UpdateQuantity("b1", 0))
	assert.Nil(t, book.BestBid())
}

func TestOrderBook_UpdateQuantityRejectsNegative(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)))
	assert.ErrorIs(t, book.UpdateQuantity("b1", -1), types.ErrNegativeQuantity)
}

func TestOrderBook_IterationIsPriceTimeOrdered(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("a1", "u1", types.OrderSideSell, "0.55", 10)))
	require.NoError(t, book.Add(newOrder("a2", "u2", types.OrderSideSell, "0.50", 10)))
	require.NoError(t, book.Add(newOrder("a3", "u3", types.OrderSideSell, "0.55", 10)))

	var seen []string
	book.Iterate(types.OrderSideSell, func(o *types.Order) bool {
		seen = append(seen, o.ID)
		return true
	})
	// Best (lowest) price first, ties broken by arrival order.
	assert.Equal(t, []string{"a2", "a1", "a3"}, seen)
}

func TestRebuildFromOrders_MatchesOriginalDepth(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	o1 := newOrder("b1", "u1", types.OrderSideBuy, "0.40", 10)
	o2 := newOrder("b2", "u2", types.OrderSideBuy, "0.40", 5)
	o3 := newOrder("b3", "u3", types.OrderSideBuy, "0.45", 7)
	require.NoError(t, book.Add(o1))
	require.NoError(t, book.Add(o2))
	require.NoError(t, book.Add(o3))

	wantBids, wantAsks := book.Depth(10)

	rebuilt := RebuildFromOrders(testMarket, types.OutcomeYes, []*types.Order{o1, o2, o3}, testLogger())
	gotBids, gotAsks := rebuilt.Depth(10)

	assert.Equal(t, wantBids, gotBids)
	assert.Equal(t, wantAsks, gotAsks)
}
