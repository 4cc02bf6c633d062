package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

func p(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Scenario 1: empty book, limit BUY rests.
func TestMatch_EmptyBookRests(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 100)

	result := Match(taker, book, time.Now())
	require.Empty(t, result.Trades)
	assert.Equal(t, int64(100), result.TakerRemaining)

	require.NoError(t, book.Add(taker))
	bids, _ := book.Depth(10)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(p("0.60")))
	assert.Equal(t, int64(100), bids[0].TotalQuantity)
}

// Scenario 2: exact cross.
func TestMatch_ExactCross(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	maker := newOrder("m1", "u2", types.OrderSideSell, "0.55", 100)
	require.NoError(t, book.Add(maker))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 100)
	result := Match(taker, book, time.Now())

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.True(t, trade.Price.Equal(p("0.55")))
	assert.Equal(t, int64(100), trade.Quantity)
	assert.Equal(t, int64(0), result.TakerRemaining)
	assert.Equal(t, types.OrderStatusFilled, taker.Status)
	assert.Equal(t, types.OrderStatusFilled, maker.Status)
	assert.Nil(t, book.BestAsk())
}

// Scenario 3: partial taker, residual rests.
func TestMatch_PartialTakerResidualRests(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	maker := newOrder("m1", "u2", types.OrderSideSell, "0.55", 40)
	require.NoError(t, book.Add(maker))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 100)
	result := Match(taker, book, time.Now())

	require.Len(t, result.Trades, 1)
	assert.Equal(t, int64(40), result.Trades[0].Quantity)
	assert.Equal(t, int64(60), result.TakerRemaining)
	assert.Equal(t, types.OrderStatusPartiallyFilled, taker.Status)

	require.NoError(t, book.Add(taker))
	bids, _ := book.Depth(10)
	require.Len(t, bids, 1)
	assert.Equal(t, int64(60), bids[0].TotalQuantity)
}

// Scenario 4: price-time priority across two makers at the same price.
func TestMatch_PriceTimePriority(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	m2 := newOrder("m2", "u2", types.OrderSideSell, "0.55", 30)
	m3 := newOrder("m3", "u3", types.OrderSideSell, "0.55", 50)
	require.NoError(t, book.Add(m2))
	require.NoError(t, book.Add(m3))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 60)
	result := Match(taker, book, time.Now())

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "m2", result.Trades[0].MakerOrderID)
	assert.Equal(t, int64(30), result.Trades[0].Quantity)
	assert.Equal(t, "m3", result.Trades[1].MakerOrderID)
	assert.Equal(t, int64(30), result.Trades[1].Quantity)
	assert.Equal(t, int64(20), m3.Remaining())
	assert.Equal(t, int64(0), result.TakerRemaining)
}

// Scenario 5: self-trade is skipped, both orders rest.
func TestMatch_SelfTradeSkipped(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	maker := newOrder("m1", "u1", types.OrderSideSell, "0.55", 50)
	require.NoError(t, book.Add(maker))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 50)
	result := Match(taker, book, time.Now())

	assert.Empty(t, result.Trades)
	assert.Equal(t, int64(50), result.TakerRemaining)
	require.NoError(t, book.Add(taker))

	bids, asks := book.Depth(10)
	require.Len(t, bids, 1)
	require.Len(t, asks, 1)
}

// Scenario 6: no cross, book stays put, taker rests.
func TestMatch_NoCross(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	maker := newOrder("m1", "u2", types.OrderSideSell, "0.70", 100)
	require.NoError(t, book.Add(maker))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 100)
	result := Match(taker, book, time.Now())

	assert.Empty(t, result.Trades)
	assert.Equal(t, int64(100), result.TakerRemaining)
}

func TestMatch_InvariantTradeAndRemainingSumToOriginal(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("m1", "u2", types.OrderSideSell, "0.50", 30)))
	require.NoError(t, book.Add(newOrder("m2", "u3", types.OrderSideSell, "0.52", 90)))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 100)
	original := taker.Quantity
	result := Match(taker, book, time.Now())

	var filled int64
	for _, tr := range result.Trades {
		filled += tr.Quantity
	}
	assert.Equal(t, original, filled+result.TakerRemaining)
}

func TestMatch_NoSelfTradeInvariant(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("m1", "u1", types.OrderSideSell, "0.50", 10)))
	require.NoError(t, book.Add(newOrder("m2", "u2", types.OrderSideSell, "0.50", 10)))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.55", 20)
	result := Match(taker, book, time.Now())

	for _, tr := range result.Trades {
		assert.NotEqual(t, tr.BuyerAddress, tr.SellerAddress)
	}
	// Only the non-self maker (m2) should have traded.
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "m2", result.Trades[0].MakerOrderID)
}

func TestMatch_TradePriceRespectsTakerLimit(t *testing.T) {
	book := NewOrderBook(testMarket, types.OutcomeYes, testLogger())
	require.NoError(t, book.Add(newOrder("m1", "u2", types.OrderSideSell, "0.45", 10)))

	taker := newOrder("t1", "u1", types.OrderSideBuy, "0.60", 10)
	result := Match(taker, book, time.Now())

	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].Price.LessThanOrEqual(taker.Price))
	assert.True(t, result.Trades[0].Price.Equal(p("0.45")))
}
