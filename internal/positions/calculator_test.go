package positions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

func trade(buyer, seller, price string, qty int64) *types.Trade {
	return &types.Trade{
		MarketID:      "m1",
		Outcome:       types.OutcomeYes,
		Price:         decimal.RequireFromString(price),
		Quantity:      qty,
		BuyerAddress:  buyer,
		SellerAddress: seller,
	}
}

func TestFromTrades_SingleTradeBuyerAndSellerDeltasBalance(t *testing.T) {
	deltas := FromTrades([]*types.Trade{trade("buyer", "seller", "0.55", 100)})
	require.Len(t, deltas, 2)

	buy := deltas[Key{UserAddress: "buyer", MarketID: "m1", Outcome: types.OutcomeYes}]
	sell := deltas[Key{UserAddress: "seller", MarketID: "m1", Outcome: types.OutcomeYes}]

	assert.True(t, buy.ShareDelta.Equal(decimal.NewFromInt(100)))
	assert.True(t, sell.ShareDelta.Equal(decimal.NewFromInt(-100)))
	assert.True(t, buy.ShareDelta.Add(sell.ShareDelta).IsZero())
	assert.True(t, buy.CollateralDelta.Equal(decimal.RequireFromString("55")))
	assert.True(t, sell.CollateralDelta.Equal(decimal.RequireFromString("-55")))
}

func TestApplyAll_BuySideMaintainsVolumeWeightedAverage(t *testing.T) {
	positionsByKey := map[Key]*types.Position{}

	deltas := FromTrades([]*types.Trade{trade("buyer", "seller1", "0.50", 100)})
	ApplyAll(deltas, positionsByKey)

	key := Key{UserAddress: "buyer", MarketID: "m1", Outcome: types.OutcomeYes}
	pos := positionsByKey[key]
	require.NotNil(t, pos)
	shares, avg := pos.SharesFor(types.OutcomeYes)
	assert.True(t, shares.Equal(decimal.NewFromInt(100)))
	assert.True(t, avg.Equal(decimal.RequireFromString("0.50")))

	// A second, separately-applied batch of trades at a different price
	// must fold into a new volume-weighted average.
	deltas2 := FromTrades([]*types.Trade{trade("buyer", "seller2", "0.70", 100)})
	ApplyAll(deltas2, positionsByKey)

	shares, avg = pos.SharesFor(types.OutcomeYes)
	assert.True(t, shares.Equal(decimal.NewFromInt(200)))
	assert.True(t, avg.Equal(decimal.RequireFromString("0.6")), "got %s", avg)
}

func TestApplyAll_SellSideResetsAverageWhenSharesHitZero(t *testing.T) {
	positionsByKey := map[Key]*types.Position{
		{UserAddress: "seller", MarketID: "m1", Outcome: types.OutcomeYes}: {
			MarketID: "m1", UserAddress: "seller",
			YesShares: decimal.NewFromInt(100), YesAvgPrice: decimal.RequireFromString("0.5"),
		},
	}

	deltas := FromTrades([]*types.Trade{trade("buyer", "seller", "0.6", 100)})
	ApplyAll(deltas, positionsByKey)

	pos := positionsByKey[Key{UserAddress: "seller", MarketID: "m1", Outcome: types.OutcomeYes}]
	shares, avg := pos.SharesFor(types.OutcomeYes)
	assert.True(t, shares.IsZero())
	assert.True(t, avg.IsZero())
}

func TestFromTrades_MergesMultipleTradesSameUserSameBatch(t *testing.T) {
	deltas := FromTrades([]*types.Trade{
		trade("buyer", "s1", "0.40", 30),
		trade("buyer", "s2", "0.60", 70),
	})
	key := Key{UserAddress: "buyer", MarketID: "m1", Outcome: types.OutcomeYes}
	d := deltas[key]
	require.NotNil(t, d)
	assert.True(t, d.ShareDelta.Equal(decimal.NewFromInt(100)))
	// weighted fill price: (30*0.40 + 70*0.60) / 100 = 0.54
	assert.True(t, d.FillPrice.Equal(decimal.RequireFromString("0.54")), "got %s", d.FillPrice)
}
