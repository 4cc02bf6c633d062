// Package positions derives per-user position deltas from a batch of
// trades, maintaining a volume-weighted-average fill price per
// (user, market, outcome) bucket.
package positions

import (
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// Key identifies one (user, market, outcome) bucket of deltas.
type Key struct {
	UserAddress string
	MarketID    string
	Outcome     types.Outcome
}

// FromTrades groups the position effects of a batch of trades (all
// attributable to one taker submission) by (user, market, outcome) and
// returns one merged delta per bucket, ready for the persistence gateway
// to apply. The BUY side gains quantity shares and its locked collateral
// increases by price*quantity; the SELL side loses quantity shares and
// its locked collateral decreases by price*quantity.
func FromTrades(trades []*types.Trade) map[Key]*types.PositionDelta {
	out := make(map[Key]*types.PositionDelta)

	for _, t := range trades {
		notional := t.Price.Mul(decimal.NewFromInt(t.Quantity)).RoundBank(8)

		buyKey := Key{UserAddress: t.BuyerAddress, MarketID: t.MarketID, Outcome: t.Outcome}
		mergeDelta(out, buyKey, types.PositionDelta{
			MarketID:        t.MarketID,
			UserAddress:     t.BuyerAddress,
			Outcome:         t.Outcome,
			ShareDelta:      decimal.NewFromInt(t.Quantity),
			CollateralDelta: notional,
			FillPrice:       t.Price,
			FillQuantity:    t.Quantity,
			IsBuy:           true,
		})

		sellKey := Key{UserAddress: t.SellerAddress, MarketID: t.MarketID, Outcome: t.Outcome}
		mergeDelta(out, sellKey, types.PositionDelta{
			MarketID:        t.MarketID,
			UserAddress:     t.SellerAddress,
			Outcome:         t.Outcome,
			ShareDelta:      decimal.NewFromInt(t.Quantity).Neg(),
			CollateralDelta: notional.Neg(),
			FillPrice:       t.Price,
			FillQuantity:    t.Quantity,
			IsBuy:           false,
		})
	}

	return out
}

// mergeDelta folds a new per-trade delta into the running delta for key,
// maintaining a volume-weighted fill price across every trade in the
// bucket so a single types.Position.Apply call at the end reproduces the
// same average as applying each trade's delta one at a time.
func mergeDelta(out map[Key]*types.PositionDelta, key Key, d types.PositionDelta) {
	existing, ok := out[key]
	if !ok {
		merged := d
		out[key] = &merged
		return
	}

	combinedQty := existing.FillQuantity + d.FillQuantity
	if combinedQty != 0 {
		weighted := existing.FillPrice.Mul(decimal.NewFromInt(existing.FillQuantity)).
			Add(d.FillPrice.Mul(decimal.NewFromInt(d.FillQuantity)))
		existing.FillPrice = weighted.Div(decimal.NewFromInt(combinedQty))
	}
	existing.FillQuantity = combinedQty
	existing.ShareDelta = existing.ShareDelta.Add(d.ShareDelta)
	existing.CollateralDelta = existing.CollateralDelta.Add(d.CollateralDelta)
}

// ApplyAll applies every delta in deltas to the matching position in
// positionsByKey, which callers (the gateway transaction) have already
// loaded or zero-initialized for every touched (user,market).
func ApplyAll(deltas map[Key]*types.PositionDelta, positionsByKey map[Key]*types.Position) {
	for key, d := range deltas {
		pos, ok := positionsByKey[key]
		if !ok {
			pos = &types.Position{MarketID: key.MarketID, UserAddress: key.UserAddress}
			positionsByKey[key] = pos
		}
		pos.Apply(*d)
	}
}
