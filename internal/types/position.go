package types

import "github.com/shopspring/decimal"

// Position is the unique (market, user) row tracking a user's share
// balances and locked collateral in a market.
type Position struct {
	MarketID         string
	UserAddress      string
	YesShares        decimal.Decimal
	NoShares         decimal.Decimal
	YesAvgPrice      decimal.Decimal
	NoAvgPrice       decimal.Decimal
	LockedCollateral decimal.Decimal
	IsSettled        bool
}

// SharesFor returns the share balance and volume-weighted average price for
// the given outcome.
func (p *Position) SharesFor(o Outcome) (shares, avgPrice decimal.Decimal) {
	if o == OutcomeYes {
		return p.YesShares, p.YesAvgPrice
	}
	return p.NoShares, p.NoAvgPrice
}

func (p *Position) setSharesFor(o Outcome, shares, avgPrice decimal.Decimal) {
	if o == OutcomeYes {
		p.YesShares, p.YesAvgPrice = shares, avgPrice
		return
	}
	p.NoShares, p.NoAvgPrice = shares, avgPrice
}

// PositionDelta is the net change to one user's position in one market
// produced by a batch of trades from a single submit.
type PositionDelta struct {
	MarketID          string
	UserAddress       string
	Outcome           Outcome
	ShareDelta        decimal.Decimal // signed: positive for buyer, negative for seller
	CollateralDelta   decimal.Decimal // signed: positive for buyer (locks collateral), negative for seller
	FillPrice         decimal.Decimal // price of the fill driving this delta, for VWAP maintenance
	FillQuantity      int64
	IsBuy             bool
}

// Apply folds a delta into a position in place, maintaining the
// volume-weighted average price on the buy side and resetting it to zero
// when the sell side's remaining shares hit zero.
func (p *Position) Apply(d PositionDelta) {
	shares, avg := p.SharesFor(d.Outcome)
	newShares := shares.Add(d.ShareDelta)

	if d.IsBuy {
		qty := decimal.NewFromInt(d.FillQuantity)
		if !newShares.IsZero() {
			weighted := avg.Mul(shares).Add(d.FillPrice.Mul(qty))
			avg = weighted.Div(newShares)
		} else {
			avg = decimal.Zero
		}
	} else if newShares.IsZero() {
		avg = decimal.Zero
	}

	p.setSharesFor(d.Outcome, newShares, avg)
	p.LockedCollateral = p.LockedCollateral.Add(d.CollateralDelta)
}
