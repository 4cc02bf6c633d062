package persistence

import (
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/positions"
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

type positionRow struct {
	MarketID         string          `db:"market_id"`
	UserAddress      string          `db:"user_address"`
	YesShares        decimal.Decimal `db:"yes_shares"`
	YesAvgPrice      decimal.Decimal `db:"yes_avg_price"`
	NoShares         decimal.Decimal `db:"no_shares"`
	NoAvgPrice       decimal.Decimal `db:"no_avg_price"`
	LockedCollateral decimal.Decimal `db:"locked_collateral"`
	IsSettled        bool            `db:"is_settled"`
}

func (r positionRow) toPosition() *types.Position {
	return &types.Position{
		MarketID:         r.MarketID,
		UserAddress:      r.UserAddress,
		YesShares:        r.YesShares,
		YesAvgPrice:      r.YesAvgPrice,
		NoShares:         r.NoShares,
		NoAvgPrice:       r.NoAvgPrice,
		LockedCollateral: r.LockedCollateral,
		IsSettled:        r.IsSettled,
	}
}

// LoadPositionsForUpdateTx loads (locking FOR UPDATE, so a concurrent
// submit touching the same user+market serializes on this row rather than
// relying solely on SERIALIZABLE conflict detection) the positions touched
// by a batch of deltas, zero-initializing any that don't exist yet.
func LoadPositionsForUpdateTx(tx Tx, keys []positions.Key) (map[positions.Key]*types.Position, error) {
	out := make(map[positions.Key]*types.Position, len(keys))
	for _, k := range keys {
		var row positionRow
		err := pgxscan.Get(tx.Ctx, tx.Tx, &row, `
			select market_id, user_address, yes_shares, yes_avg_price, no_shares, no_avg_price, locked_collateral, is_settled
			from user_positions where market_id = $1 and user_address = $2 for update`,
			k.MarketID, k.UserAddress)
		if err != nil {
			if pgxscan.NotFound(err) {
				out[k] = &types.Position{MarketID: k.MarketID, UserAddress: k.UserAddress}
				continue
			}
			return nil, err
		}
		out[k] = row.toPosition()
	}
	return out, nil
}

// UpsertPositionsTx writes back every position touched by a batch of
// deltas, inserting a fresh row on first trade and updating in place
// thereafter (the primary key is (market_id, user_address)).
func UpsertPositionsTx(tx Tx, byKey map[positions.Key]*types.Position) error {
	for _, p := range byKey {
		_, err := tx.Tx.Exec(tx.Ctx, `
			insert into user_positions (market_id, user_address, yes_shares, yes_avg_price, no_shares, no_avg_price, locked_collateral, is_settled)
			values ($1, $2, $3, $4, $5, $6, $7, $8)
			on conflict (market_id, user_address) do update set
				yes_shares = excluded.yes_shares,
				yes_avg_price = excluded.yes_avg_price,
				no_shares = excluded.no_shares,
				no_avg_price = excluded.no_avg_price,
				locked_collateral = excluded.locked_collateral,
				is_settled = excluded.is_settled`,
			p.MarketID, p.UserAddress, p.YesShares, p.YesAvgPrice, p.NoShares, p.NoAvgPrice, p.LockedCollateral, p.IsSettled)
		if err != nil {
			return err
		}
	}
	return nil
}
