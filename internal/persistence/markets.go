package persistence

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

type marketRow struct {
	ID              string    `db:"id"`
	Question        string    `db:"question"`
	EndTime         time.Time `db:"end_time"`
	OracleAddress   string    `db:"oracle_address"`
	Status          string    `db:"status"`
	ResolvedOutcome *string   `db:"resolved_outcome"`
}

// GetMarket loads a market by id, satisfying validation.MarketLookup.
func (g *Gateway) GetMarket(ctx context.Context, marketID string) (*types.Market, error) {
	var row marketRow
	err := pgxscan.Get(ctx, g.pool, &row, `select id, question, end_time, oracle_address, status, resolved_outcome from markets where id = $1`, marketID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMarketNotFound
		}
		return nil, err
	}
	return rowToMarket(row)
}

// GetMarketTx is the same lookup, scoped to a transaction's snapshot.
func GetMarketTx(tx Tx, marketID string) (*types.Market, error) {
	var row marketRow
	err := pgxscan.Get(tx.Ctx, tx.Tx, &row, `select id, question, end_time, oracle_address, status, resolved_outcome from markets where id = $1 for share`, marketID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMarketNotFound
		}
		return nil, err
	}
	return rowToMarket(row)
}

func rowToMarket(row marketRow) (*types.Market, error) {
	m := &types.Market{
		ID:            row.ID,
		Question:      row.Question,
		EndTime:       row.EndTime,
		OracleAddress: row.OracleAddress,
		Status:        types.MarketStatus(row.Status),
	}
	if row.ResolvedOutcome != nil {
		o := types.Outcome(*row.ResolvedOutcome)
		m.Outcome = &o
	}
	return m, nil
}
