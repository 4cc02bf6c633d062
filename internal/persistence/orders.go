package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

type orderRow struct {
	ID              string          `db:"id"`
	MarketID        string          `db:"market_id"`
	UserAddress     string          `db:"user_address"`
	Side            string          `db:"side"`
	Outcome         string          `db:"outcome"`
	Price           decimal.Decimal `db:"price"`
	Quantity        int64           `db:"quantity"`
	FilledQuantity  int64           `db:"filled_quantity"`
	Status          string          `db:"status"`
	ArrivalSequence int64           `db:"arrival_sequence"`
}

func (r orderRow) toOrder() *types.Order {
	return &types.Order{
		ID:              r.ID,
		MarketID:        r.MarketID,
		UserAddress:     r.UserAddress,
		Side:            types.OrderSide(r.Side),
		Outcome:         types.Outcome(r.Outcome),
		Price:           r.Price,
		Quantity:        r.Quantity,
		FilledQuantity:  r.FilledQuantity,
		Status:          types.OrderStatus(r.Status),
		ArrivalSequence: uint64(r.ArrivalSequence),
	}
}

// InsertOrderTx persists a newly-submitted taker order as a single insert
// inside the submit transaction. The submit path has already matched the
// order in memory, so the row is written with its post-match state.
func InsertOrderTx(tx Tx, o *types.Order) error {
	_, err := tx.Tx.Exec(tx.Ctx, `
		insert into orders (id, market_id, user_address, side, outcome, price, quantity, filled_quantity, status, arrival_sequence)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.MarketID, o.UserAddress, string(o.Side), string(o.Outcome), o.Price, o.Quantity, o.FilledQuantity, string(o.Status), int64(o.ArrivalSequence))
	return err
}

// UpdateOrderFillTx writes back an order's filled_quantity and status after
// matching, used for both the taker order and every maker order a match
// touched.
func UpdateOrderFillTx(tx Tx, o *types.Order) error {
	_, err := tx.Tx.Exec(tx.Ctx, `
		update orders set filled_quantity = $1, status = $2 where id = $3`,
		o.FilledQuantity, string(o.Status), o.ID)
	return err
}

// GetLiveOrdersTx fetches every resting (OPEN or PARTIALLY_FILLED) order for
// a (market, outcome) in arrival order, so the in-memory OrderBook can be
// rebuilt from durable state.
func GetLiveOrdersTx(tx Tx, marketID string, outcome types.Outcome) ([]*types.Order, error) {
	var rows []orderRow
	err := pgxscan.Select(tx.Ctx, tx.Tx, &rows, `
		select id, market_id, user_address, side, outcome, price, quantity, filled_quantity, status, arrival_sequence
		from orders
		where market_id = $1 and outcome = $2 and status in ('OPEN', 'PARTIALLY_FILLED')
		order by arrival_sequence asc`,
		marketID, string(outcome))
	if err != nil {
		return nil, err
	}
	orders := make([]*types.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.toOrder()
	}
	return orders, nil
}

// GetLiveOrders is the non-transactional variant used at startup to warm
// every OrderBook in the registry before the server accepts traffic.
func (g *Gateway) GetLiveOrders(ctx context.Context, marketID string, outcome types.Outcome) ([]*types.Order, error) {
	var rows []orderRow
	err := pgxscan.Select(ctx, g.pool, &rows, `
		select id, market_id, user_address, side, outcome, price, quantity, filled_quantity, status, arrival_sequence
		from orders
		where market_id = $1 and outcome = $2 and status in ('OPEN', 'PARTIALLY_FILLED')
		order by arrival_sequence asc`,
		marketID, string(outcome))
	if err != nil {
		return nil, err
	}
	orders := make([]*types.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.toOrder()
	}
	return orders, nil
}

// DistinctLiveMarketOutcomes returns every (market_id, outcome) pair with
// at least one resting order, used to enumerate which books need warming at
// startup.
func (g *Gateway) DistinctLiveMarketOutcomes(ctx context.Context) ([]MarketOutcome, error) {
	var rows []MarketOutcome
	err := pgxscan.Select(ctx, g.pool, &rows, `
		select distinct market_id, outcome from orders where status in ('OPEN', 'PARTIALLY_FILLED')`)
	return rows, err
}

// MarketOutcome identifies one in-memory OrderBook instance.
type MarketOutcome struct {
	MarketID string        `db:"market_id"`
	Outcome  types.Outcome `db:"outcome"`
}
