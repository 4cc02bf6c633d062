package persistence

import (
	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// InsertTradesTx persists every trade produced by one match atomically with
// the order and position writes in the same transaction.
func InsertTradesTx(tx Tx, trades []*types.Trade) error {
	for _, t := range trades {
		_, err := tx.Tx.Exec(tx.Ctx, `
			insert into trades (id, market_id, outcome, price, quantity, maker_order_id, taker_order_id, maker_address, taker_address, buyer_address, seller_address, created_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			t.ID, t.MarketID, string(t.Outcome), t.Price, t.Quantity, t.MakerOrderID, t.TakerOrderID, t.MakerAddress, t.TakerAddress, t.BuyerAddress, t.SellerAddress, t.Timestamp)
		if err != nil {
			return err
		}
	}
	return nil
}
