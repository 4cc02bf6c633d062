package auditlog

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

var errMalformedMember = errors.New("auditlog: malformed sorted-set member")

// Entry is one immutable audit record.
type Entry struct {
	ID            string          `json:"id"`
	TradeID       string          `json:"tradeId"`
	MarketID      string          `json:"marketId"`
	Outcome       types.Outcome   `json:"outcome"`
	BuyerAddress  string          `json:"buyerAddress"`
	SellerAddress string          `json:"sellerAddress"`
	BuyOrderID    string          `json:"buyOrderId"`
	SellOrderID   string          `json:"sellOrderId"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	Timestamp     time.Time       `json:"timestamp"`
	LoggedAt      time.Time       `json:"loggedAt"`
}

// entryFromTrade builds the not-yet-ided entry for a trade. The maker/taker
// order ids are re-attributed to buy/sell order ids since Trade records
// maker/taker, not buy/sell, roles.
func entryFromTrade(t *types.Trade, loggedAt time.Time) Entry {
	buyOrderID, sellOrderID := t.TakerOrderID, t.MakerOrderID
	if t.MakerAddress == t.BuyerAddress {
		buyOrderID, sellOrderID = t.MakerOrderID, t.TakerOrderID
	}
	return Entry{
		TradeID:       t.ID,
		MarketID:      t.MarketID,
		Outcome:       t.Outcome,
		BuyerAddress:  t.BuyerAddress,
		SellerAddress: t.SellerAddress,
		BuyOrderID:    buyOrderID,
		SellOrderID:   sellOrderID,
		Price:         t.Price,
		Quantity:      t.Quantity,
		Timestamp:     t.Timestamp,
		LoggedAt:      loggedAt,
	}
}

// marshalPayload encodes the entry (without its id, which the append script
// assigns atomically) to JSON for embedding in a sorted-set member.
func marshalPayload(e Entry) (string, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// unmarshalMember decodes a "<id>|<json>" sorted-set member, taking the id
// from the member prefix (authoritative) rather than the embedded JSON.
func unmarshalMember(member string) (Entry, error) {
	var e Entry
	idx := strings.IndexByte(member, '|')
	if idx < 0 {
		return e, errMalformedMember
	}
	if err := json.Unmarshal([]byte(member[idx+1:]), &e); err != nil {
		return e, err
	}
	e.ID = member[:idx]
	return e, nil
}
