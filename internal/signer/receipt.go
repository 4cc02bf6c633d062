// Package signer canonicalizes a submit's resulting order and trades into
// a deterministic byte encoding and signs its Keccak-256 digest with a
// secp256k1 key.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// Receipt is the signed response body for a submit.
type Receipt struct {
	Order     *types.Order
	Trades    []*types.Trade
	Timestamp time.Time
	Signature []byte
}

// Signer holds a secp256k1 key and produces detached signatures over the
// canonical encoding of a Receipt.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// FromPrivateKeyHex loads the signer from SIGNING_PRIVATE_KEY's hex
// encoding (with or without a leading 0x).
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer: parse private key: %w", err)
	}
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("signer: public key is not ECDSA")
	}
	return &Signer{privateKey: privateKey, address: crypto.PubkeyToAddress(*publicKey)}, nil
}

// Address is the signer's Ethereum-style address, exposed so clients can
// verify a receipt's signature against a known key.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign canonicalizes order and trades and returns a detached 65-byte
// [R||S||V] signature over the Keccak-256 digest of the canonical bytes.
func (s *Signer) Sign(order *types.Order, trades []*types.Trade, now time.Time) (*Receipt, error) {
	digest := crypto.Keccak256(Canonicalize(order, trades, now))
	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("signer: sign: %w", err)
	}
	return &Receipt{Order: order, Trades: trades, Timestamp: now, Signature: sig}, nil
}

// Canonicalize produces the deterministic byte encoding a Receipt's
// signature covers: pipe-separated fields in a fixed order, integers as
// decimal strings, prices as fixed-scale decimal strings (8 fractional
// digits), timestamps as RFC3339 in UTC. Trades are encoded in the order
// the matching engine produced them, one per line.
func Canonicalize(order *types.Order, trades []*types.Trade, now time.Time) []byte {
	var b strings.Builder

	writeOrder(&b, order)
	b.WriteByte('\n')

	for _, t := range trades {
		writeTrade(&b, t)
		b.WriteByte('\n')
	}

	b.WriteString(now.UTC().Format(time.RFC3339Nano))

	return []byte(b.String())
}

func writeOrder(b *strings.Builder, o *types.Order) {
	fields := []string{
		o.ID, o.MarketID, o.UserAddress, string(o.Side), string(o.Outcome),
		o.Price.StringFixed(8), strconv.FormatInt(o.Quantity, 10), strconv.FormatInt(o.FilledQuantity, 10),
		string(o.Status),
	}
	b.WriteString(strings.Join(fields, "|"))
}

func writeTrade(b *strings.Builder, t *types.Trade) {
	fields := []string{
		t.ID, t.MarketID, string(t.Outcome), t.Price.StringFixed(8), strconv.FormatInt(t.Quantity, 10),
		t.MakerOrderID, t.TakerOrderID, t.BuyerAddress, t.SellerAddress,
		t.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	b.WriteString(strings.Join(fields, "|"))
}
