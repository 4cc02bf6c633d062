// Package validation holds the pure, synchronous checks an order submit
// must pass before any state change is attempted.
package validation

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Vatix-Protocol/vatix-backend/internal/types"
)

// Field is a machine-readable validation failure, carrying the offending
// field name and a stable code for API clients.
type Field struct {
	Field string
	Code  string
}

// Error wraps one or more Field failures. The validator stops at the
// first failure, so Fields always has exactly one entry today, but
// callers should not assume that won't change.
type Error struct {
	Fields []Field
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Code + ": " + e.Fields[0].Field
}

func fieldError(field, code string) error {
	return &Error{Fields: []Field{{Field: field, Code: code}}}
}

// MarketLookup resolves a market by id; it is the external collaborator
// the validator consults for liveness, injected so the validator stays
// pure and unit-testable against fakes.
type MarketLookup interface {
	GetMarket(ctx context.Context, marketID string) (*types.Market, error)
}

// ErrMarketNotFoundLookup is returned by a MarketLookup when the id is
// unknown; the validator maps it (like any other lookup error) to a
// MarketNotTradableError with SubKindNotFound.
var ErrMarketNotFoundLookup = types.ErrMarketNotFound

// Request is the parsed, not-yet-validated submit request.
type Request struct {
	MarketID    string
	UserAddress string
	Side        types.OrderSide
	Outcome     types.Outcome
	Price       decimal.Decimal
	Quantity    int64
}

// Validator checks a Request against the order-acceptance rules: address
// shape, market liveness, side/outcome validity, and price/quantity
// bounds. User addresses are the 20-byte, 0x-prefixed EVM shape.
type Validator struct {
	markets MarketLookup
	clock   func() time.Time
}

func NewValidator(markets MarketLookup, clock func() time.Time) *Validator {
	if clock == nil {
		clock = time.Now
	}
	return &Validator{markets: markets, clock: clock}
}

// Validate runs every check in order, returning the first failure, or nil
// if the request may proceed.
func (v *Validator) Validate(ctx context.Context, req Request) error {
	if !isValidAddress(req.UserAddress) {
		return fieldError("userAddress", "INVALID_ADDRESS")
	}

	market, err := v.markets.GetMarket(ctx, req.MarketID)
	if err != nil {
		return &MarketNotTradableError{SubKind: SubKindNotFound, Cause: err}
	}
	if tradeErr := market.Tradable(v.clock()); tradeErr != nil {
		return &MarketNotTradableError{SubKind: subKindFor(tradeErr), Cause: tradeErr}
	}

	if !req.Side.Valid() {
		return fieldError("side", "INVALID_SIDE")
	}
	if !req.Outcome.Valid() {
		return fieldError("outcome", "INVALID_OUTCOME")
	}

	// req.Price arrives as a decimal.Decimal, which has no NaN/Inf states;
	// the API layer rejects non-finite JSON numbers before constructing one.
	if req.Price.LessThanOrEqual(decimal.Zero) || req.Price.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fieldError("price", "PRICE_OUT_OF_RANGE")
	}

	if req.Quantity <= 0 {
		return fieldError("quantity", "QUANTITY_NOT_POSITIVE")
	}

	return nil
}

func isValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

// SubKind distinguishes why a market isn't tradable.
type SubKind string

const (
	SubKindNotFound  SubKind = "NOT_FOUND"
	SubKindResolved  SubKind = "RESOLVED"
	SubKindCancelled SubKind = "CANCELLED"
	SubKindEnded     SubKind = "ENDED"
)

func subKindFor(err error) SubKind {
	switch err {
	case types.ErrMarketResolved:
		return SubKindResolved
	case types.ErrMarketCancelled:
		return SubKindCancelled
	case types.ErrMarketEnded:
		return SubKindEnded
	default:
		return SubKindNotFound
	}
}

// MarketNotTradableError reports that the market cannot accept the submit:
// it was not found, or it is resolved, cancelled, or ended.
type MarketNotTradableError struct {
	SubKind SubKind
	Cause   error
}

func (e *MarketNotTradableError) Error() string {
	return "market not tradable: " + string(e.SubKind)
}

func (e *MarketNotTradableError) Unwrap() error { return e.Cause }
