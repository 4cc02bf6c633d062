package types

import "github.com/pkg/errors"

// Sentinel errors shared across the matching, validation, and persistence
// layers.
var (
	ErrDuplicateOrder     = errors.New("order id already resident in book")
	ErrOrderBookMismatch  = errors.New("order market/outcome does not match this book")
	ErrNegativeQuantity   = errors.New("quantity must not be negative")
	ErrOrderNotFound      = errors.New("order not found in book")
	ErrInvariantViolation = errors.New("matching engine invariant violated")

	ErrMarketNotFound  = errors.New("market not found")
	ErrMarketResolved  = errors.New("market already resolved")
	ErrMarketCancelled = errors.New("market cancelled")
	ErrMarketEnded     = errors.New("market trading window has ended")
)
