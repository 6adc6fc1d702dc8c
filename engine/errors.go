package engine

import "errors"

var (
	// ErrInvalidQuantity indicates a quantity that is zero, negative,
	// or off the asset class's granularity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrMarketClosed indicates the symbol's market is outside its
	// trading session.
	ErrMarketClosed = errors.New("market closed")
	// ErrInsufficientBalance indicates the account cannot cover a
	// buy's notional plus fee.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientHoldings indicates a sell larger than the
	// position.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrConcurrencyConflict indicates the settlement kept losing the
	// optimistic version check to concurrent trades and the retry
	// budget ran out.
	ErrConcurrencyConflict = errors.New("concurrent trade conflict")
)
