// internal/trade/errors.go
package trade

import "errors"

// Rejection reasons surfaced to the conversation layer. All of them are
// recovered at the point of occurrence and rendered as a user-facing
// message; none are fatal and none trigger an automatic retry.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInsufficientBalance = errors.New("insufficient SOL balance")
	ErrNoPendingTrade      = errors.New("no pending trade context")
	ErrNoSuchPosition      = errors.New("position no longer held")
	ErrQuoteUnavailable    = errors.New("could not price position")
	ErrInvalidPercent      = errors.New("sell percent must be 50 or 100")
)
