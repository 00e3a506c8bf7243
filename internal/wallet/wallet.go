// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"errors"
	"sort"
)

// ErrInsufficientFunds is returned when a debit exceeds the SOL balance.
var ErrInsufficientFunds = errors.New("insufficient SOL balance")

// removalEpsilon is the residue below which a reduced position is dropped
// instead of lingering as float dust.
const removalEpsilon = 1e-9

// Position is a holding of one token, tracked by quantity and the mint
// address it was bought through.
type Position struct {
	Symbol   string
	SourceID string
	Quantity float64
}

// Wallet is the paper ledger for one user: a SOL balance plus token
// positions keyed by symbol. Invariants: the balance never goes negative,
// and a symbol present in the map always has quantity > 0.
//
// Wallet is not safe for concurrent use; callers hold the owning session's
// lock across every operation.
type Wallet struct {
	balance   float64
	positions map[string]*Position
}

// New creates a wallet funded with the starting SOL balance.
func New(startBalance float64) *Wallet {
	return &Wallet{
		balance:   startBalance,
		positions: make(map[string]*Position),
	}
}

// Balance returns the current SOL balance.
func (w *Wallet) Balance() float64 {
	return w.balance
}

// Debit removes SOL from the balance, rejecting overdrafts.
func (w *Wallet) Debit(amount float64) error {
	if amount > w.balance {
		return ErrInsufficientFunds
	}
	w.balance -= amount
	return nil
}

// Credit adds SOL to the balance.
func (w *Wallet) Credit(amount float64) {
	w.balance += amount
}

// AddTokens credits a position, creating it if absent.
func (w *Wallet) AddTokens(symbol, sourceID string, quantity float64) {
	if pos, ok := w.positions[symbol]; ok {
		pos.Quantity += quantity
		return
	}
	w.positions[symbol] = &Position{
		Symbol:   symbol,
		SourceID: sourceID,
		Quantity: quantity,
	}
}

// ReduceTokens debits a position. The position is removed entirely when
// closeOut is set or the remaining quantity falls below the dust threshold.
func (w *Wallet) ReduceTokens(symbol string, quantity float64, closeOut bool) {
	pos, ok := w.positions[symbol]
	if !ok {
		return
	}
	pos.Quantity -= quantity
	if closeOut || pos.Quantity <= removalEpsilon {
		delete(w.positions, symbol)
	}
}

// Position returns a copy of the position for symbol, if held.
func (w *Wallet) Position(symbol string) (Position, bool) {
	pos, ok := w.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all held positions, sorted by symbol.
func (w *Wallet) Positions() []Position {
	result := make([]Position, 0, len(w.positions))
	for _, pos := range w.positions {
		result = append(result, *pos)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// Empty reports whether the wallet holds no token positions.
func (w *Wallet) Empty() bool {
	return len(w.positions) == 0
}
