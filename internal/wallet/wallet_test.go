// internal/wallet/wallet_test.go
package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	w := New(10)

	assert.Equal(t, 10.0, w.Balance())
	assert.True(t, w.Empty())
	assert.Empty(t, w.Positions())
}

func TestDebitRejectsOverdraft(t *testing.T) {
	w := New(8)

	err := w.Debit(20)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 8.0, w.Balance())

	require.NoError(t, w.Debit(8))
	assert.Equal(t, 0.0, w.Balance())
}

func TestAddTokensCreatesAndAccumulates(t *testing.T) {
	w := New(10)

	w.AddTokens("BONK", "Mint111", 4)
	pos, ok := w.Position("BONK")
	require.True(t, ok)
	assert.Equal(t, 4.0, pos.Quantity)
	assert.Equal(t, "Mint111", pos.SourceID)

	w.AddTokens("BONK", "Mint111", 2)
	pos, _ = w.Position("BONK")
	assert.Equal(t, 6.0, pos.Quantity)
}

func TestReduceTokens(t *testing.T) {
	w := New(10)
	w.AddTokens("BONK", "Mint111", 4)

	w.ReduceTokens("BONK", 2, false)
	pos, ok := w.Position("BONK")
	require.True(t, ok)
	assert.Equal(t, 2.0, pos.Quantity)

	// Close-out removes the position regardless of floating residue.
	w.ReduceTokens("BONK", 2, true)
	_, ok = w.Position("BONK")
	assert.False(t, ok)
	assert.True(t, w.Empty())
}

func TestReduceTokensDropsDust(t *testing.T) {
	w := New(10)
	w.AddTokens("WIF", "Mint222", 1)

	w.ReduceTokens("WIF", 1-1e-12, false)
	_, ok := w.Position("WIF")
	assert.False(t, ok, "dust residue should not survive as a position")
}

func TestReduceTokensUnknownSymbolIsNoop(t *testing.T) {
	w := New(10)
	w.ReduceTokens("GHOST", 1, false)
	assert.True(t, w.Empty())
}

func TestPositionsSortedBySymbol(t *testing.T) {
	w := New(10)
	w.AddTokens("WIF", "Mint222", 1)
	w.AddTokens("BONK", "Mint111", 2)

	positions := w.Positions()
	require.Len(t, positions, 2)
	assert.Equal(t, "BONK", positions[0].Symbol)
	assert.Equal(t, "WIF", positions[1].Symbol)
}
