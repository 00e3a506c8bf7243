// internal/trade/executor_test.go
package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-paper-bot/internal/oracle"
	"github.com/rovshanmuradov/solana-paper-bot/internal/session"
)

// stubQuotes returns canned quotes keyed by source id.
type stubQuotes struct {
	quotes map[string]*oracle.Quote
	err    error
}

func (s *stubQuotes) FetchQuote(ctx context.Context, sourceID string) (*oracle.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	q, ok := s.quotes[sourceID]
	if !ok {
		return nil, oracle.ErrNotFound
	}
	return q, nil
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	reg := session.NewRegistry(10, zaptest.NewLogger(t))
	s, _ := reg.GetOrCreate(1)
	return s
}

func bonkQuote(priceSOL float64) *oracle.Quote {
	return &oracle.Quote{
		Symbol:   "BONK",
		Name:     "Bonk",
		PriceUSD: priceSOL * 140,
		PriceSOL: priceSOL,
		SourceID: "Mint111",
	}
}

func TestExecuteBuy(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))

	sess.ResolveBuy("Mint111", bonkQuote(0.5))

	result, err := exec.ExecuteBuy(context.Background(), sess, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.TokensReceived)
	assert.Equal(t, 8.0, result.NewBalance)
	assert.Equal(t, 8.0, sess.Wallet.Balance())

	pos, ok := sess.Wallet.Position("BONK")
	require.True(t, ok)
	assert.Equal(t, 4.0, pos.Quantity)
	assert.Equal(t, "Mint111", pos.SourceID)
}

func TestExecuteBuy_InsufficientBalance(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))

	sess.ResolveBuy("Mint111", bonkQuote(0.5))
	_, err := exec.ExecuteBuy(context.Background(), sess, 2)
	require.NoError(t, err)

	// Balance is 8 now; a 20 SOL buy must be rejected without mutation.
	_, err = exec.ExecuteBuy(context.Background(), sess, 20)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 8.0, sess.Wallet.Balance())

	// Pending context survives the rejection: the user can retry.
	_, ok := sess.PendingBuy()
	assert.True(t, ok)
}

func TestExecuteBuy_InvalidAmount(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))
	sess.ResolveBuy("Mint111", bonkQuote(0.5))

	for _, amount := range []float64{0, -1} {
		_, err := exec.ExecuteBuy(context.Background(), sess, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, 10.0, sess.Wallet.Balance())
}

func TestExecuteBuy_NoPendingContext(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))

	_, err := exec.ExecuteBuy(context.Background(), sess, 1)
	assert.ErrorIs(t, err, ErrNoPendingTrade)
}

func TestExecuteSell_HalfPosition(t *testing.T) {
	sess := newTestSession(t)
	quotes := &stubQuotes{quotes: map[string]*oracle.Quote{"Mint111": bonkQuote(0.5)}}
	exec := NewExecutor(quotes, nil, zaptest.NewLogger(t))

	sess.Wallet.AddTokens("BONK", "Mint111", 4)
	require.NoError(t, sess.Wallet.Debit(2))
	sess.SelectSell("BONK")

	result, err := exec.ExecuteSell(context.Background(), sess, 50)
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.TokensSold)
	assert.Equal(t, 1.0, result.SolReceived)
	assert.False(t, result.Closed)
	assert.Equal(t, 9.0, sess.Wallet.Balance())

	pos, ok := sess.Wallet.Position("BONK")
	require.True(t, ok)
	assert.Equal(t, 2.0, pos.Quantity)
}

func TestExecuteSell_FullPositionCloses(t *testing.T) {
	sess := newTestSession(t)
	quotes := &stubQuotes{quotes: map[string]*oracle.Quote{"Mint111": bonkQuote(0.25)}}
	exec := NewExecutor(quotes, nil, zaptest.NewLogger(t))

	sess.Wallet.AddTokens("BONK", "Mint111", 2)
	sess.SelectSell("BONK")

	result, err := exec.ExecuteSell(context.Background(), sess, 100)
	require.NoError(t, err)
	assert.True(t, result.Closed)
	assert.Equal(t, 2.0, result.TokensSold)

	// Closed entirely regardless of the re-fetched price.
	_, ok := sess.Wallet.Position("BONK")
	assert.False(t, ok)
	assert.True(t, sess.Wallet.Empty())
}

func TestExecuteSell_QuoteUnavailableLeavesLedgerUntouched(t *testing.T) {
	sess := newTestSession(t)
	quotes := &stubQuotes{err: errors.New("connect timeout")}
	exec := NewExecutor(quotes, nil, zaptest.NewLogger(t))

	sess.Wallet.AddTokens("BONK", "Mint111", 4)
	sess.SelectSell("BONK")

	_, err := exec.ExecuteSell(context.Background(), sess, 50)
	require.ErrorIs(t, err, ErrQuoteUnavailable)

	assert.Equal(t, 10.0, sess.Wallet.Balance())
	pos, ok := sess.Wallet.Position("BONK")
	require.True(t, ok)
	assert.Equal(t, 4.0, pos.Quantity)
}

func TestExecuteSell_NoSuchPosition(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))

	sess.SelectSell("GHOST")
	_, err := exec.ExecuteSell(context.Background(), sess, 100)
	assert.ErrorIs(t, err, ErrNoSuchPosition)
}

func TestExecuteSell_InvalidPercent(t *testing.T) {
	sess := newTestSession(t)
	exec := NewExecutor(&stubQuotes{}, nil, zaptest.NewLogger(t))

	sess.Wallet.AddTokens("BONK", "Mint111", 4)
	sess.SelectSell("BONK")

	_, err := exec.ExecuteSell(context.Background(), sess, 75)
	assert.ErrorIs(t, err, ErrInvalidPercent)
}

func TestBalanceNeverNegative(t *testing.T) {
	sess := newTestSession(t)
	quotes := &stubQuotes{quotes: map[string]*oracle.Quote{"Mint111": bonkQuote(0.5)}}
	exec := NewExecutor(quotes, nil, zaptest.NewLogger(t))

	sess.ResolveBuy("Mint111", bonkQuote(0.5))
	for _, amount := range []float64{6, 6, 6} {
		_, _ = exec.ExecuteBuy(context.Background(), sess, amount)
		assert.GreaterOrEqual(t, sess.Wallet.Balance(), 0.0)
	}
}
