// internal/oracle/client.go

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	rateLimit = 300 // requests per minute

	stableUSDC = "USDC"
	stableUSDT = "USDT"
)

// ErrNotFound is returned when the feed has no trading pairs for a token.
// Transport failures are wrapped separately so logs can tell the two apart,
// but callers are expected to treat every error from this client as
// "token not found".
var ErrNotFound = errors.New("no trading pairs found")

// Quote is a point-in-time price observation for a token. It is fetched on
// demand and never cached; it can go stale between fetch and use.
type Quote struct {
	Symbol   string
	Name     string
	PriceUSD float64
	PriceSOL float64
	SourceID string
}

// dexScreenerResponse is the token-lookup payload of the feed.
type dexScreenerResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []pairInfo `json:"pairs"`
}

type pairInfo struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   tokenInfo `json:"baseToken"`
	QuoteToken  tokenInfo `json:"quoteToken"`
	PriceUSD    string    `json:"priceUsd"`
	PriceNative string    `json:"priceNative"`
}

type tokenInfo struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// Client resolves token mints to live quotes through the DexScreener API.
// It is stateless per call and safe for concurrent use.
type Client struct {
	baseURL     string
	client      *http.Client
	logger      *zap.Logger
	rateLimiter *time.Ticker
}

// NewClient creates a price feed client. The timeout bounds every request so
// a stalled feed call cannot block a session indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger:      logger.Named("oracle"),
		rateLimiter: time.NewTicker(time.Minute / rateLimit),
	}
}

// FetchQuote resolves a token mint to its best-known quote, taking the first
// pair the feed returns. Returns ErrNotFound when the feed has no pairs.
func (c *Client) FetchQuote(ctx context.Context, sourceID string) (*Quote, error) {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, sourceID)

	response, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get token pairs: %w", err)
	}

	if len(response.Pairs) == 0 {
		return nil, fmt.Errorf("token %s: %w", sourceID, ErrNotFound)
	}

	pair := &response.Pairs[0]
	priceUSD, err := strconv.ParseFloat(pair.PriceUSD, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed priceUsd %q: %w", pair.PriceUSD, err)
	}
	priceSOL, err := strconv.ParseFloat(pair.PriceNative, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed priceNative %q: %w", pair.PriceNative, err)
	}

	quote := &Quote{
		Symbol:   pair.BaseToken.Symbol,
		Name:     pair.BaseToken.Name,
		PriceUSD: priceUSD,
		PriceSOL: priceSOL,
		SourceID: sourceID,
	}

	c.logger.Debug("resolved token quote",
		zap.String("source_id", sourceID),
		zap.String("symbol", quote.Symbol),
		zap.Float64("price_usd", quote.PriceUSD),
		zap.Float64("price_sol", quote.PriceSOL))

	return quote, nil
}

// FetchSolPriceUSD returns the USD price of SOL, preferring a stable-quoted
// pair (USDC/USDT) and falling back to the first pair returned. Returns 0 on
// any failure; callers must treat 0 as "valuation unavailable".
func (c *Client) FetchSolPriceUSD(ctx context.Context) float64 {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, solana.SolMint.String())

	response, err := c.doRequest(ctx, url)
	if err != nil {
		c.logger.Warn("SOL price lookup failed", zap.Error(err))
		return 0
	}
	if len(response.Pairs) == 0 {
		c.logger.Warn("SOL price lookup returned no pairs")
		return 0
	}

	for i := range response.Pairs {
		pair := &response.Pairs[i]
		if pair.QuoteToken.Symbol != stableUSDC && pair.QuoteToken.Symbol != stableUSDT {
			continue
		}
		if price, err := strconv.ParseFloat(pair.PriceUSD, 64); err == nil {
			return price
		}
	}

	price, err := strconv.ParseFloat(response.Pairs[0].PriceUSD, 64)
	if err != nil {
		c.logger.Warn("malformed SOL price", zap.String("price_usd", response.Pairs[0].PriceUSD))
		return 0
	}
	return price
}

// doRequest executes an HTTP request respecting the feed's rate limit.
func (c *Client) doRequest(ctx context.Context, url string) (*dexScreenerResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var response dexScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &response, nil
}
