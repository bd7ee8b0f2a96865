// Package quote fetches a best-effort fiat spot price for the network's
// native asset. A failed quote never fails the run; the cost report simply
// omits the fiat figure.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultEndpoint = "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd"

// Client queries a JSON spot-price endpoint.
type Client struct {
	http     *http.Client
	endpoint string
}

// New builds a quoter against the default public endpoint.
func New() *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		endpoint: defaultEndpoint,
	}
}

// WithEndpoint overrides the price endpoint.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// EthPrice returns the current ETH/USD spot price.
func (c *Client) EthPrice(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote endpoint returned %s", resp.Status)
	}

	var payload struct {
		Ethereum struct {
			USD json.Number `json:"usd"`
		} `json:"ethereum"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode quote: %w", err)
	}
	if payload.Ethereum.USD == "" {
		return decimal.Zero, fmt.Errorf("quote response missing usd price")
	}

	price, err := decimal.NewFromString(payload.Ethereum.USD.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse quote: %w", err)
	}
	return price, nil
}
