// Package market fetches cryptocurrency ticker data from the public
// Binance API for the dashboard's market widget.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"finbook/internal/cache"
	"finbook/internal/log"
)

const defaultBaseURL = "https://api.binance.com/api/v3"

// Ticker is one crypto pair prepared for display.
type Ticker struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Change24h       float64 `json:"change_24h"`
	Volume24h       float64 `json:"volume_24h"`
	PriceFormatted  string  `json:"price_formatted"`
	VolumeFormatted string  `json:"volume_formatted"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *cache.LRUCache[[]Ticker]
	logger  *log.Logger
}

// NewClient creates a Binance client with a 5 minute response cache.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		cache:   cache.NewLRUCache[[]Ticker](10, 5*time.Minute),
		logger:  log.ForComponent(log.ComponentMarket),
	}
}

// NewClientWithBaseURL is used by tests to point at a fake server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// rawTicker mirrors the Binance 24hr ticker payload; numbers arrive as strings.
type rawTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// TopByVolume returns the top USDT pairs by 24h quote volume, excluding
// leveraged tokens. Results are cached for five minutes per limit.
func (c *Client) TopByVolume(ctx context.Context, limit int) ([]Ticker, error) {
	if limit < 1 {
		limit = 5
	}
	key := "top:" + strconv.Itoa(limit)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ticker/24hr", nil)
	if err != nil {
		return nil, fmt.Errorf("build ticker request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ticker request failed: status %d", resp.StatusCode)
	}

	var raw []rawTicker
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ticker response: %w", err)
	}

	tickers := selectTop(raw, limit)
	c.cache.Set(key, tickers)
	c.logger.DebugContext(ctx, "Ticker data refreshed", "pairs", len(tickers), "limit", limit)
	return tickers, nil
}

func selectTop(raw []rawTicker, limit int) []Ticker {
	var pairs []rawTicker
	for _, r := range raw {
		if !strings.HasSuffix(r.Symbol, "USDT") {
			continue
		}
		if isLeveraged(r.Symbol) {
			continue
		}
		pairs = append(pairs, r)
	}

	sort.Slice(pairs, func(i, j int) bool {
		return parseFloat(pairs[i].QuoteVolume) > parseFloat(pairs[j].QuoteVolume)
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}

	tickers := make([]Ticker, 0, len(pairs))
	for _, p := range pairs {
		symbol := strings.TrimSuffix(p.Symbol, "USDT")
		price := parseFloat(p.LastPrice)
		volume := parseFloat(p.QuoteVolume)
		tickers = append(tickers, Ticker{
			Symbol:          symbol,
			Name:            cryptoName(symbol),
			Price:           price,
			Change24h:       parseFloat(p.PriceChangePercent),
			Volume24h:       volume,
			PriceFormatted:  formatPrice(price),
			VolumeFormatted: formatVolume(volume),
		})
	}
	return tickers
}

func isLeveraged(symbol string) bool {
	for _, marker := range []string{"DOWN", "UP", "BEAR", "BULL"} {
		if strings.Contains(symbol, marker) {
			return true
		}
	}
	return false
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

var cryptoNames = map[string]string{
	"BTC":   "Bitcoin",
	"ETH":   "Ethereum",
	"BNB":   "Binance Coin",
	"XRP":   "Ripple",
	"ADA":   "Cardano",
	"DOGE":  "Dogecoin",
	"SOL":   "Solana",
	"DOT":   "Polkadot",
	"MATIC": "Polygon",
	"SHIB":  "Shiba Inu",
	"TRX":   "TRON",
	"AVAX":  "Avalanche",
	"LINK":  "Chainlink",
	"UNI":   "Uniswap",
	"ATOM":  "Cosmos",
}

func cryptoName(symbol string) string {
	if name, ok := cryptoNames[symbol]; ok {
		return name
	}
	return symbol
}

func formatPrice(price float64) string {
	switch {
	case price >= 1000:
		return "$" + addThousands(strconv.FormatFloat(price, 'f', 2, 64))
	case price >= 1:
		return fmt.Sprintf("$%.2f", price)
	case price >= 0.01:
		return fmt.Sprintf("$%.4f", price)
	default:
		return fmt.Sprintf("$%.8f", price)
	}
}

func formatVolume(volume float64) string {
	switch {
	case volume >= 1e9:
		return fmt.Sprintf("$%.2fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("$%.2fM", volume/1e6)
	default:
		return fmt.Sprintf("$%.2fK", volume/1e3)
	}
}

// addThousands inserts comma group separators into a fixed decimal string.
func addThousands(s string) string {
	dot := strings.IndexByte(s, '.')
	intPart, frac := s, ""
	if dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	var b strings.Builder
	n := len(intPart)
	for i, r := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}
