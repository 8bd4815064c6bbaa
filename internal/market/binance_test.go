package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const tickerPayload = `[
  {"symbol":"BTCUSDT","lastPrice":"65000.50","priceChangePercent":"2.5","quoteVolume":"2000000000"},
  {"symbol":"ETHUSDT","lastPrice":"3500.10","priceChangePercent":"-1.2","quoteVolume":"900000000"},
  {"symbol":"DOGEUSDT","lastPrice":"0.1234","priceChangePercent":"5.0","quoteVolume":"300000000"},
  {"symbol":"BTCDOWNUSDT","lastPrice":"1.00","priceChangePercent":"0.1","quoteVolume":"5000000000"},
  {"symbol":"ETHUPUSDT","lastPrice":"1.00","priceChangePercent":"0.1","quoteVolume":"4000000000"},
  {"symbol":"BTCEUR","lastPrice":"60000.00","priceChangePercent":"2.0","quoteVolume":"8000000000"},
  {"symbol":"SOLUSDT","lastPrice":"150.00","priceChangePercent":"3.3","quoteVolume":"500000000"}
]`

func newFakeBinance(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ticker/24hr" {
			http.NotFound(w, r)
			return
		}
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tickerPayload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTopByVolume(t *testing.T) {
	srv := newFakeBinance(t, nil)
	c := NewClientWithBaseURL(srv.URL)

	tickers, err := c.TopByVolume(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(tickers) != 3 {
		t.Fatalf("expected 3 tickers, got %d", len(tickers))
	}

	// Sorted by quote volume, leveraged tokens and non-USDT pairs excluded.
	want := []string{"BTC", "ETH", "SOL"}
	for i, w := range want {
		if tickers[i].Symbol != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, tickers[i].Symbol)
		}
	}

	btc := tickers[0]
	if btc.Name != "Bitcoin" {
		t.Fatalf("expected Bitcoin, got %s", btc.Name)
	}
	if btc.PriceFormatted != "$65,000.50" {
		t.Fatalf("expected $65,000.50, got %s", btc.PriceFormatted)
	}
	if btc.VolumeFormatted != "$2.00B" {
		t.Fatalf("expected $2.00B, got %s", btc.VolumeFormatted)
	}
}

func TestTopByVolumeCaches(t *testing.T) {
	var calls atomic.Int64
	srv := newFakeBinance(t, &calls)
	c := NewClientWithBaseURL(srv.URL)

	for range 3 {
		if _, err := c.TopByVolume(context.Background(), 5); err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}

	// A different limit is a different cache key.
	if _, err := c.TopByVolume(context.Background(), 2); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", got)
	}
}

func TestTopByVolumeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL(srv.URL)
	if _, err := c.TopByVolume(context.Background(), 5); err == nil {
		t.Fatalf("expected error for upstream 500")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{65000.5, "$65,000.50"},
		{1234567.891, "$1,234,567.89"},
		{3.5, "$3.50"},
		{0.1234, "$0.1234"},
		{0.00001234, "$0.00001234"},
	}
	for i, tc := range cases {
		if got := formatPrice(tc.in); got != tc.want {
			t.Fatalf("case %d expected %q, got %q", i, tc.want, got)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2e9, "$2.00B"},
		{9.5e8, "$950.00M"},
		{3e5, "$300.00K"},
	}
	for i, tc := range cases {
		if got := formatVolume(tc.in); got != tc.want {
			t.Fatalf("case %d expected %q, got %q", i, tc.want, got)
		}
	}
}

func TestIsLeveraged(t *testing.T) {
	for _, sym := range []string{"BTCDOWNUSDT", "ETHUPUSDT", "XRPBEARUSDT", "ADABULLUSDT"} {
		if !isLeveraged(sym) {
			t.Fatalf("expected %s to be leveraged", sym)
		}
	}
	if isLeveraged("BTCUSDT") {
		t.Fatalf("BTCUSDT is not leveraged")
	}
}
