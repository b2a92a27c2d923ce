package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSide_Opposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Error("expected BUY opposite to be SELL")
	}
	if SideSell.Opposite() != SideBuy {
		t.Error("expected SELL opposite to be BUY")
	}
}

func TestParseMarketPair(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MarketPair
		wantErr bool
	}{
		{
			name:  "with venue",
			input: "BINANCE:BTC-USDT",
			want:  MarketPair{Venue: "BINANCE", Base: "BTC", Quote: "USDT"},
		},
		{
			name:  "without venue",
			input: "BTC-USDT",
			want:  MarketPair{Base: "BTC", Quote: "USDT"},
		},
		{
			name:  "lowercase symbol uppercased",
			input: "paper:eth-usdt",
			want:  MarketPair{Venue: "paper", Base: "ETH", Quote: "USDT"},
		},
		{
			name:    "missing quote",
			input:   "BTC-",
			wantErr: true,
		},
		{
			name:    "missing base",
			input:   "-USDT",
			wantErr: true,
		},
		{
			name:    "no separator",
			input:   "BTCUSDT",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "BTC-USDT-PERP",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMarketPair(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMarketPair(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMarketPair_Strings(t *testing.T) {
	pair := MarketPair{Venue: "BINANCE", Base: "BTC", Quote: "USDT"}
	if pair.Symbol() != "BTC-USDT" {
		t.Errorf("expected symbol BTC-USDT, got %q", pair.Symbol())
	}
	if pair.String() != "BINANCE:BTC-USDT" {
		t.Errorf("expected BINANCE:BTC-USDT, got %q", pair.String())
	}

	bare := MarketPair{Base: "ETH", Quote: "USDT"}
	if bare.String() != "ETH-USDT" {
		t.Errorf("expected ETH-USDT, got %q", bare.String())
	}

	if !(MarketPair{}).IsZero() {
		t.Error("expected empty pair to be zero")
	}
	if pair.IsZero() {
		t.Error("expected populated pair not to be zero")
	}
}

func TestTradingRules_QuantizeAmount(t *testing.T) {
	rules := TradingRules{
		StepSize:    dec("0.01"),
		MinQuantity: dec("0.05"),
	}

	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"rounds down to step", "1.2345", "1.23"},
		{"already aligned", "2.5", "2.5"},
		{"below min quantizes to zero", "0.049", "0"},
		{"exactly min", "0.05", "0.05"},
		{"step rounds below min", "0.054", "0.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.QuantizeAmount(dec(tt.amount))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	// No step size configured leaves the amount alone.
	loose := TradingRules{}
	if got := loose.QuantizeAmount(dec("1.2345")); !got.Equal(dec("1.2345")) {
		t.Errorf("expected passthrough, got %s", got)
	}
}

func TestTradingRules_QuantizePrice(t *testing.T) {
	rules := TradingRules{TickSize: dec("0.1")}

	// Buys round down, sells round up, so the order never crosses worse
	// than the requested price.
	if got := rules.QuantizePrice(dec("100.17"), SideBuy); !got.Equal(dec("100.1")) {
		t.Errorf("expected buy price 100.1, got %s", got)
	}
	if got := rules.QuantizePrice(dec("100.17"), SideSell); !got.Equal(dec("100.2")) {
		t.Errorf("expected sell price 100.2, got %s", got)
	}
	if got := rules.QuantizePrice(dec("100.2"), SideBuy); !got.Equal(dec("100.2")) {
		t.Errorf("expected aligned price untouched, got %s", got)
	}

	loose := TradingRules{}
	if got := loose.QuantizePrice(dec("100.17"), SideSell); !got.Equal(dec("100.17")) {
		t.Errorf("expected passthrough, got %s", got)
	}
}
