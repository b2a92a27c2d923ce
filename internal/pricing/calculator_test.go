package pricing

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/testutil"
	"github.com/mselser95/crossarb/pkg/types"
)

func newCalculator(t *testing.T, conn *testutil.MockConnector, takers ...types.MarketPair) *Calculator {
	t.Helper()
	calc, err := New(Config{
		MakerMarket:  testutil.Market("PAPER", "BTC", "USDT"),
		TakerMarkets: takers,
		TotalFeePct:  testutil.Dec("0.1"),
		Quoter:       conn,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return calc
}

func TestNew_Validation(t *testing.T) {
	conn := testutil.NewMockConnector()

	_, err := New(Config{Quoter: conn, Logger: zap.NewNop()})
	if err == nil {
		t.Error("expected error for no taker markets")
	}

	_, err = New(Config{
		TakerMarkets: []types.MarketPair{
			testutil.Market("A", "X", "Y"),
			testutil.Market("A", "Y", "Z"),
			testutil.Market("A", "Z", "X"),
		},
		Quoter: conn,
		Logger: zap.NewNop(),
	})
	if err == nil {
		t.Error("expected error for three taker markets")
	}

	_, err = New(Config{
		TakerMarkets: []types.MarketPair{testutil.Market("A", "X", "Y")},
		Logger:       zap.NewNop(),
	})
	if err == nil {
		t.Error("expected error for nil quoter")
	}
}

func TestInferCombineMode(t *testing.T) {
	tests := []struct {
		name string
		leg1 types.MarketPair
		leg2 types.MarketPair
		want CombineMode
	}{
		{
			"shared quote divides",
			testutil.Market("BINANCE", "BTC", "USDT"),
			testutil.Market("BINANCE", "ETH", "USDT"),
			CombineDivide,
		},
		{
			"chained currencies multiply",
			testutil.Market("BINANCE", "BTC", "ETH"),
			testutil.Market("BINANCE", "ETH", "USDT"),
			CombineMultiply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCombineMode(tt.leg1, tt.leg2); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCombineMode_Combine(t *testing.T) {
	p1, p2 := testutil.Dec("6"), testutil.Dec("3")

	if got := CombineMultiply.Combine(p1, p2); !got.Equal(testutil.Dec("18")) {
		t.Errorf("multiply: expected 18, got %s", got)
	}
	if got := CombineDivide.Combine(p1, p2); !got.Equal(testutil.Dec("2")) {
		t.Errorf("divide: expected 2, got %s", got)
	}
	if got := CombineDivide.Combine(p1, testutil.Dec("0")); got.Sign() != 0 {
		t.Errorf("divide by zero: expected 0, got %s", got)
	}
}

func TestLegSides(t *testing.T) {
	conn := testutil.NewMockConnector()

	single := newCalculator(t, conn, testutil.Market("BINANCE", "BTC", "USDT"))
	if sides := single.LegSides(types.SideBuy); len(sides) != 1 || sides[0] != types.SideSell {
		t.Errorf("single leg: expected [SELL], got %v", sides)
	}

	divide := newCalculator(t, conn,
		testutil.Market("BINANCE", "BTC", "USDT"),
		testutil.Market("BINANCE", "ETH", "USDT"))
	if sides := divide.LegSides(types.SideBuy); sides[0] != types.SideSell || sides[1] != types.SideBuy {
		t.Errorf("divide mode: expected [SELL BUY], got %v", sides)
	}
	if sides := divide.LegSides(types.SideSell); sides[0] != types.SideBuy || sides[1] != types.SideSell {
		t.Errorf("divide mode sell: expected [BUY SELL], got %v", sides)
	}

	multiply := newCalculator(t, conn,
		testutil.Market("BINANCE", "BTC", "ETH"),
		testutil.Market("BINANCE", "ETH", "USDT"))
	if sides := multiply.LegSides(types.SideBuy); sides[0] != types.SideSell || sides[1] != types.SideSell {
		t.Errorf("multiply mode: expected [SELL SELL], got %v", sides)
	}
}

func TestHedgePrice_SingleLeg(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewMockConnector()
	taker := testutil.Market("BINANCE", "BTC", "USDT")
	conn.SetQuote(taker, types.SideSell, testutil.Dec("100"))

	calc := newCalculator(t, conn, taker)

	price, err := calc.HedgePrice(ctx, types.SideBuy, testutil.Dec("1"))
	if err != nil {
		t.Fatalf("HedgePrice: %v", err)
	}
	if !price.Equal(testutil.Dec("100")) {
		t.Errorf("expected 100, got %s", price)
	}

	// Missing book side surfaces the quote error.
	_, err = calc.HedgePrice(ctx, types.SideSell, testutil.Dec("1"))
	if err == nil {
		t.Error("expected error for unquoted side")
	}
}

func TestHedgePrice_TriangularMultiply(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewMockConnector()
	leg1 := testutil.Market("BINANCE", "BTC", "ETH")
	leg2 := testutil.Market("BINANCE", "ETH", "USDT")

	// Selling 1 BTC yields 20 ETH; selling those nets 150 USDT/ETH.
	conn.SetQuote(leg1, types.SideSell, testutil.Dec("20"))
	conn.SetQuote(leg2, types.SideSell, testutil.Dec("150"))

	calc := newCalculator(t, conn, leg1, leg2)

	price, err := calc.HedgePrice(ctx, types.SideBuy, testutil.Dec("1"))
	if err != nil {
		t.Fatalf("HedgePrice: %v", err)
	}
	if !price.Equal(testutil.Dec("3000")) {
		t.Errorf("expected synthetic cross 3000, got %s", price)
	}
}

func TestHedgePrice_TriangularDivide(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewMockConnector()
	leg1 := testutil.Market("BINANCE", "BTC", "USDT")
	leg2 := testutil.Market("BINANCE", "ETH", "USDT")

	conn.SetQuote(leg1, types.SideSell, testutil.Dec("3000"))
	conn.SetQuote(leg2, types.SideBuy, testutil.Dec("150"))
	conn.SetPrice(leg2, types.PriceTypeMid, testutil.Dec("150"))

	calc := newCalculator(t, conn, leg1, leg2)

	// Selling 1 BTC at 3000 and buying ETH at 150 prices BTC at 20 ETH.
	price, err := calc.HedgePrice(ctx, types.SideBuy, testutil.Dec("1"))
	if err != nil {
		t.Fatalf("HedgePrice: %v", err)
	}
	if !price.Equal(testutil.Dec("20")) {
		t.Errorf("expected synthetic cross 20, got %s", price)
	}
}

func TestTargetMakerPrice(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewMockConnector()
	taker := testutil.Market("BINANCE", "BTC", "USDT")
	conn.SetQuote(taker, types.SideSell, testutil.Dec("100"))
	conn.SetQuote(taker, types.SideBuy, testutil.Dec("100"))

	calc := newCalculator(t, conn, taker)
	targetPct := testutil.Dec("0.4") // plus 0.1 fee = 0.5 spread

	bid, err := calc.TargetMakerPrice(ctx, types.SideBuy, testutil.Dec("1"), targetPct)
	if err != nil {
		t.Fatalf("TargetMakerPrice buy: %v", err)
	}
	if !bid.Equal(testutil.Dec("99.5")) {
		t.Errorf("expected bid shaded to 99.5, got %s", bid)
	}

	ask, err := calc.TargetMakerPrice(ctx, types.SideSell, testutil.Dec("1"), targetPct)
	if err != nil {
		t.Fatalf("TargetMakerPrice sell: %v", err)
	}
	if !ask.Equal(testutil.Dec("100.5")) {
		t.Errorf("expected ask shaded to 100.5, got %s", ask)
	}
}

func TestProfitabilityPct(t *testing.T) {
	tests := []struct {
		name       string
		side       types.Side
		makerPrice string
		hedgePrice string
		feePct     string
		want       string
	}{
		{"maker buy hedge higher", types.SideBuy, "100", "102", "0", "2"},
		{"maker sell hedge lower", types.SideSell, "102", "100", "0", "2"},
		{"fees subtract", types.SideBuy, "100", "102", "0.5", "1.5"},
		{"negative edge", types.SideBuy, "102", "100", "0", "-1.9607843137254902"},
		{"zero unfavorable", types.SideBuy, "0", "100", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitabilityPct(tt.side,
				testutil.Dec(tt.makerPrice),
				testutil.Dec(tt.hedgePrice),
				testutil.Dec(tt.feePct))
			if !got.Equal(testutil.Dec(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
