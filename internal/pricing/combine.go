package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// CombineMode decides how the two hedge-leg prices chain into a synthetic
// cross price for the maker market.
type CombineMode int

const (
	// CombineMultiply chains legs quoted in different currencies
	// (A-C and C-B): cross = p1 * p2.
	CombineMultiply CombineMode = iota

	// CombineDivide chains legs sharing a quote currency
	// (A-C and B-C): cross = p1 / p2.
	CombineDivide
)

func (m CombineMode) String() string {
	if m == CombineDivide {
		return "divide"
	}
	return "multiply"
}

// InferCombineMode picks the combine mode once, structurally, from the two
// hedge-leg symbols. Legs sharing a quote currency divide; otherwise they
// multiply. This mirrors the symbol-based branch of the settlement math and
// is deliberately not re-derived per tick.
func InferCombineMode(leg1, leg2 types.MarketPair) CombineMode {
	if leg1.Quote == leg2.Quote {
		return CombineDivide
	}
	return CombineMultiply
}

// Combine chains the two leg prices into the synthetic cross price.
func (m CombineMode) Combine(p1, p2 decimal.Decimal) decimal.Decimal {
	if m == CombineDivide {
		if p2.Sign() == 0 {
			return decimal.Zero
		}
		return p1.Div(p2)
	}
	return p1.Mul(p2)
}
