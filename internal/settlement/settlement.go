package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/internal/pricing"
	"github.com/mselser95/crossarb/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// VWAP returns the volume-weighted average price of a fill list. An empty
// or zero-volume fill list returns an error; fills are never synthesized.
func VWAP(fills []types.Fill) (decimal.Decimal, error) {
	var notional, volume decimal.Decimal
	for _, f := range fills {
		notional = notional.Add(f.Price.Mul(f.Amount))
		volume = volume.Add(f.Amount)
	}

	if volume.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("vwap of zero volume")
	}

	return notional.Div(volume), nil
}

// RoundPnLPct computes the realized profitability of one completed hedge
// round as a percentage of the maker leg's notional, net of fees.
//
// For the single-leg form the hedge price is the sole leg's VWAP. For the
// triangular form the two leg VWAPs chain into a synthetic cross price
// using the same combine mode the calculator inferred from the symbols.
func RoundPnLPct(makerSide types.Side, makerVWAP decimal.Decimal, legVWAPs []decimal.Decimal, mode pricing.CombineMode, totalFeePct decimal.Decimal) (decimal.Decimal, error) {
	if makerVWAP.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("maker vwap is zero")
	}

	var hedgePrice decimal.Decimal
	switch len(legVWAPs) {
	case 1:
		hedgePrice = legVWAPs[0]
	case 2:
		hedgePrice = mode.Combine(legVWAPs[0], legVWAPs[1])
	default:
		return decimal.Zero, fmt.Errorf("need 1 or 2 leg vwaps, got %d", len(legVWAPs))
	}

	return pricing.ProfitabilityPct(makerSide, makerVWAP, hedgePrice, totalFeePct), nil
}

// PnLQuote converts a profitability percentage into reporting-currency
// units: the maker notional is translated via the reference price, then
// scaled by the percentage.
func PnLQuote(pnlPct, makerNotional, refPrice decimal.Decimal) decimal.Decimal {
	return pnlPct.Div(oneHundred).Mul(makerNotional).Mul(refPrice)
}

// FeesQuote returns the total fee paid for one round in maker-quote units:
// the maker fee on the maker notional plus the taker fee on each hedge
// leg's notional.
func FeesQuote(makerFeePct, takerFeePct, makerNotional decimal.Decimal, legNotionals []decimal.Decimal) decimal.Decimal {
	fees := makerFeePct.Div(oneHundred).Mul(makerNotional)
	for _, n := range legNotionals {
		fees = fees.Add(takerFeePct.Div(oneHundred).Mul(n))
	}
	return fees
}
