package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FormatPrice renders a cent amount as a dollar string: 2500 becomes
// "$25.00", 5 becomes "$0.05".
func FormatPrice(cents int64) string {
	d := decimal.New(cents, -2)
	if cents < 0 {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// DiscountAmount returns the discount for a base amount in cents, rounded
// half away from zero. Percent values at or below 0 yield no discount;
// values at or above 100 discount the full amount.
func DiscountAmount(cents int64, percent int) int64 {
	if percent <= 0 || cents == 0 {
		return 0
	}
	if percent >= 100 {
		return cents
	}
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Round(0).
		IntPart()
}

// CalculateDiscount returns the payable amount after applying a percentage
// discount. The discount itself is rounded first and then subtracted, so
// CalculateDiscount(10001, 50) is 5000: the discount rounds to 5001 and the
// remainder is never rounded again.
func CalculateDiscount(cents int64, percent int) int64 {
	return cents - DiscountAmount(cents, percent)
}

// ApplyPricingRule scales a base amount by a promotional multiplier and
// rounds the product half away from zero. A multiplier of 1.0 returns the
// base unchanged.
func ApplyPricingRule(baseCents int64, multiplier float64) int64 {
	return decimal.NewFromInt(baseCents).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(0).
		IntPart()
}

// Quote captures the arithmetic behind a price adjustment so callers can
// surface the charge and the saving separately. Discount quotes populate
// DiscountPercent and DiscountCents; rule quotes populate Multiplier.
type Quote struct {
	BaseCents       int64
	DiscountPercent int
	DiscountCents   int64
	Multiplier      float64
	TotalCents      int64
}

// QuoteDiscount computes the full quote for a base amount and discount
// percentage using the same rounding rules as CalculateDiscount.
func QuoteDiscount(cents int64, percent int) Quote {
	discount := DiscountAmount(cents, percent)
	return Quote{
		BaseCents:       cents,
		DiscountPercent: percent,
		DiscountCents:   discount,
		TotalCents:      cents - discount,
	}
}

// QuoteRule computes the quote for a base amount under a promotional
// multiplier using the same rounding rules as ApplyPricingRule.
func QuoteRule(cents int64, multiplier float64) Quote {
	return Quote{
		BaseCents:  cents,
		Multiplier: multiplier,
		TotalCents: ApplyPricingRule(cents, multiplier),
	}
}

// FormattedTotal renders the payable amount for display.
func (q Quote) FormattedTotal() string {
	return FormatPrice(q.TotalCents)
}
