package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Line is one cart position entering the calculator: a unit price snapshot
// and a quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  uint
}

// Policy holds every pricing knob in one place so checkout, cart display and
// tests all price with the same formula.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	PromoCodes            map[string]decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.NewFromFloat(0.18),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		FlatShippingFee:       decimal.NewFromInt(100),
		PromoCodes: map[string]decimal.Decimal{
			"welcome10": decimal.NewFromFloat(0.10),
		},
	}
}

// Quote is the full price breakdown for a cart. Every field is rounded to the
// minor currency unit with round-half-away-from-zero.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices a cart. An unknown or empty promo code yields zero discount.
// An empty cart yields an all-zero quote; refusing to check out an empty cart
// is the caller's concern.
func (p Policy) Quote(lines []Line, promoCode string) Quote {
	if len(lines) == 0 {
		return Quote{
			Subtotal: decimal.Zero,
			Discount: decimal.Zero,
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if frac, ok := p.PromoCodes[strings.ToLower(promoCode)]; ok {
		discount = subtotal.Mul(frac).Round(2)
	}

	shipping := p.FlatShippingFee
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(p.TaxRate).Round(2)

	total := subtotal.Sub(discount).Add(shipping).Add(tax).Round(2)

	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
