package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/enums"
)

// Line is one priced cart line. UnitPrice already includes selected options.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Discount is an approved discount definition, applied by the calculator.
type Discount struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

// Input carries everything the calculator needs. DeliveryFee is zero for
// collection orders.
type Input struct {
	Lines       []Line
	OrderType   enums.OrderType
	DeliveryFee decimal.Decimal
	Discount    *Discount
}

// Quote is the monetary breakdown of one order.
//
// Invariant: TotalAmount = Subtotal - DiscountAmount + DeliveryFee + TaxAmount.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Calculator derives order totals. Pure: no I/O, no side effects.
type Calculator struct {
	taxRate          decimal.Decimal
	deliveryFeeTaxed bool
}

// NewCalculator builds a calculator from the checkout config.
func NewCalculator(cfg config.CheckoutConfig) (*Calculator, error) {
	rate, err := cfg.TaxRateDecimal()
	if err != nil {
		return nil, err
	}
	return &Calculator{
		taxRate:          rate,
		deliveryFeeTaxed: cfg.DeliveryFeeTaxed,
	}, nil
}

var hundred = decimal.NewFromInt(100)

// Calculate produces the quote for the given input. Each field is rounded
// to 2 decimals exactly once; later fields are derived from the rounded
// earlier ones so re-derivations cannot drift.
func (c *Calculator) Calculate(in Input) Quote {
	subtotal := decimal.Zero
	for _, line := range in.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(2)

	fee := in.DeliveryFee.Round(2)
	if in.OrderType == enums.OrderTypeCollection {
		fee = decimal.Zero
	}

	discount := decimal.Zero
	if in.Discount != nil {
		switch in.Discount.Type {
		case enums.DiscountTypePercentage:
			discount = subtotal.Mul(in.Discount.Value).Div(hundred).Round(2)
			if discount.GreaterThan(subtotal) {
				discount = subtotal
			}
		case enums.DiscountTypeFixed:
			discount = in.Discount.Value.Round(2)
			if discount.GreaterThan(subtotal) {
				discount = subtotal
			}
		case enums.DiscountTypeDeliveryFee:
			// Fee stays in its own field; the discount offsets it so the
			// total invariant holds without special-casing.
			discount = fee
		}
	}

	taxableBase := subtotal.Sub(discount)
	if c.deliveryFeeTaxed {
		taxableBase = taxableBase.Add(fee)
	}
	tax := taxableBase.Mul(c.taxRate).Round(2)

	total := subtotal.Sub(discount).Add(fee).Add(tax)

	return Quote{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		DeliveryFee:    fee,
		TaxAmount:      tax,
		TotalAmount:    total,
	}
}
