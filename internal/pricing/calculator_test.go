package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sliceline/sliceline-backend/pkg/config"
	"github.com/sliceline/sliceline-backend/pkg/enums"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(config.CheckoutConfig{
		TaxRate:          "0.23",
		DeliveryFeeTaxed: true,
	})
	if err != nil {
		t.Fatalf("build calculator: %v", err)
	}
	return calc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateQuotes(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	tests := []struct {
		name     string
		input    Input
		expected Quote
	}{
		{
			name: "collection no discount",
			input: Input{
				Lines:     []Line{{UnitPrice: dec("10.00"), Quantity: 2}},
				OrderType: enums.OrderTypeCollection,
			},
			expected: Quote{
				Subtotal:       dec("20.00"),
				DiscountAmount: dec("0"),
				DeliveryFee:    dec("0"),
				TaxAmount:      dec("4.60"),
				TotalAmount:    dec("24.60"),
			},
		},
		{
			name: "delivery fee folded into taxable base",
			input: Input{
				Lines:       []Line{{UnitPrice: dec("10.00"), Quantity: 2}},
				OrderType:   enums.OrderTypeDelivery,
				DeliveryFee: dec("3.50"),
			},
			expected: Quote{
				Subtotal:       dec("20.00"),
				DiscountAmount: dec("0"),
				DeliveryFee:    dec("3.50"),
				TaxAmount:      dec("5.41"),
				TotalAmount:    dec("28.91"),
			},
		},
		{
			name: "percentage discount before tax",
			input: Input{
				Lines:     []Line{{UnitPrice: dec("10.00"), Quantity: 2}},
				OrderType: enums.OrderTypeCollection,
				Discount:  &Discount{Type: enums.DiscountTypePercentage, Value: dec("10")},
			},
			expected: Quote{
				Subtotal:       dec("20.00"),
				DiscountAmount: dec("2.00"),
				DeliveryFee:    dec("0"),
				TaxAmount:      dec("4.14"),
				TotalAmount:    dec("22.14"),
			},
		},
		{
			name: "fixed discount capped at subtotal",
			input: Input{
				Lines:     []Line{{UnitPrice: dec("5.00"), Quantity: 1}},
				OrderType: enums.OrderTypeCollection,
				Discount:  &Discount{Type: enums.DiscountTypeFixed, Value: dec("8.00")},
			},
			expected: Quote{
				Subtotal:       dec("5.00"),
				DiscountAmount: dec("5.00"),
				DeliveryFee:    dec("0"),
				TaxAmount:      dec("0.00"),
				TotalAmount:    dec("0.00"),
			},
		},
		{
			name: "delivery fee discount waives the fee",
			input: Input{
				Lines:       []Line{{UnitPrice: dec("10.00"), Quantity: 2}},
				OrderType:   enums.OrderTypeDelivery,
				DeliveryFee: dec("3.50"),
				Discount:    &Discount{Type: enums.DiscountTypeDeliveryFee, Value: dec("0")},
			},
			expected: Quote{
				Subtotal:       dec("20.00"),
				DiscountAmount: dec("3.50"),
				DeliveryFee:    dec("3.50"),
				TaxAmount:      dec("4.60"),
				TotalAmount:    dec("24.60"),
			},
		},
		{
			name: "collection ignores supplied delivery fee",
			input: Input{
				Lines:       []Line{{UnitPrice: dec("12.40"), Quantity: 1}},
				OrderType:   enums.OrderTypeCollection,
				DeliveryFee: dec("3.50"),
			},
			expected: Quote{
				Subtotal:       dec("12.40"),
				DiscountAmount: dec("0"),
				DeliveryFee:    dec("0"),
				TaxAmount:      dec("2.85"),
				TotalAmount:    dec("15.25"),
			},
		},
		{
			name: "options priced into unit price",
			input: Input{
				Lines: []Line{
					{UnitPrice: dec("11.50"), Quantity: 2},
					{UnitPrice: dec("4.25"), Quantity: 3},
				},
				OrderType: enums.OrderTypeCollection,
			},
			expected: Quote{
				Subtotal:       dec("35.75"),
				DiscountAmount: dec("0"),
				DeliveryFee:    dec("0"),
				TaxAmount:      dec("8.22"),
				TotalAmount:    dec("43.97"),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Calculate(tc.input)
			assertDecimal(t, "subtotal", tc.expected.Subtotal, got.Subtotal)
			assertDecimal(t, "discount_amount", tc.expected.DiscountAmount, got.DiscountAmount)
			assertDecimal(t, "delivery_fee", tc.expected.DeliveryFee, got.DeliveryFee)
			assertDecimal(t, "tax_amount", tc.expected.TaxAmount, got.TaxAmount)
			assertDecimal(t, "total_amount", tc.expected.TotalAmount, got.TotalAmount)
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)
	input := Input{
		Lines:       []Line{{UnitPrice: dec("9.99"), Quantity: 3}},
		OrderType:   enums.OrderTypeDelivery,
		DeliveryFee: dec("2.75"),
		Discount:    &Discount{Type: enums.DiscountTypePercentage, Value: dec("15")},
	}
	first := calc.Calculate(input)
	for i := 0; i < 50; i++ {
		again := calc.Calculate(input)
		if !first.TotalAmount.Equal(again.TotalAmount) || !first.TaxAmount.Equal(again.TaxAmount) {
			t.Fatalf("quote drifted on run %d: %v vs %v", i, first, again)
		}
	}
}

func TestCalculateTotalInvariant(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)
	inputs := []Input{
		{Lines: []Line{{UnitPrice: dec("7.30"), Quantity: 2}}, OrderType: enums.OrderTypeDelivery, DeliveryFee: dec("3.50")},
		{Lines: []Line{{UnitPrice: dec("18.00"), Quantity: 1}}, OrderType: enums.OrderTypeCollection, Discount: &Discount{Type: enums.DiscountTypeFixed, Value: dec("5.00")}},
		{Lines: []Line{{UnitPrice: dec("6.66"), Quantity: 3}}, OrderType: enums.OrderTypeDelivery, DeliveryFee: dec("2.00"), Discount: &Discount{Type: enums.DiscountTypeDeliveryFee}},
	}
	for _, in := range inputs {
		q := calc.Calculate(in)
		want := q.Subtotal.Sub(q.DiscountAmount).Add(q.DeliveryFee).Add(q.TaxAmount)
		if !q.TotalAmount.Equal(want) {
			t.Fatalf("total %s violates invariant, want %s (quote %+v)", q.TotalAmount, want, q)
		}
	}
}

func assertDecimal(t *testing.T, field string, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("%s: want %s, got %s", field, want, got)
	}
}
