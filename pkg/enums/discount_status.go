package enums

// DiscountStatus tracks whether a discount code may be applied.
type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusExpired  DiscountStatus = "expired"
	DiscountStatusDisabled DiscountStatus = "disabled"
)

var validDiscountStatuses = []DiscountStatus{
	DiscountStatusActive,
	DiscountStatusExpired,
	DiscountStatusDisabled,
}

// String implements fmt.Stringer.
func (d DiscountStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountStatus.
func (d DiscountStatus) IsValid() bool {
	for _, candidate := range validDiscountStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}
