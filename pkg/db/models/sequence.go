package models

// Sequence backs human-readable order and ticket numbers. Values are bumped
// with a single atomic upsert so concurrent allocations never collide.
type Sequence struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}
