package checkout

import (
	"context"

	"gorm.io/gorm"
)

// Sequence names used for human-readable numbers.
const (
	SequenceOrders   = "orders"
	SequenceTickets  = "tickets"
	SequenceInvoices = "invoices"
)

// Repository allocates monotonically increasing sequence values.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// NextSequence bumps the named counter and returns the new value.
	// The upsert is atomic, so concurrent checkouts never share a number.
	NextSequence(ctx context.Context, name string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sequence repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextSequence(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`, name,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
