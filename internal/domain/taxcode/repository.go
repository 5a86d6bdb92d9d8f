package taxcode

import (
	"context"

	"github.com/flexprice/taxledger/internal/types"
)

// Repository stores tax codes. Find is the rate lookup used during tax computation.
type Repository interface {
	// Find returns the codes matching the filter. With AsOf set only codes valid at
	// that instant are returned, newest ValidFrom first; otherwise in record order.
	Find(ctx context.Context, filter *types.TaxCodeFilter) ([]*TaxCode, error)
	// Upsert inserts the code or replaces the record with the same identity
	Upsert(ctx context.Context, code *TaxCode) error
	// UpsertBatch applies Upsert to every code atomically
	UpsertBatch(ctx context.Context, codes []*TaxCode) error
	// Remove deletes the codes matching the filter and returns how many were removed.
	// AsOf is ignored.
	Remove(ctx context.Context, filter *types.TaxCodeFilter) (int64, error)
}
