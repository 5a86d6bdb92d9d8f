package types

import (
	"time"

	ierr "github.com/flexprice/taxledger/internal/errors"
)

// TaxCodeFilter narrows a tax code lookup. Nil fields do not filter; a non-nil
// empty string matches records stored with an empty value.
type TaxCodeFilter struct {
	TenantID    string
	TaxZone     *string
	ProductName *string
	TaxCode     *string
	// AsOf restricts the result to codes valid at the given instant
	AsOf *time.Time
}

func (f *TaxCodeFilter) Validate() error {
	if f == nil || f.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			WithHint("A tenant is required to look up tax codes").
			Mark(ierr.ErrValidation)
	}
	return nil
}
