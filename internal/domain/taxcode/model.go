package taxcode

import (
	"fmt"
	"time"

	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/shopspring/decimal"
)

// TaxCode is a tax rate applicable to a product within a tax zone over a validity window.
type TaxCode struct {
	RecordID    int64           `db:"record_id" json:"-"`
	TenantID    string          `db:"tenant_id" json:"tenant_id"`
	TaxZone     string          `db:"tax_zone" json:"tax_zone"`
	ProductName string          `db:"product_name" json:"product_name"`
	TaxCode     string          `db:"tax_code" json:"tax_code"`
	TaxRate     decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	// ValidFrom is inclusive
	ValidFrom time.Time `db:"valid_from" json:"valid_from"`
	// ValidTo is exclusive; nil means open ended
	ValidTo   *time.Time `db:"valid_to" json:"valid_to,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IsValidAt reports whether t falls within [ValidFrom, ValidTo)
func (c *TaxCode) IsValidAt(t time.Time) bool {
	if t.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || t.Before(*c.ValidTo)
}

// Key is the record identity used for upserts
func (c *TaxCode) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", c.TenantID, c.TaxZone, c.ProductName, c.TaxCode, c.ValidFrom.UnixNano())
}

func (c *TaxCode) Validate() error {
	if c.TenantID == "" || c.TaxZone == "" || c.TaxCode == "" {
		return ierr.NewError("tenant_id, tax_zone and tax_code are required").
			WithHint("Tax code is missing required fields").
			WithReportableDetails(map[string]any{
				"tax_zone": c.TaxZone,
				"tax_code": c.TaxCode,
			}).
			Mark(ierr.ErrValidation)
	}
	if c.TaxRate.IsNegative() {
		return ierr.NewError("tax_rate must not be negative").
			WithHint("Tax rate must not be negative").
			WithReportableDetails(map[string]any{
				"tax_code": c.TaxCode,
				"tax_rate": c.TaxRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if c.ValidFrom.IsZero() {
		return ierr.NewError("valid_from is required").
			WithHint("Tax code must have a start of validity").
			Mark(ierr.ErrValidation)
	}
	if c.ValidTo != nil && !c.ValidTo.After(c.ValidFrom) {
		return ierr.NewError("valid_to must be after valid_from").
			WithHint("Tax code validity window is empty").
			WithReportableDetails(map[string]any{
				"valid_from": c.ValidFrom,
				"valid_to":   *c.ValidTo,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Copy returns a snapshot that shares no pointers with c
func (c *TaxCode) Copy() *TaxCode {
	if c == nil {
		return nil
	}
	copied := *c
	if c.ValidTo != nil {
		validTo := *c.ValidTo
		copied.ValidTo = &validTo
	}
	return &copied
}
