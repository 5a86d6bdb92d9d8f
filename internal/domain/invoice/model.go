package invoice

import (
	"time"

	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/shopspring/decimal"
)

// Account is the billing account an invoice belongs to, as seen by tax computation.
type Account struct {
	ID string `json:"id" validate:"required"`
	// Country is an ISO country code, used as a fallback tax zone
	Country string `json:"country,omitempty"`
	// TimeZone is an IANA zone name; date-only values are interpreted in it
	TimeZone     string            `json:"time_zone,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// CustomField returns the value of the named custom field, or "" when unset
func (a *Account) CustomField(name string) string {
	if a == nil {
		return ""
	}
	return a.CustomFields[name]
}

// Location resolves the account time zone, returning fallback when unset or unknown
func (a *Account) Location(fallback *time.Location) *time.Location {
	if a == nil || a.TimeZone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return fallback
	}
	return loc
}

// Invoice is the header of an invoice. InvoiceDate and TargetDate are
// calendar dates; only their year, month and day are meaningful.
type Invoice struct {
	ID          string     `json:"id" validate:"required"`
	AccountID   string     `json:"account_id"`
	InvoiceDate *time.Time `json:"invoice_date,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Currency    string     `json:"currency,omitempty"`
}

// InvoiceItem is a single invoice line. StartDate and EndDate are calendar dates.
type InvoiceItem struct {
	ID          string                `json:"id"`
	InvoiceID   string                `json:"invoice_id"`
	AccountID   string                `json:"account_id"`
	ItemType    types.InvoiceItemType `json:"item_type"`
	PlanName    string                `json:"plan_name,omitempty"`
	Description string                `json:"description,omitempty"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency,omitempty"`
	StartDate   *time.Time            `json:"start_date,omitempty"`
	EndDate     *time.Time            `json:"end_date,omitempty"`
	// LinkedItemID points at the item this one adjusts or taxes
	LinkedItemID string     `json:"linked_item_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	// TaxCode labels tax items with the code that produced them
	TaxCode string `json:"tax_code,omitempty"`
}

func (i *InvoiceItem) Validate() error {
	if i == nil || i.ID == "" {
		return ierr.NewError("invoice item id is required").
			WithHint("Every invoice item must carry an id").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Date builds a calendar date value
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight of the calendar date d in loc
func StartOfDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}
