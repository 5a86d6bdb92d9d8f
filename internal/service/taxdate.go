package service

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/invoice"
)

// DateMode selects which item date determines the applicable tax rate
type DateMode string

const (
	DateModeInvoice      DateMode = "invoice"
	DateModeStart        DateMode = "start"
	DateModeStartThenEnd DateMode = "startthenend"
	DateModeEnd          DateMode = "end"
	DateModeEndThenStart DateMode = "endthenstart"
)

// ParseDateMode maps a configured value to a mode; unknown values give DateModeEndThenStart
func ParseDateMode(s string) DateMode {
	switch m := DateMode(strings.ToLower(strings.TrimSpace(s))); m {
	case DateModeInvoice, DateModeStart, DateModeStartThenEnd, DateModeEnd:
		return m
	default:
		return DateModeEndThenStart
	}
}

// SimpleTaxDateResolver picks the tax date from the item's service period,
// then optionally the invoice date, the item creation time and the invoice
// creation time. Calendar dates resolve to the start of day in the account
// time zone, or DefaultLocation when the account has none.
type SimpleTaxDateResolver struct {
	Mode                             DateMode
	FallBackToInvoiceDate            bool
	FallBackToInvoiceItemCreatedDate bool
	FallBackToInvoiceCreatedDate     bool
	DefaultLocation                  *time.Location
}

func NewSimpleTaxDateResolver(props config.TaxProperties) TaxDateResolver {
	loc, err := time.LoadLocation(props.GetOrDefault(config.TaxPropertyDefaultTimeZone, "UTC"))
	if err != nil {
		loc = time.UTC
	}
	return &SimpleTaxDateResolver{
		Mode:                             ParseDateMode(props.Get(config.TaxPropertyDateMode)),
		FallBackToInvoiceDate:            props.Bool(config.TaxPropertyFallBackToInvoiceDate, true),
		FallBackToInvoiceItemCreatedDate: props.Bool(config.TaxPropertyFallBackToInvoiceItemCreatedDate, true),
		FallBackToInvoiceCreatedDate:     props.Bool(config.TaxPropertyFallBackToInvoiceCreatedDate, true),
		DefaultLocation:                  loc,
	}
}

func (r *SimpleTaxDateResolver) TaxDateForInvoiceItem(
	_ context.Context,
	_ string,
	account *invoice.Account,
	inv *invoice.Invoice,
	item *invoice.InvoiceItem,
	_ map[string]string,
) (*time.Time, error) {
	if item == nil {
		return nil, nil
	}

	var date *time.Time
	switch r.Mode {
	case DateModeInvoice:
		date = invoiceDate(inv)
	case DateModeStart:
		date = item.StartDate
	case DateModeStartThenEnd:
		date = firstDate(item.StartDate, item.EndDate)
	case DateModeEnd:
		date = item.EndDate
	default:
		date = firstDate(item.EndDate, item.StartDate)
	}

	if date == nil && r.FallBackToInvoiceDate {
		date = invoiceDate(inv)
	}
	if date != nil {
		defaultLoc := r.DefaultLocation
		if defaultLoc == nil {
			defaultLoc = time.UTC
		}
		t := invoice.StartOfDay(*date, account.Location(defaultLoc))
		return &t, nil
	}

	if r.FallBackToInvoiceItemCreatedDate && item.CreatedAt != nil {
		return item.CreatedAt, nil
	}
	if r.FallBackToInvoiceCreatedDate && inv != nil && inv.CreatedAt != nil {
		return inv.CreatedAt, nil
	}
	return nil, nil
}

func invoiceDate(inv *invoice.Invoice) *time.Time {
	if inv == nil {
		return nil
	}
	return inv.InvoiceDate
}

func firstDate(dates ...*time.Time) *time.Time {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}
	return nil
}
