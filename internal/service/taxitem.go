package service

import (
	"time"

	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/shopspring/decimal"
)

// newTaxItem builds the tax line for taxableItem on the target invoice
func newTaxItem(
	taxableItem *invoice.InvoiceItem,
	invoiceID string,
	itemDate *time.Time,
	amount decimal.Decimal,
	taxCode string,
	now time.Time,
) *invoice.InvoiceItem {
	createdAt := now
	return &invoice.InvoiceItem{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_ITEM),
		InvoiceID:    invoiceID,
		AccountID:    taxableItem.AccountID,
		ItemType:     types.InvoiceItemTypeTax,
		PlanName:     taxableItem.PlanName,
		Description:  taxCode,
		Amount:       amount,
		Currency:     taxableItem.Currency,
		StartDate:    itemDate,
		EndDate:      itemDate,
		LinkedItemID: taxableItem.ID,
		CreatedAt:    &createdAt,
		TaxCode:      taxCode,
	}
}
