package dto

import (
	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/service"
	"github.com/flexprice/taxledger/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ComputeTaxRequest asks for the tax of one invoice
type ComputeTaxRequest struct {
	Account *invoice.Account `json:"account" validate:"required"`
	// Invoice holds the taxable items
	Invoice *invoice.Invoice `json:"invoice" validate:"required"`
	// NewInvoice receives the tax items, defaults to Invoice
	NewInvoice   *invoice.Invoice       `json:"new_invoice,omitempty"`
	TaxableItems []*invoice.InvoiceItem `json:"taxable_items"`
	// AdjustmentItems are grouped by their linked_item_id
	AdjustmentItems []*invoice.InvoiceItem `json:"adjustment_items,omitempty"`
	DryRun          bool                   `json:"dry_run,omitempty"`
	Properties      map[string]string      `json:"properties,omitempty"`
}

func (r *ComputeTaxRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	for _, item := range r.TaxableItems {
		if err := item.Validate(); err != nil {
			return err
		}
		if !item.ItemType.IsTaxable() {
			return ierr.NewError("invoice item is not taxable").
				WithHintf("Item %s of type %s cannot be taxed", item.ID, item.ItemType).
				WithReportableDetails(map[string]any{
					"invoice_item_id": item.ID,
					"item_type":       item.ItemType,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	for _, item := range r.AdjustmentItems {
		if err := item.Validate(); err != nil {
			return err
		}
		if !item.ItemType.IsAdjustment() || item.LinkedItemID == "" {
			return ierr.NewError("invalid adjustment item").
				WithHintf("Item %s must be an adjustment linked to a taxable item", item.ID).
				WithReportableDetails(map[string]any{
					"invoice_item_id": item.ID,
					"item_type":       item.ItemType,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ToComputeParams converts the request for the given tenant
func (r *ComputeTaxRequest) ToComputeParams(tenantID string) *service.ComputeParams {
	newInvoice := r.NewInvoice
	if newInvoice == nil {
		newInvoice = r.Invoice
	}

	taxable := lo.KeyBy(r.TaxableItems, func(item *invoice.InvoiceItem) string { return item.ID })
	adjustments := lo.GroupBy(r.AdjustmentItems, func(item *invoice.InvoiceItem) string { return item.LinkedItemID })

	return &service.ComputeParams{
		TenantID:        tenantID,
		Account:         r.Account,
		NewInvoice:      newInvoice,
		Invoice:         r.Invoice,
		TaxableItems:    taxable,
		AdjustmentItems: adjustments,
		DryRun:          r.DryRun,
		Properties:      r.Properties,
	}
}

// ComputeTaxBatchRequest asks for the tax of several invoices
type ComputeTaxBatchRequest struct {
	Items []*ComputeTaxRequest `json:"items" validate:"required,min=1,max=100"`
}

func (r *ComputeTaxBatchRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	for _, item := range r.Items {
		if item == nil {
			return ierr.NewError("batch item is empty").
				WithHint("Every batch item must describe an invoice").
				Mark(ierr.ErrValidation)
		}
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type ComputeTaxResponse struct {
	InvoiceID string                 `json:"invoice_id"`
	TaxItems  []*invoice.InvoiceItem `json:"tax_items"`
	TotalTax  decimal.Decimal        `json:"total_tax"`
	DryRun    bool                   `json:"dry_run"`
	// Taxation is the ledger entry, absent when nothing was taxed
	Taxation *TaxationResponse `json:"taxation,omitempty"`
	// Error is set on batch items that could not be computed
	Error *ierr.ErrorDetail `json:"error,omitempty"`
}

func NewComputeTaxResponse(result *service.ComputeResult, dryRun bool) *ComputeTaxResponse {
	resp := &ComputeTaxResponse{
		InvoiceID: result.InvoiceID,
		TaxItems:  result.TaxItems,
		TotalTax: lo.Reduce(result.TaxItems, func(sum decimal.Decimal, item *invoice.InvoiceItem, _ int) decimal.Decimal {
			return sum.Add(item.Amount)
		}, decimal.Zero),
		DryRun: dryRun,
	}
	if result.Taxation != nil {
		resp.Taxation = NewTaxationResponse(result.Taxation)
	}
	if result.Error != nil {
		resp.Error = lo.ToPtr(ierr.NewErrorDetail(result.Error))
	}
	return resp
}

type ComputeTaxBatchResponse struct {
	Items []*ComputeTaxResponse `json:"items"`
}

type TaxationResponse struct {
	*taxation.Taxation
}

func NewTaxationResponse(t *taxation.Taxation) *TaxationResponse {
	return &TaxationResponse{Taxation: t}
}

type ListTaxationsResponse struct {
	Items []*TaxationResponse `json:"items"`
}
