package service

import (
	"context"
	"sort"
	"time"

	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/flexprice/taxledger/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ComputeParams is the input of one tax computation
type ComputeParams struct {
	TenantID string           `validate:"required"`
	Account  *invoice.Account `validate:"required"`
	// NewInvoice receives the produced tax items
	NewInvoice *invoice.Invoice `validate:"required"`
	// Invoice holds the taxable items; ledger entries are keyed by it
	Invoice *invoice.Invoice `validate:"required"`
	// TaxableItems are keyed by item ID
	TaxableItems map[string]*invoice.InvoiceItem
	// AdjustmentItems are keyed by the ID of the taxable item they adjust
	AdjustmentItems map[string][]*invoice.InvoiceItem
	DryRun          bool
	// Properties are request scoped values handed to the resolvers
	Properties map[string]string
}

// TaxCalculator turns taxable and adjusted invoice items into tax items and
// records what it accounted for, so that running it again over the same
// invoice state produces nothing.
type TaxCalculator interface {
	// Compute never fails: any collaborator failure yields an empty result and
	// no ledger entry. The result is never nil.
	Compute(ctx context.Context, params *ComputeParams) []*invoice.InvoiceItem
}

type taxCalculator struct {
	ServiceParams
}

func NewTaxCalculator(params ServiceParams) TaxCalculator {
	return &taxCalculator{
		ServiceParams: params,
	}
}

// returnItem is a taxed item whose adjustments still need offsetting tax
type returnItem struct {
	item        *invoice.InvoiceItem
	adjustments []*invoice.InvoiceItem
}

// taxComputation is the state of a single Compute call
type taxComputation struct {
	params       *ComputeParams
	zone         string
	settings     *TaxSettings
	dateResolver TaxDateResolver
	itemDate     *time.Time
	now          time.Time
	// products memoizes catalog lookups by plan name
	products map[string]string
	log      *logger.Logger
}

func (s *taxCalculator) Compute(ctx context.Context, params *ComputeParams) []*invoice.InvoiceItem {
	if err := validator.ValidateRequest(params); err != nil {
		s.Logger.Warnw("invalid tax computation request", "error", err)
		return []*invoice.InvoiceItem{}
	}

	log := s.Logger.With(
		"tenant_id", params.TenantID,
		"account_id", params.Account.ID,
		"invoice_id", params.Invoice.ID,
	)

	zone, err := s.TaxResolvers.ZoneResolver(ctx, params.TenantID).
		TaxZoneForInvoice(ctx, params.TenantID, params.Account, params.Invoice, params.Properties)
	if err != nil {
		log.Warnw("failed to resolve tax zone", "error", err)
		return []*invoice.InvoiceItem{}
	}
	if zone == "" {
		log.Debugw("invoice has no tax zone, skipping")
		return []*invoice.InvoiceItem{}
	}

	prior, err := s.TaxationRepo.Find(ctx, params.TenantID, params.Account.ID, params.Invoice.ID)
	if err != nil {
		log.Warnw("failed to load taxations", "error", err)
		return []*invoice.InvoiceItem{}
	}
	alreadyTaxed := taxation.Merge(prior)

	sales, returns := classifyInvoiceItems(params.TaxableItems, params.AdjustmentItems, alreadyTaxed)
	if len(sales) == 0 && len(returns) == 0 {
		log.Debugw("invoice fully reconciled, nothing to tax")
		return []*invoice.InvoiceItem{}
	}

	comp := &taxComputation{
		params:       params,
		zone:         zone,
		settings:     s.TaxConfigs.Get(ctx, params.TenantID),
		dateResolver: s.TaxResolvers.DateResolver(ctx, params.TenantID),
		now:          s.Clock.Now(),
		products:     make(map[string]string),
		log:          log.With("tax_zone", zone),
	}
	comp.itemDate = params.NewInvoice.InvoiceDate
	if comp.itemDate == nil {
		today := invoice.StartOfDay(comp.now, time.UTC)
		comp.itemDate = &today
	}

	items := make([]*invoice.InvoiceItem, 0)
	for _, item := range sales {
		taxItems, err := s.taxItemsForInvoiceItem(ctx, comp, item, item.Amount)
		if err != nil {
			comp.log.Warnw("failed to compute tax", "error", err, "invoice_item_id", item.ID)
			return []*invoice.InvoiceItem{}
		}
		items = append(items, taxItems...)
	}
	for _, r := range returns {
		net := lo.Reduce(r.adjustments, func(sum decimal.Decimal, adj *invoice.InvoiceItem, _ int) decimal.Decimal {
			return sum.Add(adj.Amount)
		}, decimal.Zero)
		taxItems, err := s.taxItemsForInvoiceItem(ctx, comp, r.item, net)
		if err != nil {
			comp.log.Warnw("failed to compute tax on adjustments", "error", err, "invoice_item_id", r.item.ID)
			return []*invoice.InvoiceItem{}
		}
		items = append(items, taxItems...)
	}

	if len(items) == 0 {
		return items
	}

	entry := newTaxation(params, items, comp.now)
	if err := s.TaxationRepo.Append(ctx, entry); err != nil {
		comp.log.Errorw("failed to record taxation", "error", err)
		return []*invoice.InvoiceItem{}
	}

	comp.log.Infow("recorded taxation",
		"record_id", entry.RecordID,
		"total_tax", entry.TotalTax.String(),
		"tax_items", len(items),
		"dry_run", params.DryRun,
	)
	return items
}

// classifyInvoiceItems splits taxable items into sales, never taxed before, and
// returns, whose adjustments are not yet accounted for. An item can be both.
// Items are visited in ID order so the output is deterministic.
func classifyInvoiceItems(
	taxableItems map[string]*invoice.InvoiceItem,
	adjustmentItems map[string][]*invoice.InvoiceItem,
	alreadyTaxed taxation.ItemIDs,
) ([]*invoice.InvoiceItem, []returnItem) {
	ids := lo.Keys(taxableItems)
	sort.Strings(ids)

	sales := make([]*invoice.InvoiceItem, 0)
	returns := make([]returnItem, 0)
	for _, id := range ids {
		item := taxableItems[id]
		if item == nil {
			continue
		}

		taxedIDs, taxed := alreadyTaxed[id]
		if !taxed {
			sales = append(sales, item)
		}

		pending := lo.Filter(adjustmentItems[id], func(adj *invoice.InvoiceItem, _ int) bool {
			return adj != nil && (!taxed || !taxedIDs.Contains(adj.ID))
		})
		if len(pending) > 0 {
			returns = append(returns, returnItem{item: item, adjustments: pending})
		}
	}
	return sales, returns
}

func (s *taxCalculator) taxItemsForInvoiceItem(
	ctx context.Context,
	comp *taxComputation,
	item *invoice.InvoiceItem,
	net decimal.Decimal,
) ([]*invoice.InvoiceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tax computation was cancelled").
			Mark(ierr.ErrSystem)
	}

	params := comp.params
	taxDate, err := comp.dateResolver.TaxDateForInvoiceItem(ctx, params.TenantID, params.Account, params.NewInvoice, item, params.Properties)
	if err != nil {
		comp.log.Debugw("failed to resolve tax date, using current time", "error", err, "invoice_item_id", item.ID)
		taxDate = nil
	}
	if taxDate == nil {
		now := comp.now
		taxDate = &now
	}

	product := s.productForInvoiceItem(ctx, comp, item)
	codes, err := s.TaxCodeRepo.Find(ctx, &types.TaxCodeFilter{
		TenantID:    params.TenantID,
		TaxZone:     lo.ToPtr(comp.zone),
		ProductName: lo.ToPtr(product),
		AsOf:        taxDate,
	})
	if err != nil {
		return nil, err
	}

	taxItems := make([]*invoice.InvoiceItem, 0, len(codes))
	for _, code := range codes {
		amount, err := comp.settings.RoundingMode.Round(code.TaxRate.Mul(net), comp.settings.Scale)
		if err != nil {
			return nil, err
		}
		taxItems = append(taxItems, newTaxItem(item, params.NewInvoice.ID, comp.itemDate, amount, code.TaxCode, comp.now))
	}
	return taxItems, nil
}

// productForInvoiceItem resolves the product of the item's plan, "" when unknown
func (s *taxCalculator) productForInvoiceItem(ctx context.Context, comp *taxComputation, item *invoice.InvoiceItem) string {
	if item.PlanName == "" {
		return ""
	}
	if product, ok := comp.products[item.PlanName]; ok {
		return product
	}

	product, err := s.Catalog.ProductForPlan(ctx, comp.params.TenantID, item.PlanName)
	if err != nil {
		comp.log.Debugw("failed to resolve product for plan", "error", err, "plan_name", item.PlanName)
		product = ""
	}
	comp.products[item.PlanName] = product
	return product
}

// newTaxation builds the ledger entry for the produced items. The mapping starts
// from the current adjustments and adds every tax item under its taxable item.
func newTaxation(params *ComputeParams, items []*invoice.InvoiceItem, now time.Time) *taxation.Taxation {
	itemIDs := taxation.ItemIDs{}
	for taxableID, adjustments := range params.AdjustmentItems {
		if len(adjustments) == 0 {
			continue
		}
		itemIDs.Add(taxableID, lo.FilterMap(adjustments, func(adj *invoice.InvoiceItem, _ int) (string, bool) {
			if adj == nil {
				return "", false
			}
			return adj.ID, true
		})...)
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
		itemIDs.Add(item.LinkedItemID, item.ID)
	}

	return &taxation.Taxation{
		CreatedAt:      now,
		TenantID:       params.TenantID,
		AccountID:      params.Account.ID,
		InvoiceID:      params.Invoice.ID,
		TotalTax:       total,
		InvoiceItemIDs: itemIDs,
	}
}
