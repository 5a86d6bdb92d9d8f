package service

import (
	"context"
	"strings"

	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/sentry"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// ComputeResult is the outcome of one invoice computation
type ComputeResult struct {
	InvoiceID string
	TaxItems  []*invoice.InvoiceItem
	// Taxation is the recorded ledger entry, nil when nothing was produced.
	// On dry runs it is the entry that would have been recorded.
	Taxation *taxation.Taxation
	// Error is set on batch results whose invoice could not be computed
	Error error
}

// TaxationService runs tax computations on behalf of API callers
type TaxationService interface {
	Compute(ctx context.Context, params *ComputeParams) (*ComputeResult, error)
	ComputeBatch(ctx context.Context, params []*ComputeParams) []*ComputeResult
	ListTaxations(ctx context.Context, tenantID, accountID, invoiceID string) ([]*taxation.Taxation, error)
}

type taxationService struct {
	ServiceParams
	locks *keyedMutex
}

func NewTaxationService(params ServiceParams) TaxationService {
	return &taxationService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
	}
}

// Compute serializes computations per invoice, so that concurrent callers never
// record the same items twice, and publishes the recorded entry. Once an entry
// is stored its items are returned even if ctx ends, since a retry would find
// them already taxed.
func (s *taxationService) Compute(ctx context.Context, params *ComputeParams) (*ComputeResult, error) {
	if params == nil || params.Invoice == nil || params.Account == nil {
		return nil, ierr.NewError("account and invoice are required").
			WithHint("Please provide the account and the invoice to tax").
			Mark(ierr.ErrValidation)
	}
	req := *params
	if req.TenantID == "" {
		req.TenantID = types.GetTenantID(ctx)
	}

	unlock := s.locks.Lock(strings.Join([]string{req.TenantID, req.Account.ID, req.Invoice.ID}, ":"))
	defer unlock()

	span, ctx := s.Sentry.StartComputeSpan(ctx, req.TenantID, req.Invoice.ID, req.DryRun)

	ledger := &recordingLedger{Repository: s.TaxationRepo, dryRun: req.DryRun}
	calcParams := s.ServiceParams
	calcParams.TaxationRepo = ledger

	items := NewTaxCalculator(calcParams).Compute(ctx, &req)
	sentry.FinishSpan(span, len(items))

	persisted := ledger.recorded != nil && !req.DryRun
	if err := ctx.Err(); err != nil && !persisted {
		return nil, ierr.WithError(err).
			WithHint("Tax computation was cancelled").
			Mark(ierr.ErrSystem)
	}

	result := &ComputeResult{
		InvoiceID: req.Invoice.ID,
		TaxItems:  items,
		Taxation:  ledger.recorded,
	}
	if !persisted {
		return result, nil
	}

	// the entry is stored, so notifying must not depend on the caller staying around
	ctx = context.WithoutCancel(ctx)
	s.Sentry.AddBreadcrumb(ctx, "taxation", "recorded taxation", map[string]interface{}{
		"invoice_id": ledger.recorded.InvoiceID,
		"total_tax":  ledger.recorded.TotalTax.String(),
	})

	event := &taxation.RecordedEvent{
		EventID:   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		TenantID:  ledger.recorded.TenantID,
		AccountID: ledger.recorded.AccountID,
		InvoiceID: ledger.recorded.InvoiceID,
		TotalTax:  ledger.recorded.TotalTax,
		TaxItemIDs: lo.Map(items, func(item *invoice.InvoiceItem, _ int) string {
			return item.ID
		}),
		RecordedAt: ledger.recorded.CreatedAt,
	}
	if err := s.TaxationPublisher.PublishRecorded(ctx, event); err != nil {
		// the ledger entry is already stored, so the computation still succeeded
		s.Logger.Errorw("failed to publish taxation event",
			"error", err,
			"invoice_id", event.InvoiceID,
			"event_id", event.EventID,
		)
		s.Sentry.CaptureException(ctx, err)
	}
	return result, nil
}

// ComputeBatch computes invoices concurrently, bounded by the configured batch
// concurrency. Results keep the order of params. A failing invoice sets Error on
// its own result and never affects the others.
func (s *taxationService) ComputeBatch(ctx context.Context, params []*ComputeParams) []*ComputeResult {
	maxGoroutines := 1
	if s.Config != nil && s.Config.Tax.BatchConcurrency > 0 {
		maxGoroutines = s.Config.Tax.BatchConcurrency
	}

	results := make([]*ComputeResult, len(params))
	p := pool.New().WithMaxGoroutines(maxGoroutines)
	for i, req := range params {
		p.Go(func() {
			result, err := s.Compute(ctx, req)
			if err != nil {
				s.Logger.Warnw("failed to compute invoice tax in batch", "error", err, "batch_index", i)
				result = &ComputeResult{Error: err}
				if req != nil && req.Invoice != nil {
					result.InvoiceID = req.Invoice.ID
				}
			}
			results[i] = result
		})
	}
	p.Wait()
	return results
}

func (s *taxationService) ListTaxations(ctx context.Context, tenantID, accountID, invoiceID string) ([]*taxation.Taxation, error) {
	if accountID == "" || invoiceID == "" {
		return nil, ierr.NewError("account_id and invoice_id are required").
			WithHint("Please provide both account_id and invoice_id").
			Mark(ierr.ErrValidation)
	}
	if tenantID == "" {
		tenantID = types.GetTenantID(ctx)
	}
	return s.TaxationRepo.Find(ctx, tenantID, accountID, invoiceID)
}

// recordingLedger keeps the entry appended by a computation. On dry runs the
// entry is kept but never written.
type recordingLedger struct {
	taxation.Repository
	dryRun   bool
	recorded *taxation.Taxation
}

func (l *recordingLedger) Append(ctx context.Context, entry *taxation.Taxation) error {
	if !l.dryRun {
		if err := l.Repository.Append(ctx, entry); err != nil {
			return err
		}
	}
	l.recorded = entry
	return nil
}
