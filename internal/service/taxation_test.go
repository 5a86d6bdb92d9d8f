package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	"github.com/flexprice/taxledger/internal/domain/taxcode"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/testutil"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TaxationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service TaxationService
	account *invoice.Account
}

func TestTaxationService(t *testing.T) {
	suite.Run(t, new(TaxationServiceSuite))
}

func (s *TaxationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = s.newService(stores.TaxationRepo)

	stores.Catalog.AddPlan("basic", "software")
	s.NoError(stores.TaxCodeRepo.Upsert(s.GetContext(), &taxcode.TaxCode{
		TenantID:    testutil.DefaultTenantID,
		TaxZone:     "NZ",
		ProductName: "software",
		TaxCode:     "GST",
		TaxRate:     decimal.RequireFromString("0.15"),
		ValidFrom:   time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
	s.account = &invoice.Account{ID: "acct_1", Country: "NZ"}
}

func (s *TaxationServiceSuite) newService(ledger taxation.Repository) TaxationService {
	stores := s.GetStores()
	configs := NewTaxConfigProvider(s.GetConfig(), s.GetCache(), s.GetLogger())
	return NewTaxationService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		Clock:             s.GetClock(),
		TaxCodeRepo:       stores.TaxCodeRepo,
		TaxationRepo:      ledger,
		Catalog:           stores.Catalog,
		TaxConfigs:        configs,
		TaxResolvers:      NewTaxResolvers(configs, s.GetLogger()),
		TaxationPublisher: s.GetPublisher(),
	})
}

func (s *TaxationServiceSuite) params(invoiceID string, amount string) *ComputeParams {
	inv := &invoice.Invoice{
		ID:          invoiceID,
		AccountID:   s.account.ID,
		InvoiceDate: lo.ToPtr(invoice.Date(2017, time.September, 1)),
	}
	item := &invoice.InvoiceItem{
		ID:        invoiceID + "_item",
		InvoiceID: invoiceID,
		AccountID: s.account.ID,
		ItemType:  types.InvoiceItemTypeRecurring,
		PlanName:  "basic",
		Amount:    decimal.RequireFromString(amount),
		EndDate:   lo.ToPtr(invoice.Date(2017, time.August, 31)),
	}
	return &ComputeParams{
		Account:      s.account,
		NewInvoice:   inv,
		Invoice:      inv,
		TaxableItems: map[string]*invoice.InvoiceItem{item.ID: item},
	}
}

func (s *TaxationServiceSuite) TestComputeRecordsAndPublishes() {
	result, err := s.service.Compute(s.GetContext(), s.params("inv_1", "100"))
	s.Require().NoError(err)

	s.Len(result.TaxItems, 1)
	s.Require().NotNil(result.Taxation)
	s.Equal(testutil.DefaultTenantID, result.Taxation.TenantID)
	s.Equal("15.00", result.Taxation.TotalTax.StringFixed(2))

	events := s.GetPublisher().Events()
	s.Require().Len(events, 1)
	s.Equal("inv_1", events[0].InvoiceID)
	s.Equal([]string{result.TaxItems[0].ID}, events[0].TaxItemIDs)
	s.True(events[0].TotalTax.Equal(result.Taxation.TotalTax))

	again, err := s.service.Compute(s.GetContext(), s.params("inv_1", "100"))
	s.Require().NoError(err)
	s.Empty(again.TaxItems)
	s.Nil(again.Taxation)
	s.Len(s.GetPublisher().Events(), 1)
}

func (s *TaxationServiceSuite) TestDryRunDoesNotPersist() {
	params := s.params("inv_1", "100")
	params.DryRun = true

	result, err := s.service.Compute(s.GetContext(), params)
	s.Require().NoError(err)
	s.Len(result.TaxItems, 1)
	s.NotNil(result.Taxation)
	s.Empty(s.GetStores().TaxationRepo.All())
	s.Empty(s.GetPublisher().Events())

	params.DryRun = false
	result, err = s.service.Compute(s.GetContext(), params)
	s.Require().NoError(err)
	s.Len(result.TaxItems, 1)
	s.Len(s.GetStores().TaxationRepo.All(), 1)
}

func (s *TaxationServiceSuite) TestPublishFailureKeepsResult() {
	s.GetPublisher().Fail(ierr.NewError("broker down").Mark(ierr.ErrSystem))

	result, err := s.service.Compute(s.GetContext(), s.params("inv_1", "100"))
	s.Require().NoError(err)
	s.Len(result.TaxItems, 1)
	s.Len(s.GetStores().TaxationRepo.All(), 1)
}

func (s *TaxationServiceSuite) TestComputeRequiresInvoice() {
	params := s.params("inv_1", "100")
	params.Invoice = nil

	_, err := s.service.Compute(s.GetContext(), params)
	s.True(ierr.IsValidation(err))
}

func (s *TaxationServiceSuite) TestConcurrentComputeTaxesOnce() {
	var wg sync.WaitGroup
	results := make([]*ComputeResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.service.Compute(s.GetContext(), s.params("inv_1", "100"))
			s.NoError(err)
			results[i] = result
		}()
	}
	wg.Wait()

	produced := lo.SumBy(results, func(r *ComputeResult) int { return len(r.TaxItems) })
	s.Equal(1, produced)
	s.Len(s.GetStores().TaxationRepo.All(), 1)
}

func (s *TaxationServiceSuite) TestComputeDoesNotModifyParams() {
	params := s.params("inv_1", "100")

	result, err := s.service.Compute(s.GetContext(), params)
	s.Require().NoError(err)
	s.Equal(testutil.DefaultTenantID, result.Taxation.TenantID)
	s.Empty(params.TenantID)
}

func (s *TaxationServiceSuite) TestCancelAfterRecordKeepsItems() {
	ctx, cancel := context.WithCancel(s.GetContext())
	defer cancel()
	s.service = s.newService(&cancellingTaxationStore{
		InMemoryTaxationStore: s.GetStores().TaxationRepo,
		cancel:                cancel,
	})

	result, err := s.service.Compute(ctx, s.params("inv_1", "100"))
	s.Require().NoError(err)
	s.Require().Len(result.TaxItems, 1)
	s.Equal("15.00", result.TaxItems[0].Amount.StringFixed(2))
	s.Require().NotNil(result.Taxation)
	s.Len(s.GetStores().TaxationRepo.All(), 1)
	s.Len(s.GetPublisher().Events(), 1)
}

func (s *TaxationServiceSuite) TestCancelBeforeRecordFails() {
	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	_, err := s.service.Compute(ctx, s.params("inv_1", "100"))
	s.Error(err)
	s.Empty(s.GetStores().TaxationRepo.All())
}

func (s *TaxationServiceSuite) TestComputeBatch() {
	batch := []*ComputeParams{
		s.params("inv_1", "100"),
		s.params("inv_2", "40"),
		s.params("inv_3", "10"),
	}

	results := s.service.ComputeBatch(s.GetContext(), batch)
	s.Require().Len(results, 3)
	s.Equal([]string{"inv_1", "inv_2", "inv_3"}, lo.Map(results, func(r *ComputeResult, _ int) string { return r.InvoiceID }))
	for _, r := range results {
		s.NoError(r.Error)
	}
	s.Equal("6.00", results[1].TaxItems[0].Amount.StringFixed(2))
	s.Len(s.GetPublisher().Events(), 3)
}

func (s *TaxationServiceSuite) TestComputeBatchKeepsSuccessfulResults() {
	invalid := s.params("inv_2", "40")
	invalid.Account = nil

	results := s.service.ComputeBatch(s.GetContext(), []*ComputeParams{s.params("inv_1", "100"), invalid})
	s.Require().Len(results, 2)

	s.NoError(results[0].Error)
	s.Require().Len(results[0].TaxItems, 1)
	s.Equal("15.00", results[0].TaxItems[0].Amount.StringFixed(2))

	s.Equal("inv_2", results[1].InvoiceID)
	s.True(ierr.IsValidation(results[1].Error))
	s.Empty(results[1].TaxItems)

	s.Len(s.GetStores().TaxationRepo.All(), 1)
}

func (s *TaxationServiceSuite) TestComputeBatchCancelled() {
	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	results := s.service.ComputeBatch(ctx, []*ComputeParams{s.params("inv_1", "100")})
	s.Require().Len(results, 1)
	s.Error(results[0].Error)
	s.Equal("inv_1", results[0].InvoiceID)
}

func (s *TaxationServiceSuite) TestListTaxations() {
	_, err := s.service.Compute(s.GetContext(), s.params("inv_1", "100"))
	s.Require().NoError(err)

	entries, err := s.service.ListTaxations(s.GetContext(), "", s.account.ID, "inv_1")
	s.Require().NoError(err)
	s.Len(entries, 1)

	_, err = s.service.ListTaxations(s.GetContext(), "", s.account.ID, "")
	s.True(ierr.IsValidation(err))
}

// cancellingTaxationStore ends the caller's context right after storing an entry
type cancellingTaxationStore struct {
	*testutil.InMemoryTaxationStore
	cancel context.CancelFunc
}

func (c *cancellingTaxationStore) Append(ctx context.Context, entry *taxation.Taxation) error {
	err := c.InMemoryTaxationStore.Append(ctx, entry)
	c.cancel()
	return err
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlock := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		locks.Lock("a")()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}
	locks.Lock("b")()

	unlock()
	<-done
	assert.Zero(t, locks.size())
}
