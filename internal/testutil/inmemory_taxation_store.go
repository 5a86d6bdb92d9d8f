package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/flexprice/taxledger/internal/domain/taxation"
	"github.com/samber/lo"
)

// InMemoryTaxationStore implements taxation.Repository
type InMemoryTaxationStore struct {
	*InMemoryStore[*taxation.Taxation]

	mu        sync.Mutex
	nextID    int64
	appendErr error
	findErr   error
}

func NewInMemoryTaxationStore() *InMemoryTaxationStore {
	return &InMemoryTaxationStore{
		InMemoryStore: NewInMemoryStore[*taxation.Taxation](),
	}
}

// FailAppend makes every subsequent Append return err; nil restores normal behaviour
func (s *InMemoryTaxationStore) FailAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// FailFind makes every subsequent Find return err; nil restores normal behaviour
func (s *InMemoryTaxationStore) FailFind(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErr = err
}

type taxationKey struct {
	tenantID, accountID, invoiceID string
}

func taxationFilterFn(ctx context.Context, t *taxation.Taxation, filter interface{}) bool {
	k, ok := filter.(taxationKey)
	if !ok {
		return true
	}
	return t.TenantID == k.tenantID && t.AccountID == k.accountID && t.InvoiceID == k.invoiceID
}

func (s *InMemoryTaxationStore) Append(ctx context.Context, entry *taxation.Taxation) error {
	s.mu.Lock()
	if s.appendErr != nil {
		err := s.appendErr
		s.mu.Unlock()
		return err
	}
	s.nextID++
	entry.RecordID = s.nextID
	s.mu.Unlock()

	return s.InMemoryStore.Create(ctx, strconv.FormatInt(entry.RecordID, 10), entry.Copy())
}

func (s *InMemoryTaxationStore) Find(ctx context.Context, tenantID, accountID, invoiceID string) ([]*taxation.Taxation, error) {
	s.mu.Lock()
	findErr := s.findErr
	s.mu.Unlock()
	if findErr != nil {
		return nil, findErr
	}

	entries, err := s.InMemoryStore.List(ctx, taxationKey{tenantID, accountID, invoiceID}, taxationFilterFn,
		func(i, j *taxation.Taxation) bool { return i.RecordID < j.RecordID })
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(t *taxation.Taxation, _ int) *taxation.Taxation { return t.Copy() }), nil
}

// All returns every stored entry in record order
func (s *InMemoryTaxationStore) All() []*taxation.Taxation {
	entries, _ := s.InMemoryStore.List(context.Background(), nil, nil,
		func(i, j *taxation.Taxation) bool { return i.RecordID < j.RecordID })
	return entries
}
