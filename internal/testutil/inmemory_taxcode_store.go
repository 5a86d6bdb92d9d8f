package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/taxledger/internal/domain/taxcode"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/samber/lo"
)

// InMemoryTaxCodeStore implements taxcode.Repository
type InMemoryTaxCodeStore struct {
	*InMemoryStore[*taxcode.TaxCode]

	mu       sync.Mutex
	nextID   int64
	findErr  error
	findCall int
}

func NewInMemoryTaxCodeStore() *InMemoryTaxCodeStore {
	return &InMemoryTaxCodeStore{
		InMemoryStore: NewInMemoryStore[*taxcode.TaxCode](),
	}
}

// FailFind makes every subsequent Find return err; nil restores normal behaviour
func (s *InMemoryTaxCodeStore) FailFind(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErr = err
}

// FindCalls returns how many times Find was called
func (s *InMemoryTaxCodeStore) FindCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCall
}

func taxCodeFilterFn(ctx context.Context, c *taxcode.TaxCode, filter interface{}) bool {
	if c == nil {
		return false
	}

	f, ok := filter.(*types.TaxCodeFilter)
	if !ok {
		return true
	}

	if c.TenantID != f.TenantID {
		return false
	}
	if f.TaxZone != nil && c.TaxZone != *f.TaxZone {
		return false
	}
	if f.ProductName != nil && c.ProductName != *f.ProductName {
		return false
	}
	if f.TaxCode != nil && c.TaxCode != *f.TaxCode {
		return false
	}
	if f.AsOf != nil && !c.IsValidAt(*f.AsOf) {
		return false
	}
	return true
}

func (s *InMemoryTaxCodeStore) Find(ctx context.Context, filter *types.TaxCodeFilter) ([]*taxcode.TaxCode, error) {
	s.mu.Lock()
	s.findCall++
	findErr := s.findErr
	s.mu.Unlock()

	if findErr != nil {
		return nil, findErr
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	sortFn := func(i, j *taxcode.TaxCode) bool { return i.RecordID < j.RecordID }
	if filter.AsOf != nil {
		sortFn = func(i, j *taxcode.TaxCode) bool {
			if !i.ValidFrom.Equal(j.ValidFrom) {
				return i.ValidFrom.After(j.ValidFrom)
			}
			return i.RecordID < j.RecordID
		}
	}

	codes, err := s.InMemoryStore.List(ctx, filter, taxCodeFilterFn, sortFn)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to find tax codes").
			Mark(ierr.ErrDatabase)
	}
	return lo.Map(codes, func(c *taxcode.TaxCode, _ int) *taxcode.TaxCode { return c.Copy() }), nil
}

func (s *InMemoryTaxCodeStore) Upsert(ctx context.Context, code *taxcode.TaxCode) error {
	if err := code.Validate(); err != nil {
		return err
	}

	copied := code.Copy()
	if existing, err := s.InMemoryStore.Get(ctx, copied.Key()); err == nil {
		copied.RecordID = existing.RecordID
	} else {
		s.mu.Lock()
		s.nextID++
		copied.RecordID = s.nextID
		s.mu.Unlock()
	}
	code.RecordID = copied.RecordID

	s.InMemoryStore.Put(ctx, copied.Key(), copied)
	return nil
}

func (s *InMemoryTaxCodeStore) UpsertBatch(ctx context.Context, codes []*taxcode.TaxCode) error {
	for _, code := range codes {
		if err := code.Validate(); err != nil {
			return err
		}
	}
	for _, code := range codes {
		if err := s.Upsert(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryTaxCodeStore) Remove(ctx context.Context, filter *types.TaxCodeFilter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	f := *filter
	f.AsOf = nil
	return int64(s.InMemoryStore.DeleteWhere(ctx, &f, taxCodeFilterFn)), nil
}
