package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/taxledger/internal/errors"
)

// InMemoryCatalog implements catalog.Lookup over a plan name to product name map
type InMemoryCatalog struct {
	mu       sync.Mutex
	products map[string]string
	err      error
	calls    map[string]int
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		products: make(map[string]string),
		calls:    make(map[string]int),
	}
}

func (c *InMemoryCatalog) AddPlan(planName, productName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[planName] = productName
}

// Fail makes every subsequent lookup return err; nil restores normal behaviour
func (c *InMemoryCatalog) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns how many times the plan was looked up
func (c *InMemoryCatalog) Calls(planName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[planName]
}

func (c *InMemoryCatalog) ProductForPlan(ctx context.Context, tenantID, planName string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[planName]++
	if c.err != nil {
		return "", c.err
	}
	product, ok := c.products[planName]
	if !ok {
		return "", ierr.NewError("plan not found").
			WithHintf("Plan %s not found in catalog", planName).
			Mark(ierr.ErrNotFound)
	}
	return product, nil
}
