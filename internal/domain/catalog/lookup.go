package catalog

import "context"

// Lookup resolves catalog information needed by tax computation.
type Lookup interface {
	// ProductForPlan returns the product name of the named plan. Unknown plans
	// return an error marked ierr.ErrNotFound.
	ProductForPlan(ctx context.Context, tenantID, planName string) (string, error)
}
