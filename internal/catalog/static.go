package catalog

import (
	"context"
	"strings"

	"github.com/flexprice/taxledger/internal/config"
	domainCatalog "github.com/flexprice/taxledger/internal/domain/catalog"
	ierr "github.com/flexprice/taxledger/internal/errors"
)

// StaticCatalog resolves products from the plan mappings in the configuration.
// Tenant specific mappings win over mappings without a tenant.
type StaticCatalog struct {
	tenantPlans map[string]map[string]string
	sharedPlans map[string]string
}

func NewStaticCatalog(cfg *config.Configuration) domainCatalog.Lookup {
	c := &StaticCatalog{
		tenantPlans: make(map[string]map[string]string),
		sharedPlans: make(map[string]string),
	}
	for _, p := range cfg.Catalog.Plans {
		if p.TenantID == "" {
			c.sharedPlans[p.PlanName] = p.ProductName
			continue
		}
		tenantID := strings.ToLower(p.TenantID)
		if c.tenantPlans[tenantID] == nil {
			c.tenantPlans[tenantID] = make(map[string]string)
		}
		c.tenantPlans[tenantID][p.PlanName] = p.ProductName
	}
	return c
}

func (c *StaticCatalog) ProductForPlan(_ context.Context, tenantID, planName string) (string, error) {
	if product, ok := c.tenantPlans[strings.ToLower(tenantID)][planName]; ok {
		return product, nil
	}
	if product, ok := c.sharedPlans[planName]; ok {
		return product, nil
	}
	return "", ierr.NewError("plan not found in catalog").
		WithHintf("Plan %s is not mapped to a product", planName).
		WithReportableDetails(map[string]any{
			"plan_name": planName,
		}).
		Mark(ierr.ErrNotFound)
}
