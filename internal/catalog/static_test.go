package catalog

import (
	"context"
	"testing"

	"github.com/flexprice/taxledger/internal/config"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalog_ProductForPlan(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Catalog.Plans = []config.CatalogPlan{
		{PlanName: "test-data-usage", ProductName: "Internet"},
		{TenantID: "Tenant-A", PlanName: "test-data-usage", ProductName: "Mobile"},
		{TenantID: "tenant-a", PlanName: "premium", ProductName: "Premium"},
	}
	c := NewStaticCatalog(cfg)
	ctx := context.Background()

	tests := []struct {
		name     string
		tenantID string
		plan     string
		want     string
		notFound bool
	}{
		{name: "shared mapping", tenantID: "tenant-b", plan: "test-data-usage", want: "Internet"},
		{name: "tenant mapping wins", tenantID: "tenant-a", plan: "test-data-usage", want: "Mobile"},
		{name: "tenant id is case insensitive", tenantID: "TENANT-A", plan: "premium", want: "Premium"},
		{name: "tenant only plan hidden from others", tenantID: "tenant-b", plan: "premium", notFound: true},
		{name: "unknown plan", tenantID: "tenant-a", plan: "missing", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ProductForPlan(ctx, tt.tenantID, tt.plan)
			if tt.notFound {
				require.Error(t, err)
				assert.True(t, ierr.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
