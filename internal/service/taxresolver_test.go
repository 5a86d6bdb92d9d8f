package service

import (
	"context"
	"sync"
	"testing"

	"github.com/flexprice/taxledger/internal/cache"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingConfigProvider counts how often tenant configuration is read
type countingConfigProvider struct {
	TaxConfigProvider
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingConfigProvider) Get(ctx context.Context, tenantID string) *TaxSettings {
	p.mu.Lock()
	p.calls[tenantID]++
	p.mu.Unlock()
	return p.TaxConfigProvider.Get(ctx, tenantID)
}

func newTestResolvers(t *testing.T, tax config.TaxConfig, opts ...ResolverOption) (*TaxResolvers, *countingConfigProvider) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Tax = tax
	provider := &countingConfigProvider{
		TaxConfigProvider: NewTaxConfigProvider(cfg, cache.NewInMemoryCache(cfg), logger.NewNopLogger()),
		calls:             make(map[string]int),
	}
	return NewTaxResolvers(provider, logger.NewNopLogger(), opts...), provider
}

func TestTaxResolversDefaults(t *testing.T) {
	resolvers, _ := newTestResolvers(t, config.TaxConfig{})
	ctx := context.Background()

	assert.IsType(t, &AccountCustomFieldTaxZoneResolver{}, resolvers.ZoneResolver(ctx, "tenant"))
	assert.IsType(t, &SimpleTaxDateResolver{}, resolvers.DateResolver(ctx, "tenant"))
}

func TestTaxResolversByName(t *testing.T) {
	resolvers, _ := newTestResolvers(t, config.TaxConfig{
		Defaults: map[string]any{"taxZoneResolver": "property"},
		Tenants: []config.TenantTaxConfig{
			{TenantID: "Tenant_B", Properties: map[string]any{"taxzoneresolver": "ACCOUNT_COUNTRY"}},
		},
	})
	ctx := context.Background()

	assert.IsType(t, &PropertyTaxZoneResolver{}, resolvers.ZoneResolver(ctx, "tenant_a"))
	assert.IsType(t, AccountCountryTaxZoneResolver{}, resolvers.ZoneResolver(ctx, "tenant_b"))
}

func TestTaxResolversUnknownNameFallsBack(t *testing.T) {
	resolvers, _ := newTestResolvers(t, config.TaxConfig{
		Defaults: map[string]any{
			"taxZoneResolver": "com.example.Missing",
			"taxDateResolver": "com.example.Missing",
		},
	})
	ctx := context.Background()

	assert.IsType(t, &AccountCustomFieldTaxZoneResolver{}, resolvers.ZoneResolver(ctx, "tenant"))
	assert.IsType(t, &SimpleTaxDateResolver{}, resolvers.DateResolver(ctx, "tenant"))
}

func TestTaxResolversCreatedOncePerTenant(t *testing.T) {
	resolvers, provider := newTestResolvers(t, config.TaxConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]TaxZoneResolver, 32)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = resolvers.ZoneResolver(ctx, "tenant")
		}()
	}
	wg.Wait()

	for _, r := range got {
		assert.Same(t, got[0], r)
	}
	assert.Equal(t, 1, provider.calls["tenant"])

	other := resolvers.ZoneResolver(ctx, "other")
	assert.NotSame(t, got[0], other)
	assert.Equal(t, 1, provider.calls["other"])
}

func TestTaxResolversOverrides(t *testing.T) {
	global := AccountCountryTaxZoneResolver{}
	tenant := &PropertyTaxZoneResolver{}
	date := &SimpleTaxDateResolver{Mode: DateModeInvoice}

	resolvers, provider := newTestResolvers(t, config.TaxConfig{},
		WithTaxZoneResolver("", global),
		WithTaxZoneResolver("special", tenant),
		WithTaxDateResolver("special", date),
	)
	ctx := context.Background()

	assert.Equal(t, global, resolvers.ZoneResolver(ctx, "anyone"))
	assert.Same(t, tenant, resolvers.ZoneResolver(ctx, "special"))
	assert.Same(t, date, resolvers.DateResolver(ctx, "special"))

	require.IsType(t, &SimpleTaxDateResolver{}, resolvers.DateResolver(ctx, "anyone"))
	assert.Equal(t, 1, provider.calls["anyone"])
	assert.Zero(t, provider.calls["special"])
}
