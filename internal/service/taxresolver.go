package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/flexprice/taxledger/internal/logger"
)

// TaxZoneResolver determines the tax zone of an invoice. An empty zone means
// the invoice is not taxable. Implementations must be safe for concurrent use.
type TaxZoneResolver interface {
	TaxZoneForInvoice(ctx context.Context, tenantID string, account *invoice.Account, inv *invoice.Invoice, props map[string]string) (string, error)
}

// TaxDateResolver determines the instant used to select tax rates for an item.
// A nil date means unknown. Implementations must be safe for concurrent use.
type TaxDateResolver interface {
	TaxDateForInvoiceItem(ctx context.Context, tenantID string, account *invoice.Account, inv *invoice.Invoice, item *invoice.InvoiceItem, props map[string]string) (*time.Time, error)
}

type (
	TaxZoneResolverFactory func(props config.TaxProperties) TaxZoneResolver
	TaxDateResolverFactory func(props config.TaxProperties) TaxDateResolver
)

const (
	ZoneResolverAccountCustomField = "account_custom_field"
	ZoneResolverAccountCountry     = "account_country"
	ZoneResolverProperty           = "property"

	DateResolverSimple = "simple"
)

var (
	taxZoneResolverFactories = map[string]TaxZoneResolverFactory{
		ZoneResolverAccountCustomField: NewAccountCustomFieldTaxZoneResolver,
		ZoneResolverAccountCountry:     NewAccountCountryTaxZoneResolver,
		ZoneResolverProperty:           NewPropertyTaxZoneResolver,
	}
	taxDateResolverFactories = map[string]TaxDateResolverFactory{
		DateResolverSimple: NewSimpleTaxDateResolver,
	}
)

// resolverCache holds one value per tenant, created on first use and kept for
// the lifetime of the cache.
type resolverCache[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

func newResolverCache[T any]() *resolverCache[T] {
	return &resolverCache[T]{items: make(map[string]T)}
}

// getOrCreate returns the tenant's value, calling create at most once per tenant
func (c *resolverCache[T]) getOrCreate(tenantID string, create func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[tenantID]; ok {
		return v
	}
	v := create()
	c.items[tenantID] = v
	return v
}

// ResolverOption registers a resolver that takes precedence over configuration
type ResolverOption func(*TaxResolvers)

// WithTaxZoneResolver makes r the zone resolver of tenantID, or of every tenant
// without its own override when tenantID is empty.
func WithTaxZoneResolver(tenantID string, r TaxZoneResolver) ResolverOption {
	return func(t *TaxResolvers) {
		t.zoneOverrides[tenantID] = r
	}
}

// WithTaxDateResolver makes r the date resolver of tenantID, or of every tenant
// without its own override when tenantID is empty.
func WithTaxDateResolver(tenantID string, r TaxDateResolver) ResolverOption {
	return func(t *TaxResolvers) {
		t.dateOverrides[tenantID] = r
	}
}

// TaxResolvers hands out the zone and date resolvers of each tenant. Resolvers
// named in configuration are built once per tenant and reused.
type TaxResolvers struct {
	configs TaxConfigProvider
	logger  *logger.Logger

	zoneOverrides map[string]TaxZoneResolver
	dateOverrides map[string]TaxDateResolver

	zones *resolverCache[TaxZoneResolver]
	dates *resolverCache[TaxDateResolver]
}

func NewTaxResolvers(configs TaxConfigProvider, logger *logger.Logger, opts ...ResolverOption) *TaxResolvers {
	t := &TaxResolvers{
		configs:       configs,
		logger:        logger,
		zoneOverrides: make(map[string]TaxZoneResolver),
		dateOverrides: make(map[string]TaxDateResolver),
		zones:         newResolverCache[TaxZoneResolver](),
		dates:         newResolverCache[TaxDateResolver](),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TaxResolvers) ZoneResolver(ctx context.Context, tenantID string) TaxZoneResolver {
	if r, ok := t.zoneOverrides[tenantID]; ok {
		return r
	}
	if r, ok := t.zoneOverrides[""]; ok {
		return r
	}
	return t.zones.getOrCreate(tenantID, func() TaxZoneResolver {
		props := t.configs.Get(ctx, tenantID).Properties
		name := props.GetOrDefault(config.TaxPropertyZoneResolver, ZoneResolverAccountCustomField)
		factory, ok := taxZoneResolverFactories[strings.ToLower(name)]
		if !ok {
			t.logger.Errorw("unknown tax zone resolver configured, using default",
				"tenant_id", tenantID,
				"tax_zone_resolver", name,
				"default", ZoneResolverAccountCustomField,
			)
			factory = NewAccountCustomFieldTaxZoneResolver
		}
		return factory(props)
	})
}

func (t *TaxResolvers) DateResolver(ctx context.Context, tenantID string) TaxDateResolver {
	if r, ok := t.dateOverrides[tenantID]; ok {
		return r
	}
	if r, ok := t.dateOverrides[""]; ok {
		return r
	}
	return t.dates.getOrCreate(tenantID, func() TaxDateResolver {
		props := t.configs.Get(ctx, tenantID).Properties
		name := props.GetOrDefault(config.TaxPropertyDateResolver, DateResolverSimple)
		factory, ok := taxDateResolverFactories[strings.ToLower(name)]
		if !ok {
			t.logger.Errorw("unknown tax date resolver configured, using default",
				"tenant_id", tenantID,
				"tax_date_resolver", name,
				"default", DateResolverSimple,
			)
			factory = NewSimpleTaxDateResolver
		}
		return factory(props)
	})
}
