package service

import (
	"context"

	"github.com/flexprice/taxledger/internal/cache"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/types"
)

// TaxSettings is the validated tax configuration of one tenant
type TaxSettings struct {
	Properties   config.TaxProperties
	Scale        int32
	RoundingMode types.RoundingMode
}

// TaxConfigProvider resolves the tax configuration of a tenant
type TaxConfigProvider interface {
	Get(ctx context.Context, tenantID string) *TaxSettings
	// Invalidate drops any cached configuration of the tenant
	Invalidate(ctx context.Context, tenantID string)
}

type taxConfigProvider struct {
	cfg    *config.TaxConfig
	cache  cache.Cache
	logger *logger.Logger
}

func NewTaxConfigProvider(cfg *config.Configuration, c cache.Cache, logger *logger.Logger) TaxConfigProvider {
	return &taxConfigProvider{
		cfg:    &cfg.Tax,
		cache:  c,
		logger: logger,
	}
}

func (p *taxConfigProvider) Get(ctx context.Context, tenantID string) *TaxSettings {
	key := cache.GenerateKey(cache.PrefixTaxProperties, tenantID)
	if cached, ok := p.cache.Get(ctx, key); ok {
		if settings, ok := cached.(*TaxSettings); ok {
			return settings
		}
	}

	props := p.cfg.PropertiesFor(tenantID)
	scale, ok := props.TaxScale()
	if !ok {
		p.logger.Errorw("invalid tax scale configured, using default",
			"tenant_id", tenantID,
			"tax_scale", props.Get(config.TaxPropertyScale),
			"default", scale,
		)
	}
	mode, ok := props.TaxRoundingMode()
	if !ok {
		p.logger.Errorw("unknown tax rounding mode configured, using default",
			"tenant_id", tenantID,
			"tax_rounding_mode", props.Get(config.TaxPropertyRoundingMode),
			"default", mode,
		)
	}

	settings := &TaxSettings{
		Properties:   props,
		Scale:        scale,
		RoundingMode: mode,
	}
	p.cache.Set(ctx, key, settings, 0)
	return settings
}

func (p *taxConfigProvider) Invalidate(ctx context.Context, tenantID string) {
	p.cache.Delete(ctx, cache.GenerateKey(cache.PrefixTaxProperties, tenantID))
}
