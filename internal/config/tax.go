package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flexprice/taxledger/internal/types"
)

// Tax property keys. Lookups are case insensitive since viper lowercases map keys.
const (
	TaxPropertyZoneResolver = "taxZoneResolver"
	TaxPropertyDateResolver = "taxDateResolver"
	TaxPropertyScale        = "taxScale"
	TaxPropertyRoundingMode = "taxRoundingMode"

	TaxPropertyUseAccountCountry = "accountCustomFieldTaxZoneResolver.useAccountCountry"

	TaxPropertyDateMode                         = "simpleTaxDateResolver.dateMode"
	TaxPropertyFallBackToInvoiceDate            = "simpleTaxDateResolver.fallBackToInvoiceDate"
	TaxPropertyFallBackToInvoiceItemCreatedDate = "simpleTaxDateResolver.fallBackToInvoiceItemCreatedDate"
	TaxPropertyFallBackToInvoiceCreatedDate     = "simpleTaxDateResolver.fallBackToInvoiceCreatedDate"
	TaxPropertyDefaultTimeZone                  = "simpleTaxDateResolver.defaultTimeZone"
)

type TaxConfig struct {
	// Defaults apply to every tenant. Nested maps are flattened into dotted keys.
	Defaults map[string]any
	// Tenants override Defaults property by property
	Tenants []TenantTaxConfig
	// BatchConcurrency bounds the number of invoices computed in parallel by a batch
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

type TenantTaxConfig struct {
	TenantID   string `mapstructure:"tenant_id" validate:"required"`
	Properties map[string]any
}

// PropertiesFor layers the tenant overrides, if any, on top of the defaults.
func (c TaxConfig) PropertiesFor(tenantID string) TaxProperties {
	layers := []map[string]any{c.Defaults}
	for _, t := range c.Tenants {
		if strings.EqualFold(t.TenantID, tenantID) {
			layers = append(layers, t.Properties)
		}
	}
	return NewTaxProperties(layers...)
}

// TaxProperties is a read-only set of tax configuration values keyed case insensitively.
type TaxProperties map[string]string

// NewTaxProperties merges the given layers, later layers winning.
func NewTaxProperties(layers ...map[string]any) TaxProperties {
	p := make(TaxProperties)
	for _, layer := range layers {
		p.flatten("", layer)
	}
	return p
}

func (p TaxProperties) flatten(prefix string, values map[string]any) {
	for k, v := range values {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		switch nested := v.(type) {
		case map[string]any:
			p.flatten(key, nested)
		case map[string]string:
			for nk, nv := range nested {
				p[key+"."+strings.ToLower(nk)] = nv
			}
		case nil:
			delete(p, key)
		default:
			p[key] = fmt.Sprint(nested)
		}
	}
}

func (p TaxProperties) Get(key string) string {
	return strings.TrimSpace(p[strings.ToLower(key)])
}

func (p TaxProperties) GetOrDefault(key, def string) string {
	if v := p.Get(key); v != "" {
		return v
	}
	return def
}

// Bool returns def when the key is missing or not a boolean
func (p TaxProperties) Bool(key string, def bool) bool {
	v := p.Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// TaxScale returns the configured number of fractional digits for tax amounts.
// ok is false when a configured value had to be replaced by the default.
func (p TaxProperties) TaxScale() (scale int32, ok bool) {
	v := p.Get(TaxPropertyScale)
	if v == "" {
		return types.DefaultTaxScale, true
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return types.DefaultTaxScale, false
	}
	return int32(n), true
}

// TaxRoundingMode returns the configured rounding mode.
// ok is false when a configured value had to be replaced by the default.
func (p TaxProperties) TaxRoundingMode() (mode types.RoundingMode, ok bool) {
	v := p.Get(TaxPropertyRoundingMode)
	if v == "" {
		return types.DefaultRoundingMode, true
	}
	return types.ParseRoundingMode(v)
}
