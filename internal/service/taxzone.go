package service

import (
	"context"
	"strings"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/invoice"
)

const (
	// TaxZoneCustomField is the account custom field holding an explicit tax zone
	TaxZoneCustomField = "taxCode"
	// TaxZoneProperty is the request property holding an explicit tax zone
	TaxZoneProperty = "taxZone"
)

// AccountCustomFieldTaxZoneResolver takes the zone from the account's taxCode
// custom field, falling back to the account country unless disabled.
type AccountCustomFieldTaxZoneResolver struct {
	UseAccountCountry bool
}

func NewAccountCustomFieldTaxZoneResolver(props config.TaxProperties) TaxZoneResolver {
	return &AccountCustomFieldTaxZoneResolver{
		UseAccountCountry: strings.EqualFold(props.GetOrDefault(config.TaxPropertyUseAccountCountry, "true"), "true"),
	}
}

func (r *AccountCustomFieldTaxZoneResolver) TaxZoneForInvoice(
	_ context.Context,
	_ string,
	account *invoice.Account,
	_ *invoice.Invoice,
	_ map[string]string,
) (string, error) {
	if account == nil {
		return "", nil
	}
	if zone := account.CustomField(TaxZoneCustomField); zone != "" {
		return zone, nil
	}
	if r.UseAccountCountry {
		return account.Country, nil
	}
	return "", nil
}

// AccountCountryTaxZoneResolver uses the account country as the zone
type AccountCountryTaxZoneResolver struct{}

func NewAccountCountryTaxZoneResolver(config.TaxProperties) TaxZoneResolver {
	return AccountCountryTaxZoneResolver{}
}

func (AccountCountryTaxZoneResolver) TaxZoneForInvoice(
	_ context.Context,
	_ string,
	account *invoice.Account,
	_ *invoice.Invoice,
	_ map[string]string,
) (string, error) {
	if account == nil {
		return "", nil
	}
	return account.Country, nil
}

// PropertyTaxZoneResolver takes the zone from the taxZone request property and
// defers to Fallback when the property is absent.
type PropertyTaxZoneResolver struct {
	Fallback TaxZoneResolver
}

func NewPropertyTaxZoneResolver(props config.TaxProperties) TaxZoneResolver {
	return &PropertyTaxZoneResolver{
		Fallback: NewAccountCustomFieldTaxZoneResolver(props),
	}
}

func (r *PropertyTaxZoneResolver) TaxZoneForInvoice(
	ctx context.Context,
	tenantID string,
	account *invoice.Account,
	inv *invoice.Invoice,
	props map[string]string,
) (string, error) {
	if zone := strings.TrimSpace(props[TaxZoneProperty]); zone != "" {
		return zone, nil
	}
	if r.Fallback == nil {
		return "", nil
	}
	return r.Fallback.TaxZoneForInvoice(ctx, tenantID, account, inv, props)
}
