package service

import (
	"context"
	"testing"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCustomFieldTaxZoneResolver(t *testing.T) {
	tests := []struct {
		name     string
		props    map[string]any
		account  *invoice.Account
		expected string
	}{
		{
			name:     "custom field wins over country",
			account:  &invoice.Account{ID: "a", Country: "NZ", CustomFields: map[string]string{TaxZoneCustomField: "NZ-AKL"}},
			expected: "NZ-AKL",
		},
		{
			name:     "falls back to country by default",
			account:  &invoice.Account{ID: "a", Country: "NZ"},
			expected: "NZ",
		},
		{
			name: "country fallback disabled",
			props: map[string]any{
				"accountCustomFieldTaxZoneResolver": map[string]any{"useAccountCountry": "false"},
			},
			account:  &invoice.Account{ID: "a", Country: "NZ"},
			expected: "",
		},
		{
			name: "anything but true disables the fallback",
			props: map[string]any{
				"accountCustomFieldTaxZoneResolver.useAccountCountry": "yes",
			},
			account:  &invoice.Account{ID: "a", Country: "NZ"},
			expected: "",
		},
		{
			name:     "nil account has no zone",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewAccountCustomFieldTaxZoneResolver(config.NewTaxProperties(tt.props))
			zone, err := r.TaxZoneForInvoice(context.Background(), "tenant", tt.account, &invoice.Invoice{ID: "inv"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, zone)
		})
	}
}

func TestAccountCountryTaxZoneResolver(t *testing.T) {
	r := NewAccountCountryTaxZoneResolver(nil)

	zone, err := r.TaxZoneForInvoice(context.Background(), "tenant",
		&invoice.Account{ID: "a", Country: "FR", CustomFields: map[string]string{TaxZoneCustomField: "ignored"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "FR", zone)
}

func TestPropertyTaxZoneResolver(t *testing.T) {
	r := NewPropertyTaxZoneResolver(config.NewTaxProperties())
	account := &invoice.Account{ID: "a", Country: "NZ"}

	zone, err := r.TaxZoneForInvoice(context.Background(), "tenant", account, nil, map[string]string{TaxZoneProperty: "AU"})
	require.NoError(t, err)
	assert.Equal(t, "AU", zone)

	zone, err = r.TaxZoneForInvoice(context.Background(), "tenant", account, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "NZ", zone)
}
