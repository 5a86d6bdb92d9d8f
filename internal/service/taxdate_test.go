package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/invoice"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateMode(t *testing.T) {
	assert.Equal(t, DateModeInvoice, ParseDateMode("INVOICE"))
	assert.Equal(t, DateModeStartThenEnd, ParseDateMode(" startThenEnd "))
	assert.Equal(t, DateModeEnd, ParseDateMode("end"))
	assert.Equal(t, DateModeEndThenStart, ParseDateMode(""))
	assert.Equal(t, DateModeEndThenStart, ParseDateMode("sometimes"))
}

func TestSimpleTaxDateResolver(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	start := invoice.Date(2017, time.August, 1)
	end := invoice.Date(2017, time.August, 31)
	invoiceDay := invoice.Date(2017, time.September, 1)
	itemCreated := time.Date(2017, time.August, 20, 13, 45, 0, 0, time.UTC)
	invoiceCreated := time.Date(2017, time.August, 21, 9, 0, 0, 0, time.UTC)

	account := &invoice.Account{ID: "a", Country: "NZ", TimeZone: "Pacific/Auckland"}
	inv := &invoice.Invoice{ID: "inv", InvoiceDate: &invoiceDay, CreatedAt: &invoiceCreated}

	mode := func(m string, extra ...map[string]any) config.TaxProperties {
		layers := []map[string]any{{"simpleTaxDateResolver": map[string]any{"dateMode": m}}}
		return config.NewTaxProperties(append(layers, extra...)...)
	}
	noFallbacks := map[string]any{"simpleTaxDateResolver": map[string]any{
		"fallBackToInvoiceDate":            "false",
		"fallBackToInvoiceItemCreatedDate": "false",
		"fallBackToInvoiceCreatedDate":     "false",
	}}

	tests := []struct {
		name     string
		props    config.TaxProperties
		account  *invoice.Account
		item     *invoice.InvoiceItem
		expected *time.Time
	}{
		{
			name:     "default uses end date",
			props:    config.NewTaxProperties(),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", StartDate: &start, EndDate: &end},
			expected: lo.ToPtr(time.Date(2017, time.August, 31, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "default falls back to start date",
			props:    config.NewTaxProperties(),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", StartDate: &start},
			expected: lo.ToPtr(time.Date(2017, time.August, 1, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "start mode",
			props:    mode("start"),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", StartDate: &start, EndDate: &end},
			expected: lo.ToPtr(time.Date(2017, time.August, 1, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "start then end without start",
			props:    mode("startThenEnd"),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", EndDate: &end},
			expected: lo.ToPtr(time.Date(2017, time.August, 31, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "invoice mode",
			props:    mode("invoice"),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", StartDate: &start, EndDate: &end},
			expected: lo.ToPtr(time.Date(2017, time.September, 1, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "end mode falls back to invoice date",
			props:    mode("end"),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", StartDate: &start},
			expected: lo.ToPtr(time.Date(2017, time.September, 1, 0, 0, 0, 0, auckland)),
		},
		{
			name:     "account without time zone uses UTC",
			props:    config.NewTaxProperties(),
			account:  &invoice.Account{ID: "a"},
			item:     &invoice.InvoiceItem{ID: "i", EndDate: &end},
			expected: lo.ToPtr(end),
		},
		{
			name:     "item created date is used as is",
			props:    config.NewTaxProperties(map[string]any{"simpleTaxDateResolver.fallBackToInvoiceDate": "false"}),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", CreatedAt: &itemCreated},
			expected: &itemCreated,
		},
		{
			name: "invoice created date is the last fallback",
			props: config.NewTaxProperties(map[string]any{"simpleTaxDateResolver": map[string]any{
				"fallBackToInvoiceDate":            false,
				"fallBackToInvoiceItemCreatedDate": false,
			}}),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", CreatedAt: &itemCreated},
			expected: &invoiceCreated,
		},
		{
			name:     "no date when every fallback is disabled",
			props:    config.NewTaxProperties(noFallbacks),
			account:  account,
			item:     &invoice.InvoiceItem{ID: "i", CreatedAt: &itemCreated},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSimpleTaxDateResolver(tt.props)
			got, err := r.TaxDateForInvoiceItem(context.Background(), "tenant", tt.account, inv, tt.item, nil)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestSimpleTaxDateResolverDefaultTimeZone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	r := NewSimpleTaxDateResolver(config.NewTaxProperties(map[string]any{
		"simpleTaxDateResolver": map[string]any{"defaultTimeZone": "Europe/Paris"},
	}))
	end := invoice.Date(2017, time.August, 31)

	got, err := r.TaxDateForInvoiceItem(context.Background(), "tenant", &invoice.Account{ID: "a"}, nil,
		&invoice.InvoiceItem{ID: "i", EndDate: &end}, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, time.Date(2017, time.August, 31, 0, 0, 0, 0, paris).Equal(*got))
}
