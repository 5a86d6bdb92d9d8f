package taxation

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordedEvent is published after a ledger entry has been stored
type RecordedEvent struct {
	EventID    string          `json:"event_id"`
	TenantID   string          `json:"tenant_id"`
	AccountID  string          `json:"account_id"`
	InvoiceID  string          `json:"invoice_id"`
	TotalTax   decimal.Decimal `json:"total_tax"`
	TaxItemIDs []string        `json:"tax_item_ids"`
	RecordedAt time.Time       `json:"recorded_at"`
}
