package taxation

import "context"

// Repository is the append-only reconciliation ledger.
type Repository interface {
	// Append stores a new entry and assigns its RecordID
	Append(ctx context.Context, entry *Taxation) error
	// Find returns every entry for the invoice in record order
	Find(ctx context.Context, tenantID, accountID, invoiceID string) ([]*Taxation, error)
}
