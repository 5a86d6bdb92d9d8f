package postgres

import (
	"context"
	"time"

	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/postgres"
	"github.com/shopspring/decimal"
)

type taxationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTaxationRepository(db *postgres.DB, logger *logger.Logger) taxation.Repository {
	return &taxationRepository{db: db, logger: logger}
}

// taxationRow mirrors the taxations table; the mapping is stored as JSON
type taxationRow struct {
	RecordID       int64           `db:"record_id"`
	CreatedAt      time.Time       `db:"created_at"`
	TenantID       string          `db:"tenant_id"`
	AccountID      string          `db:"account_id"`
	InvoiceID      string          `db:"invoice_id"`
	TotalTax       decimal.Decimal `db:"total_tax"`
	InvoiceItemIDs []byte          `db:"invoice_item_ids"`
}

func (r *taxationRepository) Append(ctx context.Context, entry *taxation.Taxation) error {
	span := StartRepositorySpan(ctx, "taxation", "append", map[string]interface{}{
		"tenant_id":  entry.TenantID,
		"invoice_id": entry.InvoiceID,
	})
	defer FinishSpan(span)

	itemIDs, err := taxation.EncodeItemIDs(entry.InvoiceItemIDs)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to encode taxation item mapping").
			Mark(ierr.ErrSystem)
	}

	query := `
		INSERT INTO taxations (
			created_at,
			tenant_id,
			account_id,
			invoice_id,
			total_tax,
			invoice_item_ids
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING record_id
	`

	var recordID int64
	err = r.db.GetQuerier(ctx).GetContext(ctx, &recordID, query,
		entry.CreatedAt,
		entry.TenantID,
		entry.AccountID,
		entry.InvoiceID,
		entry.TotalTax,
		string(itemIDs),
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to record taxation").
			WithReportableDetails(map[string]any{
				"invoice_id": entry.InvoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}

	entry.RecordID = recordID
	SetSpanSuccess(span)
	return nil
}

func (r *taxationRepository) Find(ctx context.Context, tenantID, accountID, invoiceID string) ([]*taxation.Taxation, error) {
	span := StartRepositorySpan(ctx, "taxation", "find", map[string]interface{}{
		"tenant_id":  tenantID,
		"invoice_id": invoiceID,
	})
	defer FinishSpan(span)

	query := `
		SELECT record_id, created_at, tenant_id, account_id, invoice_id, total_tax, invoice_item_ids
		FROM taxations
		WHERE tenant_id = $1 AND account_id = $2 AND invoice_id = $3
		ORDER BY record_id ASC
	`

	var rows []taxationRow
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, tenantID, accountID, invoiceID); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to load taxations").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
			}).
			Mark(ierr.ErrDatabase)
	}

	entries := make([]*taxation.Taxation, 0, len(rows))
	for _, row := range rows {
		itemIDs, err := taxation.DecodeItemIDs(row.InvoiceItemIDs)
		if err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Stored taxation item mapping is corrupt").
				WithReportableDetails(map[string]any{
					"record_id": row.RecordID,
				}).
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &taxation.Taxation{
			RecordID:       row.RecordID,
			CreatedAt:      row.CreatedAt,
			TenantID:       row.TenantID,
			AccountID:      row.AccountID,
			InvoiceID:      row.InvoiceID,
			TotalTax:       row.TotalTax,
			InvoiceItemIDs: itemIDs,
		})
	}

	SetSpanSuccess(span)
	return entries, nil
}
