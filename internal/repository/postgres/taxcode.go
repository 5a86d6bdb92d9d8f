package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/flexprice/taxledger/internal/domain/taxcode"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/postgres"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/lib/pq"
)

const taxCodeColumns = `record_id, tenant_id, tax_zone, product_name, tax_code, tax_rate, valid_from, valid_to, created_at`

type taxCodeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTaxCodeRepository(db *postgres.DB, logger *logger.Logger) taxcode.Repository {
	return &taxCodeRepository{db: db, logger: logger}
}

func taxCodeWhere(filter *types.TaxCodeFilter, withValidity bool) *whereClause {
	w := &whereClause{}
	w.add("tenant_id = ?", filter.TenantID)
	if filter.TaxZone != nil {
		w.add("tax_zone = ?", *filter.TaxZone)
	}
	if filter.ProductName != nil {
		w.add("product_name = ?", *filter.ProductName)
	}
	if filter.TaxCode != nil {
		w.add("tax_code = ?", *filter.TaxCode)
	}
	if withValidity && filter.AsOf != nil {
		w.add("valid_from <= ?", *filter.AsOf)
		w.add("(valid_to IS NULL OR valid_to > ?)", *filter.AsOf)
	}
	return w
}

func (r *taxCodeRepository) Find(ctx context.Context, filter *types.TaxCodeFilter) ([]*taxcode.TaxCode, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	span := StartRepositorySpan(ctx, "taxcode", "find", map[string]interface{}{
		"tenant_id": filter.TenantID,
	})
	defer FinishSpan(span)

	w := taxCodeWhere(filter, true)
	query := `SELECT ` + taxCodeColumns + ` FROM tax_codes` + w.String()
	if filter.AsOf != nil {
		query += ` ORDER BY valid_from DESC, record_id ASC`
	} else {
		query += ` ORDER BY record_id ASC`
	}

	codes := make([]*taxcode.TaxCode, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &codes, query, w.args...); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to find tax codes").
			WithReportableDetails(map[string]any{
				"tenant_id": filter.TenantID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return codes, nil
}

func (r *taxCodeRepository) Upsert(ctx context.Context, code *taxcode.TaxCode) error {
	if err := code.Validate(); err != nil {
		return err
	}

	span := StartRepositorySpan(ctx, "taxcode", "upsert", map[string]interface{}{
		"tenant_id": code.TenantID,
		"tax_zone":  code.TaxZone,
		"tax_code":  code.TaxCode,
	})
	defer FinishSpan(span)

	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tax_codes (
			tenant_id,
			tax_zone,
			product_name,
			tax_code,
			tax_rate,
			valid_from,
			valid_to,
			created_at
		)
		VALUES (
			:tenant_id,
			:tax_zone,
			:product_name,
			:tax_code,
			:tax_rate,
			:valid_from,
			:valid_to,
			:created_at
		)
		ON CONFLICT (tenant_id, tax_zone, product_name, tax_code, valid_from)
		DO UPDATE SET
			tax_rate = EXCLUDED.tax_rate,
			valid_to = EXCLUDED.valid_to
	`

	r.logger.Debugw("upserting tax code",
		"tenant_id", code.TenantID,
		"tax_zone", code.TaxZone,
		"product_name", code.ProductName,
		"tax_code", code.TaxCode,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, code); err != nil {
		SetSpanError(span, err)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
			return ierr.WithError(err).
				WithHint("Tax code violates a constraint").
				WithReportableDetails(map[string]any{
					"tax_zone": code.TaxZone,
					"tax_code": code.TaxCode,
				}).
				Mark(ierr.ErrValidation)
		}
		return ierr.WithError(err).
			WithHint("Failed to save tax code").
			WithReportableDetails(map[string]any{
				"tax_zone": code.TaxZone,
				"tax_code": code.TaxCode,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *taxCodeRepository) UpsertBatch(ctx context.Context, codes []*taxcode.TaxCode) error {
	for _, code := range codes {
		if err := code.Validate(); err != nil {
			return err
		}
	}

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		for _, code := range codes {
			if err := r.Upsert(ctx, code); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *taxCodeRepository) Remove(ctx context.Context, filter *types.TaxCodeFilter) (int64, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	span := StartRepositorySpan(ctx, "taxcode", "remove", map[string]interface{}{
		"tenant_id": filter.TenantID,
	})
	defer FinishSpan(span)

	w := taxCodeWhere(filter, false)
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, `DELETE FROM tax_codes`+w.String(), w.args...)
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to remove tax codes").
			Mark(ierr.ErrDatabase)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to remove tax codes").
			Mark(ierr.ErrDatabase)
	}

	r.logger.Infow("removed tax codes",
		"tenant_id", filter.TenantID,
		"count", removed,
	)
	SetSpanSuccess(span)
	return removed, nil
}
