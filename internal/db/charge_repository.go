package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// ChargeRepository implements domain.ChargeRepository using PostgreSQL.
// A charge is stored as one row in charges plus its periods and points.
type ChargeRepository struct {
	pool *pgxpool.Pool
}

// NewChargeRepository creates a new ChargeRepository.
func NewChargeRepository(pool *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{
		pool: pool,
	}
}

// GetOrNil retrieves a charge with its periods and points by natural key.
func (r *ChargeRepository) GetOrNil(ctx context.Context, id domain.ChargeIdentifier) (*domain.Charge, error) {
	query := `
		SELECT id, sender_provided_charge_id, type, owner, resolution, tax_indicator, version
		FROM charges
		WHERE sender_provided_charge_id = $1 AND type = $2 AND owner = $3
	`

	q := conn(ctx, r.pool)

	var charge domain.Charge
	var chargeType, resolution string
	err := q.QueryRow(ctx, query, id.SenderProvidedChargeID, string(id.Type), id.Owner).Scan(
		&charge.ID,
		&charge.SenderProvidedChargeID,
		&chargeType,
		&charge.Owner,
		&resolution,
		&charge.TaxIndicator,
		&charge.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get charge: %w", err)
	}
	charge.Type = domain.ChargeType(chargeType)
	charge.Resolution = domain.Resolution(resolution)

	if charge.Periods, err = r.getPeriods(ctx, q, charge.ID); err != nil {
		return nil, err
	}
	if charge.Points, err = r.getPoints(ctx, q, charge.ID); err != nil {
		return nil, err
	}

	return &charge, nil
}

func (r *ChargeRepository) getPeriods(ctx context.Context, q querier, chargeID uuid.UUID) ([]domain.ChargePeriod, error) {
	query := `
		SELECT name, description, vat_classification, transparent_invoicing,
		       start_date_time, end_date_time
		FROM charge_periods
		WHERE charge_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, query, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get charge periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.ChargePeriod
	for rows.Next() {
		var p domain.ChargePeriod
		var vat string
		if err := rows.Scan(&p.Name, &p.Description, &vat, &p.TransparentInvoicing, &p.StartDateTime, &p.EndDateTime); err != nil {
			return nil, fmt.Errorf("failed to scan charge period: %w", err)
		}
		p.VatClassification = domain.VatClassification(vat)
		p.StartDateTime = p.StartDateTime.UTC()
		p.EndDateTime = p.EndDateTime.UTC()
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read charge periods: %w", err)
	}
	return periods, nil
}

func (r *ChargeRepository) getPoints(ctx context.Context, q querier, chargeID uuid.UUID) ([]domain.Point, error) {
	query := `
		SELECT position, price::text, time
		FROM charge_points
		WHERE charge_id = $1
		ORDER BY time
	`

	rows, err := q.Query(ctx, query, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get charge points: %w", err)
	}
	defer rows.Close()

	var points []domain.Point
	for rows.Next() {
		var p domain.Point
		var price string
		if err := rows.Scan(&p.Position, &price, &p.Time); err != nil {
			return nil, fmt.Errorf("failed to scan charge point: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price %q: %w", price, err)
		}
		p.Time = p.Time.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read charge points: %w", err)
	}
	return points, nil
}

// Add persists a new charge. A concurrent insert of the same natural key is
// reported as domain.ErrConcurrentChargeUpdate.
func (r *ChargeRepository) Add(ctx context.Context, charge *domain.Charge) error {
	query := `
		INSERT INTO charges (
			id, sender_provided_charge_id, type, owner,
			resolution, tax_indicator, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	q := conn(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		charge.ID,
		charge.SenderProvidedChargeID,
		string(charge.Type),
		charge.Owner,
		string(charge.Resolution),
		charge.TaxIndicator,
		charge.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrConcurrentChargeUpdate, charge.Identifier())
		}
		return fmt.Errorf("failed to create charge: %w", err)
	}

	return r.writeChildren(ctx, q, charge)
}

// Update persists an existing charge if its stored version still equals
// charge.Version, then increments charge.Version.
func (r *ChargeRepository) Update(ctx context.Context, charge *domain.Charge) error {
	query := `
		UPDATE charges
		SET resolution = $3,
		    tax_indicator = $4,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
	`

	q := conn(ctx, r.pool)
	result, err := q.Exec(ctx, query,
		charge.ID,
		charge.Version,
		string(charge.Resolution),
		charge.TaxIndicator,
	)
	if err != nil {
		return fmt.Errorf("failed to update charge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrConcurrentChargeUpdate, charge.Identifier())
	}
	charge.Version++

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM charge_periods WHERE charge_id = $1`, charge.ID)
	batch.Queue(`DELETE FROM charge_points WHERE charge_id = $1`, charge.ID)
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to clear charge children: %w", err)
	}

	return r.writeChildren(ctx, q, charge)
}

// writeChildren inserts periods in a batch and points with COPY.
func (r *ChargeRepository) writeChildren(ctx context.Context, q querier, charge *domain.Charge) error {
	if len(charge.Periods) > 0 {
		batch := &pgx.Batch{}
		for i, p := range charge.Periods {
			batch.Queue(`
				INSERT INTO charge_periods (
					charge_id, position, name, description, vat_classification,
					transparent_invoicing, start_date_time, end_date_time
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				charge.ID, i, p.Name, p.Description, string(p.VatClassification),
				p.TransparentInvoicing, p.StartDateTime, p.EndDateTime,
			)
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to write charge periods: %w", err)
		}
	}

	if len(charge.Points) > 0 {
		_, err := q.CopyFrom(ctx,
			pgx.Identifier{"charge_points"},
			[]string{"charge_id", "position", "price", "time"},
			pgx.CopyFromSlice(len(charge.Points), func(i int) ([]any, error) {
				p := charge.Points[i]
				price := pgtype.Numeric{Int: p.Price.Coefficient(), Exp: p.Price.Exponent(), Valid: true}
				return []any{charge.ID, p.Position, price, p.Time}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to write charge points: %w", err)
		}
	}

	return nil
}
