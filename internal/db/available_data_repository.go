package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/availabledata"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// AvailableDataRepository implements availabledata.Repository using PostgreSQL.
// The kind-specific part of a record is kept in a JSONB payload column.
type AvailableDataRepository struct {
	pool *pgxpool.Pool
}

// NewAvailableDataRepository creates a new AvailableDataRepository.
func NewAvailableDataRepository(pool *pgxpool.Pool) *AvailableDataRepository {
	return &AvailableDataRepository{
		pool: pool,
	}
}

type recordPayload struct {
	Reasons []availabledata.Reason        `json:"reasons,omitempty"`
	Points  []domain.Point                `json:"points,omitempty"`
	Charge  *availabledata.ChargeSnapshot `json:"charge,omitempty"`
}

// Add inserts records in one batch. The sequence column preserves their order.
func (r *AvailableDataRepository) Add(ctx context.Context, records []*availabledata.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO available_data (
			id, reference_id, kind, recipient_id, recipient_role,
			business_reason, document_id, operation_id,
			charge_id, charge_owner, charge_type, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		payload, err := json.Marshal(recordPayload{Reasons: rec.Reasons, Points: rec.Points, Charge: rec.Charge})
		if err != nil {
			return fmt.Errorf("failed to marshal available data payload: %w", err)
		}
		batch.Queue(query,
			rec.ID,
			rec.ReferenceID,
			string(rec.Kind),
			rec.RecipientID,
			string(rec.RecipientRole),
			string(rec.BusinessReason),
			rec.DocumentID,
			rec.OperationID,
			rec.ChargeID,
			rec.ChargeOwner,
			string(rec.ChargeType),
			payload,
			rec.CreatedAt,
		)
	}

	if err := conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert available data: %w", err)
	}
	return nil
}

// GetPending returns up to limit records for a recipient and kind in insertion order.
func (r *AvailableDataRepository) GetPending(ctx context.Context, recipientID string, kind availabledata.Kind, limit int) ([]*availabledata.Record, error) {
	query := `
		SELECT id, reference_id, kind, recipient_id, recipient_role,
		       business_reason, document_id, operation_id,
		       charge_id, charge_owner, charge_type, payload, created_at
		FROM available_data
		WHERE recipient_id = $1 AND kind = $2
		ORDER BY seq
		LIMIT $3
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, recipientID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending available data: %w", err)
	}
	defer rows.Close()

	var records []*availabledata.Record
	for rows.Next() {
		var rec availabledata.Record
		var kindText, role, reason, chargeType string
		var payload []byte
		err := rows.Scan(
			&rec.ID,
			&rec.ReferenceID,
			&kindText,
			&rec.RecipientID,
			&role,
			&reason,
			&rec.DocumentID,
			&rec.OperationID,
			&rec.ChargeID,
			&rec.ChargeOwner,
			&chargeType,
			&payload,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan available data: %w", err)
		}

		var p recordPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal available data payload: %w", err)
		}

		rec.Kind = availabledata.Kind(kindText)
		rec.RecipientRole = domain.MarketParticipantRole(role)
		rec.BusinessReason = domain.BusinessReasonCode(reason)
		rec.ChargeType = domain.ChargeType(chargeType)
		rec.Reasons = p.Reasons
		rec.Points = p.Points
		rec.Charge = p.Charge
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read available data: %w", err)
	}
	return records, nil
}
