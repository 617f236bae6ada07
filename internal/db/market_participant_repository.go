package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// MarketParticipantRepository implements domain.MarketParticipantRepository using PostgreSQL.
type MarketParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewMarketParticipantRepository creates a new MarketParticipantRepository.
func NewMarketParticipantRepository(pool *pgxpool.Pool) *MarketParticipantRepository {
	return &MarketParticipantRepository{
		pool: pool,
	}
}

// GetByMarketParticipantID retrieves a participant by its GLN/EIC id.
func (r *MarketParticipantRepository) GetByMarketParticipantID(ctx context.Context, marketParticipantID string) (*domain.MarketParticipant, error) {
	query := `
		SELECT id, market_participant_id, role, is_active
		FROM market_participants
		WHERE market_participant_id = $1
	`

	mp, err := scanParticipant(conn(ctx, r.pool).QueryRow(ctx, query, marketParticipantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market participant: %w", err)
	}
	return mp, nil
}

// GetGridAccessProviders returns all active grid access providers.
func (r *MarketParticipantRepository) GetGridAccessProviders(ctx context.Context) ([]*domain.MarketParticipant, error) {
	query := `
		SELECT id, market_participant_id, role, is_active
		FROM market_participants
		WHERE role = $1 AND is_active
		ORDER BY market_participant_id
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, string(domain.RoleGridAccessProvider))
	if err != nil {
		return nil, fmt.Errorf("failed to get grid access providers: %w", err)
	}
	defer rows.Close()

	var providers []*domain.MarketParticipant
	for rows.Next() {
		mp, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grid access provider: %w", err)
		}
		providers = append(providers, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid access providers: %w", err)
	}
	return providers, nil
}

// Upsert registers a participant or updates its role and activity.
func (r *MarketParticipantRepository) Upsert(ctx context.Context, mp *domain.MarketParticipant) error {
	query := `
		INSERT INTO market_participants (id, market_participant_id, role, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (market_participant_id)
		DO UPDATE SET role = EXCLUDED.role, is_active = EXCLUDED.is_active
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query, mp.ID, mp.MarketParticipantID, string(mp.Role), mp.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert market participant: %w", err)
	}
	return nil
}

func scanParticipant(row pgx.Row) (*domain.MarketParticipant, error) {
	var mp domain.MarketParticipant
	var role string
	if err := row.Scan(&mp.ID, &mp.MarketParticipantID, &role, &mp.IsActive); err != nil {
		return nil, err
	}
	mp.Role = domain.MarketParticipantRole(role)
	return &mp, nil
}
