package availabledata

import (
	"context"
	"errors"
	"fmt"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/bundling"
)

// ErrUnknownKind is returned when a peek asks for a kind that does not exist.
var ErrUnknownKind = errors.New("unknown available data kind")

// DefaultPendingLimit caps how many pending records are read per peek.
const DefaultPendingLimit = 10000

// Service hands out pending available data in weight-bounded bundles.
type Service struct {
	repo         Repository
	weights      bundling.Weights
	pendingLimit int
}

// NewService creates a new Service.
func NewService(repo Repository, weights bundling.Weights, pendingLimit int) *Service {
	if pendingLimit <= 0 {
		pendingLimit = DefaultPendingLimit
	}
	return &Service{
		repo:         repo,
		weights:      weights,
		pendingLimit: pendingLimit,
	}
}

// Peek returns the next bundle of records of one kind for a recipient.
// An empty result means nothing is pending.
func (s *Service) Peek(ctx context.Context, recipientID string, kind Kind, maxWeight int) ([]*Record, error) {
	records, err := s.pending(ctx, recipientID, kind)
	if err != nil {
		return nil, err
	}
	return bundling.First(records, s.weight, maxWeight)
}

// Bundles returns every pending record of one kind split into bundles.
func (s *Service) Bundles(ctx context.Context, recipientID string, kind Kind, maxWeight int) ([][]*Record, error) {
	records, err := s.pending(ctx, recipientID, kind)
	if err != nil {
		return nil, err
	}
	return bundling.Pack(records, s.weight, maxWeight)
}

func (s *Service) pending(ctx context.Context, recipientID string, kind Kind) ([]*Record, error) {
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	records, err := s.repo.GetPending(ctx, recipientID, kind, s.pendingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending records: %w", err)
	}
	return records, nil
}

func (s *Service) weight(r *Record) float64 {
	return r.Weight(s.weights)
}
