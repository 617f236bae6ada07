package engine

import (
	"context"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

type trackedCharge struct {
	charge *domain.Charge // nil when the charge does not exist yet
	isNew  bool
	dirty  bool
}

// workingSet is the per-bundle view of persisted state. Lookups hit the
// repositories once per key; side effects of accepted operations are kept
// here so later operations in the same bundle observe them.
type workingSet struct {
	charges      domain.ChargeRepository
	participants domain.MarketParticipantRepository

	loaded      map[domain.ChargeIdentifier]*trackedCharge
	touched     []domain.ChargeIdentifier
	senderCache map[string]*domain.MarketParticipant
}

func newWorkingSet(charges domain.ChargeRepository, participants domain.MarketParticipantRepository) *workingSet {
	return &workingSet{
		charges:      charges,
		participants: participants,
		loaded:       make(map[domain.ChargeIdentifier]*trackedCharge),
		senderCache:  make(map[string]*domain.MarketParticipant),
	}
}

// MarketParticipant implements validation.Lookup.
func (w *workingSet) MarketParticipant(ctx context.Context, marketParticipantID string) (*domain.MarketParticipant, error) {
	if mp, ok := w.senderCache[marketParticipantID]; ok {
		return mp, nil
	}
	mp, err := w.participants.GetByMarketParticipantID(ctx, marketParticipantID)
	if err != nil {
		return nil, err
	}
	w.senderCache[marketParticipantID] = mp
	return mp, nil
}

// Charge implements validation.Lookup.
func (w *workingSet) Charge(ctx context.Context, id domain.ChargeIdentifier) (*domain.Charge, error) {
	tc, err := w.track(ctx, id)
	if err != nil {
		return nil, err
	}
	return tc.charge, nil
}

func (w *workingSet) track(ctx context.Context, id domain.ChargeIdentifier) (*trackedCharge, error) {
	if tc, ok := w.loaded[id]; ok {
		return tc, nil
	}
	charge, err := w.charges.GetOrNil(ctx, id)
	if err != nil {
		return nil, err
	}
	tc := &trackedCharge{charge: charge}
	w.loaded[id] = tc
	return tc, nil
}

func (w *workingSet) markDirty(id domain.ChargeIdentifier, tc *trackedCharge) {
	if !tc.dirty {
		tc.dirty = true
		w.touched = append(w.touched, id)
	}
}

// persist writes every touched charge in the order it was first modified.
func (w *workingSet) persist(ctx context.Context) error {
	for _, id := range w.touched {
		tc := w.loaded[id]
		if tc.isNew {
			if err := w.charges.Add(ctx, tc.charge); err != nil {
				return err
			}
			continue
		}
		if err := w.charges.Update(ctx, tc.charge); err != nil {
			return err
		}
	}
	return nil
}
