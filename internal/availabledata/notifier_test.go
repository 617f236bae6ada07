package availabledata

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

type fakeRepository struct {
	records []*Record
	addErr  error
}

func (r *fakeRepository) Add(_ context.Context, records []*Record) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.records = append(r.records, records...)
	return nil
}

func (r *fakeRepository) GetPending(_ context.Context, recipientID string, kind Kind, limit int) ([]*Record, error) {
	var out []*Record
	for _, rec := range r.records {
		if rec.RecipientID == recipientID && rec.Kind == kind && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeCharges struct {
	charges map[domain.ChargeIdentifier]*domain.Charge
}

func (f *fakeCharges) GetOrNil(_ context.Context, id domain.ChargeIdentifier) (*domain.Charge, error) {
	return f.charges[id], nil
}

func (f *fakeCharges) Add(context.Context, *domain.Charge) error    { return nil }
func (f *fakeCharges) Update(context.Context, *domain.Charge) error { return nil }

type fakeParticipants struct {
	providers []*domain.MarketParticipant
	err       error
}

func (f *fakeParticipants) GetByMarketParticipantID(context.Context, string) (*domain.MarketParticipant, error) {
	return nil, nil
}

func (f *fakeParticipants) GetGridAccessProviders(context.Context) ([]*domain.MarketParticipant, error) {
	return f.providers, f.err
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNotifier(repo *fakeRepository, charges *fakeCharges) *Notifier {
	participants := &fakeParticipants{providers: []*domain.MarketParticipant{
		{MarketParticipantID: "grid-1", Role: domain.RoleGridAccessProvider, IsActive: true},
		{MarketParticipantID: "grid-2", Role: domain.RoleGridAccessProvider, IsActive: false},
		{MarketParticipantID: "grid-3", Role: domain.RoleGridAccessProvider, IsActive: true},
	}}
	if charges == nil {
		charges = &fakeCharges{}
	}
	return NewNotifier(repo, charges, participants, validation.FixedClock(now))
}

func testDocument(reason domain.BusinessReasonCode) *domain.Document {
	return &domain.Document{
		ID:                 "doc-1",
		BusinessReasonCode: reason,
		Sender:             domain.MarketParticipantRef{ID: "sender-1", Role: domain.RoleSystemOperator},
	}
}

func tariff(id string, tax bool) domain.ChargeOperation {
	return domain.ChargeOperation{
		OperationID:  "op-" + id,
		ChargeID:     id,
		Owner:        "sender-1",
		Type:         domain.ChargeTypeTariff,
		Name:         "Tariff " + id,
		Resolution:   domain.ResolutionHourly,
		TaxIndicator: tax,
	}
}

func countByRecipient(records []*Record, kind Kind) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Kind == kind {
			counts[r.RecipientID]++
		}
	}
	return counts
}

func TestNotifyAccepted(t *testing.T) {
	fee := tariff("F1", false)
	fee.Type = domain.ChargeTypeFee

	tests := []struct {
		name           string
		operations     []domain.ChargeOperation
		wantForwarded  int
		wantPerGridAcc int
	}{
		{
			name:       "non-tax tariff is only confirmed",
			operations: []domain.ChargeOperation{tariff("T1", false)},
		},
		{
			name:           "tax tariff is forwarded to active grid access providers",
			operations:     []domain.ChargeOperation{tariff("T1", true), tariff("T2", true)},
			wantForwarded:  4,
			wantPerGridAcc: 2,
		},
		{
			name:       "fee is never forwarded",
			operations: []domain.ChargeOperation{fee},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{}
			n := newTestNotifier(repo, nil)

			if err := n.NotifyAccepted(context.Background(), testDocument(domain.BusinessReasonUpdateChargeInformation), tt.operations); err != nil {
				t.Fatalf("NotifyAccepted() error = %v", err)
			}

			confirmations := countByRecipient(repo.records, KindConfirmation)
			if confirmations["sender-1"] != len(tt.operations) || len(confirmations) != 1 {
				t.Errorf("expected %d confirmations for the sender, got %v", len(tt.operations), confirmations)
			}

			forwarded := countByRecipient(repo.records, KindChargeData)
			total := 0
			for _, c := range forwarded {
				total += c
			}
			if total != tt.wantForwarded {
				t.Errorf("expected %d forwarded records, got %d", tt.wantForwarded, total)
			}
			if tt.wantPerGridAcc > 0 {
				if forwarded["grid-1"] != tt.wantPerGridAcc || forwarded["grid-3"] != tt.wantPerGridAcc {
					t.Errorf("unexpected distribution %v", forwarded)
				}
				if forwarded["grid-2"] != 0 {
					t.Error("inactive grid access provider must not receive data")
				}
			}

			ref := repo.records[0].ReferenceID
			for _, r := range repo.records {
				if r.ReferenceID != ref {
					t.Fatal("records from one notification must share a reference id")
				}
				if !r.CreatedAt.Equal(now) {
					t.Errorf("expected created at %s, got %s", now, r.CreatedAt)
				}
				if r.Kind == KindChargeData && (r.Charge == nil || r.Charge.Name == "") {
					t.Errorf("charge data record %s has no snapshot", r.OperationID)
				}
			}
		})
	}
}

func TestNotifyAcceptedPriceUpdateUsesStoredTaxIndicator(t *testing.T) {
	taxed := tariff("T1", false)
	taxed.Points = []domain.Point{{Position: 1, Price: decimal.NewFromInt(1)}}
	plain := tariff("T2", false)

	charges := &fakeCharges{charges: map[domain.ChargeIdentifier]*domain.Charge{
		taxed.Identifier(): {TaxIndicator: true},
		plain.Identifier(): {TaxIndicator: false},
	}}
	repo := &fakeRepository{}
	n := newTestNotifier(repo, charges)

	err := n.NotifyAccepted(context.Background(), testDocument(domain.BusinessReasonUpdateChargePrices), []domain.ChargeOperation{taxed, plain})
	if err != nil {
		t.Fatalf("NotifyAccepted() error = %v", err)
	}

	forwarded := countByRecipient(repo.records, KindPriceData)
	if forwarded["grid-1"] != 1 || forwarded["grid-3"] != 1 || len(forwarded) != 2 {
		t.Errorf("unexpected price data distribution %v", forwarded)
	}
	for _, r := range repo.records {
		if r.Kind == KindPriceData && (r.ChargeID != "T1" || len(r.Points) != 1) {
			t.Errorf("unexpected price data record %+v", r)
		}
	}
}

func TestNotifyRejected(t *testing.T) {
	repo := &fakeRepository{}
	n := newTestNotifier(repo, nil)

	operations := []domain.ChargeOperation{tariff("T1", false), tariff("T2", false)}
	rules := domain.RejectionRules{
		{OperationID: "op-T1", Code: int(validation.ChargeNameRequired), Name: validation.ChargeNameRequired.String()},
		{OperationID: "op-T1", Code: int(validation.MaximumPrice), Name: validation.MaximumPrice.String()},
		{
			OperationID: "op-T2",
			Code:        int(validation.SubsequentBundleOperationsFail),
			Name:        validation.SubsequentBundleOperationsFail.String(),
			TriggeredBy: "op-T1",
		},
	}

	if err := n.NotifyRejected(context.Background(), testDocument(domain.BusinessReasonUpdateChargeInformation), operations, rules); err != nil {
		t.Fatalf("NotifyRejected() error = %v", err)
	}

	if len(repo.records) != 2 {
		t.Fatalf("expected one rejection per operation, got %d", len(repo.records))
	}
	first, second := repo.records[0], repo.records[1]
	if first.Kind != KindRejection || first.RecipientID != "sender-1" {
		t.Errorf("unexpected first record %+v", first)
	}
	if len(first.Reasons) != 2 || !strings.Contains(first.Reasons[0].Text, "T1") {
		t.Errorf("unexpected reasons for first operation: %+v", first.Reasons)
	}
	if len(second.Reasons) != 1 {
		t.Fatalf("expected one cascade reason, got %+v", second.Reasons)
	}
	text := second.Reasons[0].Text
	if !strings.Contains(text, "op-T2") || !strings.Contains(text, "op-T1") {
		t.Errorf("cascade text should name both operations, got %q", text)
	}
}

func TestNotifierErrors(t *testing.T) {
	storeErr := errors.New("store failed")
	repo := &fakeRepository{addErr: storeErr}
	n := newTestNotifier(repo, nil)

	err := n.NotifyRejected(context.Background(), testDocument(domain.BusinessReasonUpdateChargeInformation), []domain.ChargeOperation{tariff("T1", false)}, nil)
	if !errors.Is(err, storeErr) {
		t.Errorf("expected store error, got %v", err)
	}

	lookupErr := errors.New("lookup failed")
	n = NewNotifier(&fakeRepository{}, &fakeCharges{}, &fakeParticipants{err: lookupErr}, validation.FixedClock(now))
	err = n.NotifyAccepted(context.Background(), testDocument(domain.BusinessReasonUpdateChargeInformation), []domain.ChargeOperation{tariff("T1", true)})
	if !errors.Is(err, lookupErr) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestReasonTextFallback(t *testing.T) {
	op := tariff("T1", false)
	text := reasonText(domain.RejectionRule{Code: 999, Name: "Unknown"}, &op)
	if text != "Operation op-T1 failed rule Unknown" {
		t.Errorf("unexpected fallback text %q", text)
	}
}
