package availabledata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/bundling"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

func pricesRecords(n, points int) []*Record {
	records := make([]*Record, n)
	for i := range records {
		records[i] = &Record{
			OperationID: fmt.Sprintf("op-%d", i),
			RecipientID: "grid-1",
			Kind:        KindPriceData,
			Points:      make([]domain.Point, points),
		}
	}
	return records
}

func TestRecordWeight(t *testing.T) {
	w := bundling.DefaultWeights()

	tests := []struct {
		name   string
		record *Record
		want   float64
	}{
		{"confirmation", &Record{Kind: KindConfirmation}, 2},
		{"charge data", &Record{Kind: KindChargeData}, 5},
		{"rejection without reasons", &Record{Kind: KindRejection}, 2},
		{"rejection", &Record{Kind: KindRejection, Reasons: []Reason{{Text: "abc"}, {Text: "æøå"}}}, 2 + 0.2 + 6},
		{"price data", &Record{Kind: KindPriceData, Points: []domain.Point{{Price: decimal.NewFromInt(1)}, {}, {}}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Weight(w); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServicePeek(t *testing.T) {
	repo := &fakeRepository{records: pricesRecords(5, 10)} // 7 each
	svc := NewService(repo, bundling.DefaultWeights(), 0)

	tests := []struct {
		name      string
		recipient string
		kind      Kind
		maxWeight int
		wantLen   int
		wantErr   error
	}{
		{"fits two", "grid-1", KindPriceData, 20, 2, nil},
		{"fits all", "grid-1", KindPriceData, 100, 5, nil},
		{"oversized record alone", "grid-1", KindPriceData, 1, 1, nil},
		{"nothing pending", "grid-2", KindPriceData, 20, 0, nil},
		{"other kind", "grid-1", KindConfirmation, 20, 0, nil},
		{"unknown kind", "grid-1", Kind("bogus"), 20, 0, ErrUnknownKind},
		{"invalid weight", "grid-1", KindPriceData, 0, 0, bundling.ErrInvalidMaxWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Peek(context.Background(), tt.recipient, tt.kind, tt.maxWeight)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Peek() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("expected %d records, got %d", tt.wantLen, len(got))
			}
			for i, r := range got {
				if r.OperationID != fmt.Sprintf("op-%d", i) {
					t.Errorf("record %d out of order: %s", i, r.OperationID)
				}
			}
		})
	}
}

func TestServiceBundles(t *testing.T) {
	repo := &fakeRepository{records: pricesRecords(5, 10)}
	svc := NewService(repo, bundling.DefaultWeights(), 3)

	bundles, err := svc.Bundles(context.Background(), "grid-1", KindPriceData, 20)
	if err != nil {
		t.Fatalf("Bundles() error = %v", err)
	}
	// The pending limit caps the records read.
	if len(bundles) != 2 || len(bundles[0]) != 2 || len(bundles[1]) != 1 {
		t.Errorf("unexpected bundles %v", bundles)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"confirmation", "rejection", "charge_data", "price_data"} {
		if k, ok := ParseKind(s); !ok || string(k) != s {
			t.Errorf("ParseKind(%q) = %q, %v", s, k, ok)
		}
	}
	if _, ok := ParseKind("Confirmation"); ok {
		t.Error("kinds are case sensitive")
	}
}
