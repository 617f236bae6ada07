package availabledata

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/bundling"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// Kind is the payload type of an available-data record. Records of different
// kinds are never bundled together.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindRejection    Kind = "rejection"
	KindChargeData   Kind = "charge_data"
	KindPriceData    Kind = "price_data"
)

// ParseKind converts the textual kind used by the API into a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindConfirmation, KindRejection, KindChargeData, KindPriceData:
		return k, true
	}
	return "", false
}

// Reason is one validation error reported back to a sender.
type Reason struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// ChargeSnapshot is the master data forwarded in charge data records.
type ChargeSnapshot struct {
	Name                 string                   `json:"name"`
	Description          string                   `json:"description"`
	Resolution           domain.Resolution        `json:"resolution"`
	TaxIndicator         bool                     `json:"taxIndicator"`
	TransparentInvoicing bool                     `json:"transparentInvoicing"`
	VatClassification    domain.VatClassification `json:"vatClassification"`
	StartDateTime        time.Time                `json:"startDateTime"`
	EndDateTime          *time.Time               `json:"endDateTime,omitempty"`
}

// Record is one outbound notification awaiting pickup.
type Record struct {
	ID             uuid.UUID                    `json:"id"`
	ReferenceID    uuid.UUID                    `json:"referenceId"` // Shared by records created from one notification
	Kind           Kind                         `json:"kind"`
	RecipientID    string                       `json:"recipientId"`
	RecipientRole  domain.MarketParticipantRole `json:"recipientRole"`
	BusinessReason domain.BusinessReasonCode    `json:"businessReason"`
	DocumentID     string                       `json:"documentId"`
	OperationID    string                       `json:"operationId"`
	ChargeID       string                       `json:"chargeId"`
	ChargeOwner    string                       `json:"chargeOwner"`
	ChargeType     domain.ChargeType            `json:"chargeType"`
	Reasons        []Reason                     `json:"reasons,omitempty"`
	Points         []domain.Point               `json:"points,omitempty"`
	Charge         *ChargeSnapshot              `json:"charge,omitempty"`
	CreatedAt      time.Time                    `json:"createdAt"`
}

// Weight estimates the size of the record when delivered.
func (r *Record) Weight(w bundling.Weights) float64 {
	switch r.Kind {
	case KindConfirmation:
		return w.ConfirmationWeight()
	case KindRejection:
		texts := make([]string, len(r.Reasons))
		for i, reason := range r.Reasons {
			texts[i] = reason.Text
		}
		return w.RejectionWeight(texts)
	case KindPriceData:
		return w.PriceWeight(len(r.Points))
	default:
		return w.ChargeDataWeight()
	}
}

// Repository defines the interface for available-data persistence.
type Repository interface {
	// Add persists records in the given order.
	Add(ctx context.Context, records []*Record) error

	// GetPending returns up to limit records for a recipient and kind,
	// oldest first.
	GetPending(ctx context.Context, recipientID string, kind Kind, limit int) ([]*Record, error)
}
