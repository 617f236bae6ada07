package availabledata

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

// Notifier turns bundle outcomes into available-data records:
// confirmations and rejections for the sender, and charge and price data
// for grid access providers when a tax tariff changes.
type Notifier struct {
	repo         Repository
	charges      domain.ChargeRepository
	participants domain.MarketParticipantRepository
	clock        validation.Clock
	log          *logger.Entry
}

// NewNotifier creates a new Notifier.
func NewNotifier(
	repo Repository,
	charges domain.ChargeRepository,
	participants domain.MarketParticipantRepository,
	clock validation.Clock,
) *Notifier {
	return &Notifier{
		repo:         repo,
		charges:      charges,
		participants: participants,
		clock:        clock,
		log:          logger.GetLogger().WithComponent("available_data_notifier"),
	}
}

// NotifyAccepted implements domain.Notifier.
func (n *Notifier) NotifyAccepted(ctx context.Context, document *domain.Document, operations []domain.ChargeOperation) error {
	referenceID := uuid.New()
	now := n.clock.Now()

	records := make([]*Record, 0, len(operations))
	for i := range operations {
		op := &operations[i]
		r := n.newRecord(referenceID, KindConfirmation, document, op)
		r.RecipientID = document.Sender.ID
		r.RecipientRole = document.Sender.Role
		r.CreatedAt = now
		records = append(records, r)
	}

	forwarded, err := n.forward(ctx, referenceID, document, operations)
	if err != nil {
		return err
	}
	records = append(records, forwarded...)

	if err := n.repo.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to store accepted records: %w", err)
	}

	n.log.WithFields(logger.Fields{
		"document_id":   document.ID,
		"reference_id":  referenceID.String(),
		"confirmations": len(operations),
		"forwarded":     len(forwarded),
	}).Info("Available data created for accepted operations")
	return nil
}

// NotifyRejected implements domain.Notifier.
func (n *Notifier) NotifyRejected(ctx context.Context, document *domain.Document, operations []domain.ChargeOperation, rules domain.RejectionRules) error {
	referenceID := uuid.New()
	now := n.clock.Now()

	records := make([]*Record, 0, len(operations))
	for i := range operations {
		op := &operations[i]
		r := n.newRecord(referenceID, KindRejection, document, op)
		r.RecipientID = document.Sender.ID
		r.RecipientRole = document.Sender.Role
		r.CreatedAt = now
		for _, rule := range rules.ForOperation(op.OperationID) {
			r.Reasons = append(r.Reasons, Reason{
				Code: rule.Code,
				Name: rule.Name,
				Text: reasonText(rule, op),
			})
		}
		records = append(records, r)
	}

	if err := n.repo.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to store rejection records: %w", err)
	}

	n.log.WithFields(logger.Fields{
		"document_id":  document.ID,
		"reference_id": referenceID.String(),
		"rejections":   len(records),
	}).Info("Available data created for rejected operations")
	return nil
}

// forward creates charge or price data records for every active grid access
// provider, for operations on tax tariffs only.
func (n *Notifier) forward(ctx context.Context, referenceID uuid.UUID, document *domain.Document, operations []domain.ChargeOperation) ([]*Record, error) {
	var taxed []*domain.ChargeOperation
	for i := range operations {
		op := &operations[i]
		if op.Type != domain.ChargeTypeTariff {
			continue
		}
		isTax, err := n.isTaxTariff(ctx, document, op)
		if err != nil {
			return nil, err
		}
		if isTax {
			taxed = append(taxed, op)
		}
	}
	if len(taxed) == 0 {
		return nil, nil
	}

	providers, err := n.participants.GetGridAccessProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get grid access providers: %w", err)
	}

	kind := KindChargeData
	if document.IsPriceUpdate() {
		kind = KindPriceData
	}

	now := n.clock.Now()
	var records []*Record
	for _, provider := range providers {
		if !provider.IsActive {
			continue
		}
		for _, op := range taxed {
			r := n.newRecord(referenceID, kind, document, op)
			r.RecipientID = provider.MarketParticipantID
			r.RecipientRole = provider.Role
			r.CreatedAt = now
			if kind == KindPriceData {
				r.Points = op.Points
			} else {
				r.Charge = snapshot(op)
			}
			records = append(records, r)
		}
	}
	return records, nil
}

// isTaxTariff reads the tax indicator from the operation for master data and
// from the stored charge for price updates.
func (n *Notifier) isTaxTariff(ctx context.Context, document *domain.Document, op *domain.ChargeOperation) (bool, error) {
	if !document.IsPriceUpdate() {
		return op.TaxIndicator, nil
	}
	charge, err := n.charges.GetOrNil(ctx, op.Identifier())
	if err != nil {
		return false, fmt.Errorf("failed to get charge %s: %w", op.Identifier(), err)
	}
	return charge != nil && charge.TaxIndicator, nil
}

func (n *Notifier) newRecord(referenceID uuid.UUID, kind Kind, document *domain.Document, op *domain.ChargeOperation) *Record {
	return &Record{
		ID:             uuid.New(),
		ReferenceID:    referenceID,
		Kind:           kind,
		BusinessReason: document.BusinessReasonCode,
		DocumentID:     document.ID,
		OperationID:    op.OperationID,
		ChargeID:       op.ChargeID,
		ChargeOwner:    op.Owner,
		ChargeType:     op.Type,
	}
}

func snapshot(op *domain.ChargeOperation) *ChargeSnapshot {
	return &ChargeSnapshot{
		Name:                 op.Name,
		Description:          op.Description,
		Resolution:           op.Resolution,
		TaxIndicator:         op.TaxIndicator,
		TransparentInvoicing: op.TransparentInvoicing,
		VatClassification:    op.VatClassification,
		StartDateTime:        op.StartDateTime,
		EndDateTime:          op.EndDateTime,
	}
}
