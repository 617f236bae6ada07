package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

// Outcome is the partition of a bundle into accepted and rejected operations.
type Outcome struct {
	Accepted []domain.ChargeOperation
	Rejected []domain.ChargeOperation
	Rules    validation.Result // Failed rules of the rejected operations
}

// BundleProcessor validates bundles of charge operations, applies the
// accepted ones in a single transaction and notifies about the outcome.
// It holds no per-bundle state and may be shared between goroutines.
type BundleProcessor struct {
	charges      domain.ChargeRepository
	participants domain.MarketParticipantRepository
	txManager    domain.TransactionManager
	notifier     domain.Notifier
	clock        validation.Clock
	limits       validation.Limits
	log          *logger.Entry
}

// NewBundleProcessor creates a new BundleProcessor.
func NewBundleProcessor(
	charges domain.ChargeRepository,
	participants domain.MarketParticipantRepository,
	txManager domain.TransactionManager,
	notifier domain.Notifier,
	clock validation.Clock,
	limits validation.Limits,
) *BundleProcessor {
	return &BundleProcessor{
		charges:      charges,
		participants: participants,
		txManager:    txManager,
		notifier:     notifier,
		clock:        clock,
		limits:       limits,
		log:          logger.GetLogger().WithComponent("bundle_processor"),
	}
}

// Process runs the bundle through validation in submission order:
//  1. input rules, then business rules, for each operation
//  2. the first failing operation and every operation after it are rejected;
//     successors carry a SubsequentBundleOperationsFail rule pointing at it
//  3. side effects of accepted operations are committed once
//  4. rejections, then acceptances, are sent to the notifier when non-empty
//
// Rule failures are part of the outcome. Errors are reserved for contract
// violations, lookup failures, persistence failures and notifier failures.
// A notifier failure happens after the commit: the outcome is still returned
// and the error wraps domain.ErrNotificationFailed.
func (p *BundleProcessor) Process(ctx context.Context, bundle *domain.Bundle) (*Outcome, error) {
	if bundle == nil {
		return nil, domain.ErrNilBundle
	}
	if bundle.Document == nil {
		return nil, domain.ErrNilDocument
	}

	start := time.Now()
	document := bundle.Document
	ws := newWorkingSet(p.charges, p.participants)
	outcome := &Outcome{}

	for i := range bundle.Operations {
		op := &bundle.Operations[i]

		result := validation.Evaluate(validation.InputRules(document, op, p.limits))
		if !result.IsFailed() {
			rules, err := validation.BusinessRules(ctx, document, op, ws, p.clock, p.limits)
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", op.OperationID, err)
			}
			result = validation.Evaluate(rules)
		}

		if result.IsFailed() {
			if err := p.rejectFrom(outcome, bundle.Operations, i, result); err != nil {
				return nil, err
			}
			break
		}

		if err := p.apply(ctx, ws, document, op); err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.OperationID, err)
		}
		outcome.Accepted = append(outcome.Accepted, *op)
	}

	if len(ws.touched) > 0 {
		if err := p.txManager.WithTransaction(ctx, ws.persist); err != nil {
			return nil, fmt.Errorf("failed to persist bundle %s: %w", document.ID, err)
		}
	}

	// State is committed from here on; notification failures are reported
	// together with the outcome.
	var notifyErrs []error
	if len(outcome.Rejected) > 0 {
		if err := p.notifier.NotifyRejected(ctx, document, outcome.Rejected, outcome.Rules.RejectionRules()); err != nil {
			notifyErrs = append(notifyErrs, fmt.Errorf("rejected operations: %w", err))
		}
	}
	if len(outcome.Accepted) > 0 {
		if err := p.notifier.NotifyAccepted(ctx, document, outcome.Accepted); err != nil {
			notifyErrs = append(notifyErrs, fmt.Errorf("accepted operations: %w", err))
		}
	}

	logger.LogPerformanceEntry(p.log.WithFields(logger.Fields{
		"document_id":     document.ID,
		"business_reason": document.BusinessReasonCode.String(),
		"sender":          document.Sender.ID,
		"operations":      len(bundle.Operations),
		"accepted":        len(outcome.Accepted),
		"rejected":        len(outcome.Rejected),
	}), "process_bundle", time.Since(start), nil)

	if len(notifyErrs) > 0 {
		return outcome, fmt.Errorf("document %s: %w: %w", document.ID, domain.ErrNotificationFailed, errors.Join(notifyErrs...))
	}
	return outcome, nil
}

// rejectFrom moves operations[failed:] into the rejected partition. The
// failing operation keeps its own rules; each successor gets one cascade rule.
func (p *BundleProcessor) rejectFrom(outcome *Outcome, operations []domain.ChargeOperation, failed int, result validation.Result) error {
	trigger := operations[failed].OperationID

	cascade := make([]validation.RuleContainer, 0, len(operations)-failed-1)
	for _, op := range operations[failed+1:] {
		cascade = append(cascade, validation.RuleContainer{
			Rule:        validation.NewSubsequentBundleOperationsFailRule(trigger),
			OperationID: op.OperationID,
		})
	}

	cascaded, err := validation.NewFailure(cascade)
	if err != nil {
		return err
	}

	outcome.Rejected = append(outcome.Rejected, operations[failed:]...)
	outcome.Rules = result.Merge(cascaded)
	return nil
}

// apply performs the side effects of an accepted operation on the working set.
func (p *BundleProcessor) apply(ctx context.Context, ws *workingSet, document *domain.Document, op *domain.ChargeOperation) error {
	id := op.Identifier()
	tc, err := ws.track(ctx, id)
	if err != nil {
		return err
	}

	if document.IsPriceUpdate() {
		if tc.charge == nil {
			return fmt.Errorf("%w: %s", domain.ErrChargeNotFound, id)
		}
		start, end := op.PriceInterval()
		tc.charge.UpdatePrices(start, end, op.Points)
		ws.markDirty(id, tc)
		return nil
	}

	switch {
	case tc.charge == nil:
		tc.charge = domain.NewCharge(op)
		tc.isNew = true
	case op.IsStop():
		tc.charge.Stop(op.StartDateTime)
	default:
		tc.charge.Update(domain.PeriodFromOperation(op), op.TaxIndicator)
	}
	ws.markDirty(id, tc)
	return nil
}
