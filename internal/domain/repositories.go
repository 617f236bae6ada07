package domain

import (
	"context"
	"errors"
)

var (
	// ErrNilBundle is returned when the engine is handed no bundle at all.
	ErrNilBundle = errors.New("bundle is required")

	// ErrNilDocument is returned when a bundle carries no document.
	ErrNilDocument = errors.New("bundle document is required")

	// ErrChargeNotFound is returned when a charge that validation already
	// proved to exist cannot be resolved while applying an operation.
	ErrChargeNotFound = errors.New("charge not found")

	// ErrConcurrentChargeUpdate is returned when a charge was modified by
	// another bundle after it was read.
	ErrConcurrentChargeUpdate = errors.New("charge was updated concurrently")

	// ErrNotificationFailed is returned when a bundle was committed but at
	// least one notifier failed afterwards. The bundle must not be applied again.
	ErrNotificationFailed = errors.New("bundle committed but notification failed")
)

// ChargeRepository defines the interface for charge data access operations.
type ChargeRepository interface {
	// GetOrNil retrieves a charge by its natural key.
	// Returns nil without an error when the charge doesn't exist.
	GetOrNil(ctx context.Context, id ChargeIdentifier) (*Charge, error)

	// Add persists a new charge with its periods and points.
	Add(ctx context.Context, charge *Charge) error

	// Update persists the periods and points of an existing charge.
	// Returns ErrConcurrentChargeUpdate if the stored version differs from charge.Version.
	Update(ctx context.Context, charge *Charge) error
}

// MarketParticipantRepository defines the interface for market participant lookups.
type MarketParticipantRepository interface {
	// GetByMarketParticipantID returns nil without an error when no participant is registered.
	GetByMarketParticipantID(ctx context.Context, marketParticipantID string) (*MarketParticipant, error)

	// GetGridAccessProviders returns all active grid access providers.
	GetGridAccessProviders(ctx context.Context) ([]*MarketParticipant, error)
}

// TransactionManager defines the interface for managing database transactions.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier receives the outcome of a processed bundle.
// Delivery guarantees are the implementation's responsibility.
type Notifier interface {
	NotifyAccepted(ctx context.Context, document *Document, operations []ChargeOperation) error
	NotifyRejected(ctx context.Context, document *Document, operations []ChargeOperation, rules RejectionRules) error
}

// RejectionRule is the notifier-facing view of one failed validation rule.
type RejectionRule struct {
	OperationID string // Operation the rule was evaluated for
	Code        int    // Stable rule identifier
	Name        string // Rule identifier name
	TriggeredBy string // Operation that caused a cascading rejection, empty for primary rejections
}

// RejectionRules lists failed rules in rejection order.
type RejectionRules []RejectionRule

// ForOperation returns the rules recorded for a single operation.
func (r RejectionRules) ForOperation(operationID string) RejectionRules {
	var out RejectionRules
	for _, rule := range r {
		if rule.OperationID == operationID {
			out = append(out, rule)
		}
	}
	return out
}

// Notifiers fans an outcome out to several notifiers in order. Every
// notifier is called; failures are joined.
type Notifiers []Notifier

func (n Notifiers) NotifyAccepted(ctx context.Context, document *Document, operations []ChargeOperation) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.NotifyAccepted(ctx, document, operations); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n Notifiers) NotifyRejected(ctx context.Context, document *Document, operations []ChargeOperation, rules RejectionRules) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.NotifyRejected(ctx, document, operations, rules); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
