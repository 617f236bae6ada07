package validation

import (
	"errors"
	"fmt"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// ErrValidRuleInResult is returned when a failure result is built from a rule
// that did not fail. It signals a programming error, not a rejection.
var ErrValidRuleInResult = errors.New("validation result may only hold invalid rules")

// Result is an immutable set of failed rules. An empty result is a success.
type Result struct {
	invalid []RuleContainer
}

// Evaluate keeps the failing rules of containers, preserving their order.
func Evaluate(containers []RuleContainer) Result {
	var invalid []RuleContainer
	for _, c := range containers {
		if !c.Rule.IsValid() {
			invalid = append(invalid, c)
		}
	}
	return Result{invalid: invalid}
}

// NewFailure builds a result from rules that are all known to be invalid.
func NewFailure(containers []RuleContainer) (Result, error) {
	for _, c := range containers {
		if c.Rule == nil {
			return Result{}, fmt.Errorf("operation %q: %w: nil rule", c.OperationID, ErrValidRuleInResult)
		}
		if c.Rule.IsValid() {
			return Result{}, fmt.Errorf("operation %q: %w: %s", c.OperationID, ErrValidRuleInResult, c.Rule.Identifier())
		}
	}
	invalid := make([]RuleContainer, len(containers))
	copy(invalid, containers)
	return Result{invalid: invalid}, nil
}

// IsFailed reports whether at least one rule failed.
func (r Result) IsFailed() bool { return len(r.invalid) > 0 }

// InvalidRules returns a copy of the failed rules.
func (r Result) InvalidRules() []RuleContainer {
	out := make([]RuleContainer, len(r.invalid))
	copy(out, r.invalid)
	return out
}

// Merge returns a result holding the rules of r followed by those of other.
func (r Result) Merge(other Result) Result {
	merged := make([]RuleContainer, 0, len(r.invalid)+len(other.invalid))
	merged = append(merged, r.invalid...)
	merged = append(merged, other.invalid...)
	return Result{invalid: merged}
}

// RejectionRules converts the result into the notifier-facing representation.
func (r Result) RejectionRules() domain.RejectionRules {
	out := make(domain.RejectionRules, 0, len(r.invalid))
	for _, c := range r.invalid {
		id := c.Rule.Identifier()
		out = append(out, domain.RejectionRule{
			OperationID: c.OperationID,
			Code:        int(id),
			Name:        id.String(),
			TriggeredBy: c.TriggeredBy(),
		})
	}
	return out
}
