package validation

// Rule is the outcome of evaluating one validation policy. Validity is fixed
// when the rule is constructed and never changes afterwards.
type Rule interface {
	Identifier() RuleIdentifier
	IsValid() bool
}

// ExtendedRule is a rule carrying a back-reference to the operation that
// triggered it. Cascading rejections use it so they can be told apart from
// primary rejections.
type ExtendedRule interface {
	Rule
	TriggeredBy() string
}

type rule struct {
	identifier RuleIdentifier
	valid      bool
}

func (r rule) Identifier() RuleIdentifier { return r.identifier }
func (r rule) IsValid() bool              { return r.valid }

// NewRule returns a rule with a precomputed validity.
func NewRule(identifier RuleIdentifier, valid bool) Rule {
	return rule{identifier: identifier, valid: valid}
}

type subsequentOperationRule struct {
	triggeredBy string
}

// NewSubsequentBundleOperationsFailRule returns the synthetic cascade rule
// recorded for every operation that follows a failed one in the same bundle.
// It is always invalid.
func NewSubsequentBundleOperationsFailRule(triggeredBy string) ExtendedRule {
	return subsequentOperationRule{triggeredBy: triggeredBy}
}

func (r subsequentOperationRule) Identifier() RuleIdentifier { return SubsequentBundleOperationsFail }
func (r subsequentOperationRule) IsValid() bool              { return false }
func (r subsequentOperationRule) TriggeredBy() string        { return r.triggeredBy }

// RuleContainer ties a rule to the operation it was evaluated for.
type RuleContainer struct {
	Rule        Rule
	OperationID string
}

// TriggeredBy returns the triggering operation id for extended rules and an
// empty string otherwise.
func (c RuleContainer) TriggeredBy() string {
	if ext, ok := c.Rule.(ExtendedRule); ok {
		return ext.TriggeredBy()
	}
	return ""
}

func forOperation(operationID string, rules ...Rule) []RuleContainer {
	containers := make([]RuleContainer, 0, len(rules))
	for _, r := range rules {
		containers = append(containers, RuleContainer{Rule: r, OperationID: operationID})
	}
	return containers
}
