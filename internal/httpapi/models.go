package httpapi

import (
	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/availabledata"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

// BaseError is the body of every non-2xx response.
type BaseError struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
}

// BundleResponse reports how a submitted bundle was partitioned.
type BundleResponse struct {
	DocumentID string              `json:"documentId"`
	Accepted   []string            `json:"accepted"`
	Rejected   []RejectedOperation `json:"rejected"`
}

// RejectedOperation lists the failed rules of one rejected operation.
type RejectedOperation struct {
	OperationID string       `json:"operationId"`
	Rules       []FailedRule `json:"rules"`
}

// FailedRule is one invalid rule.
type FailedRule struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	TriggeredBy string `json:"triggeredBy,omitempty"`
}

// PeekResponse carries the next bundle of available data.
type PeekResponse struct {
	RecipientID string                  `json:"recipientId"`
	Kind        availabledata.Kind      `json:"kind"`
	MaxWeight   int                     `json:"maxWeight"`
	Records     []*availabledata.Record `json:"records"`
}

func failedRules(containers []validation.RuleContainer) map[string][]FailedRule {
	byOperation := make(map[string][]FailedRule)
	for _, c := range containers {
		byOperation[c.OperationID] = append(byOperation[c.OperationID], FailedRule{
			Code:        int(c.Rule.Identifier()),
			Name:        c.Rule.Identifier().String(),
			TriggeredBy: c.TriggeredBy(),
		})
	}
	return byOperation
}
