package events

const (
	EventTypeOperationsAccepted = "charge.operations.accepted"
	EventTypeOperationsRejected = "charge.operations.rejected"
)

// OperationsEvent is the payload published after a bundle is processed.
type OperationsEvent struct {
	EventID        string             `json:"eventId"`
	EventType      string             `json:"eventType"`
	EventTimestamp string             `json:"eventTimestamp"` // RFC 3339, UTC
	DocumentID     string             `json:"documentId"`
	BusinessReason string             `json:"businessReason"`
	SenderID       string             `json:"senderId"`
	Operations     []OperationPayload `json:"operations"`
}

// OperationPayload identifies one operation and, for rejections, why it failed.
type OperationPayload struct {
	OperationID string        `json:"operationId"`
	ChargeID    string        `json:"chargeId"`
	Owner       string        `json:"owner"`
	Type        string        `json:"type"`
	Points      int           `json:"points,omitempty"`
	Rules       []RulePayload `json:"rules,omitempty"`
}

// RulePayload is one failed rule of a rejected operation.
type RulePayload struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	TriggeredBy string `json:"triggeredBy,omitempty"`
}
