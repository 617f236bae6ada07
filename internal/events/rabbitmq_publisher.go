package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher implements domain.Notifier by publishing bundle outcomes
// to a topic exchange. Routing keys equal the event types.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	now      func() time.Time
	log      *logger.Entry
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := newPublisher(ch, exchange)
	p.conn = conn
	p.log.WithFields(logger.Fields{"exchange": exchange}).Info("RabbitMQ publisher initialized")
	return p, nil
}

func newPublisher(ch channel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:  ch,
		exchange: exchange,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.GetLogger().WithComponent("rabbitmq_publisher"),
	}
}

// NotifyAccepted implements domain.Notifier.
func (p *RabbitMQPublisher) NotifyAccepted(ctx context.Context, document *domain.Document, operations []domain.ChargeOperation) error {
	event := p.newEvent(EventTypeOperationsAccepted, document)
	for i := range operations {
		payload := operationPayload(&operations[i])
		payload.Points = len(operations[i].Points)
		event.Operations = append(event.Operations, payload)
	}
	return p.publish(ctx, event)
}

// NotifyRejected implements domain.Notifier.
func (p *RabbitMQPublisher) NotifyRejected(ctx context.Context, document *domain.Document, operations []domain.ChargeOperation, rules domain.RejectionRules) error {
	event := p.newEvent(EventTypeOperationsRejected, document)
	for i := range operations {
		payload := operationPayload(&operations[i])
		for _, rule := range rules.ForOperation(operations[i].OperationID) {
			payload.Rules = append(payload.Rules, RulePayload{
				Code:        rule.Code,
				Name:        rule.Name,
				TriggeredBy: rule.TriggeredBy,
			})
		}
		event.Operations = append(event.Operations, payload)
	}
	return p.publish(ctx, event)
}

func (p *RabbitMQPublisher) newEvent(eventType string, document *domain.Document) *OperationsEvent {
	return &OperationsEvent{
		EventID:        uuid.New().String(),
		EventType:      eventType,
		EventTimestamp: p.now().Format(time.RFC3339),
		DocumentID:     document.ID,
		BusinessReason: document.BusinessReasonCode.String(),
		SenderID:       document.Sender.ID,
	}
}

func operationPayload(op *domain.ChargeOperation) OperationPayload {
	return OperationPayload{
		OperationID: op.OperationID,
		ChargeID:    op.ChargeID,
		Owner:       op.Owner,
		Type:        op.Type.String(),
	}
}

func (p *RabbitMQPublisher) publish(ctx context.Context, event *OperationsEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,      // exchange
		event.EventType, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.EventType, err)
	}

	p.log.WithFields(logger.Fields{
		"event_id":    event.EventID,
		"event_type":  event.EventType,
		"document_id": event.DocumentID,
		"operations":  len(event.Operations),
	}).Debug("Event published")
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.WithError(err).Warn("Failed to close channel")
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
