package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/engine"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/logger"
)

// ErrMalformedBundle marks messages that can never be processed and must not be redelivered.
var ErrMalformedBundle = errors.New("malformed bundle message")

// Config holds the inbound queue topology.
type Config struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
	Prefetch   int
}

// BundleProcessor processes one bundle.
type BundleProcessor interface {
	Process(ctx context.Context, bundle *domain.Bundle) (*engine.Outcome, error)
}

// BundleConsumer feeds bundles received from RabbitMQ into the processor.
// Messages are acknowledged only after the bundle has been processed, so
// delivery is at-least-once.
type BundleConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	config    Config
	processor BundleProcessor
	log       *logger.Entry
}

// NewBundleConsumer connects to RabbitMQ and declares the exchange, the
// durable queue and the binding between them.
func NewBundleConsumer(cfg Config, processor BundleProcessor) (*BundleConsumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if cfg.Prefetch > 0 {
		if err := channel.Qos(cfg.Prefetch, 0, false); err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	c := &BundleConsumer{
		conn:      conn,
		channel:   channel,
		config:    cfg,
		processor: processor,
		log:       logger.GetLogger().WithComponent("bundle_consumer"),
	}
	c.log.WithFields(logger.Fields{
		"exchange":    cfg.Exchange,
		"queue":       cfg.Queue,
		"routing_key": cfg.RoutingKey,
	}).Info("RabbitMQ consumer initialized")

	return c, nil
}

// Start consumes messages until ctx is cancelled or the delivery channel closes.
func (c *BundleConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.WithFields(logger.Fields{"queue": c.config.Queue}).Info("RabbitMQ consumer started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Context cancelled, stopping RabbitMQ consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.settle(msg, c.handleMessage(ctx, msg.Body))
		}
	}
}

func (c *BundleConsumer) settle(msg amqp.Delivery, err error) {
	ack, requeue := disposition(err)
	if ack {
		if err != nil {
			c.log.WithError(err).WithFields(logger.Fields{
				"message_id": msg.MessageId,
			}).Warn("Bundle committed with notification failure, not redelivering")
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			c.log.WithError(ackErr).Warn("Failed to ack message")
		}
		return
	}

	c.log.WithError(err).WithFields(logger.Fields{
		"message_id": msg.MessageId,
		"requeue":    requeue,
	}).Error("Failed to handle bundle message")
	if nackErr := msg.Nack(false, requeue); nackErr != nil {
		c.log.WithError(nackErr).Warn("Failed to nack message")
	}
}

// disposition decides how a delivery is settled after handling. A bundle
// that was committed is never redelivered.
func disposition(err error) (ack, requeue bool) {
	switch {
	case err == nil, errors.Is(err, domain.ErrNotificationFailed):
		return true, false
	case errors.Is(err, ErrMalformedBundle),
		errors.Is(err, domain.ErrNilBundle),
		errors.Is(err, domain.ErrNilDocument):
		return false, false
	default:
		return false, true
	}
}

func (c *BundleConsumer) handleMessage(ctx context.Context, body []byte) error {
	var bundle domain.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}

	outcome, err := c.processor.Process(ctx, &bundle)
	if err != nil {
		return err
	}

	c.log.WithFields(logger.Fields{
		"document_id": bundle.Document.ID,
		"accepted":    len(outcome.Accepted),
		"rejected":    len(outcome.Rejected),
	}).Info("Bundle message processed")
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *BundleConsumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close channel")
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
