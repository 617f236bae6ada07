package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func testDocument() *domain.Document {
	return &domain.Document{
		ID:                 "doc-1",
		Type:               domain.DocumentTypeRequestChangeOfPriceList,
		BusinessReasonCode: domain.BusinessReasonUpdateChargeInformation,
		Sender:             domain.MarketParticipantRef{ID: "5790000000001", Role: domain.RoleGridAccessProvider},
	}
}

func TestPublisherNotifyRejected(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "charges")
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	ops := []domain.ChargeOperation{
		{OperationID: "op-1", ChargeID: "C1", Owner: "5790000000001", Type: domain.ChargeTypeFee},
		{OperationID: "op-2", ChargeID: "C2", Owner: "5790000000001", Type: domain.ChargeTypeFee},
	}
	rules := domain.RejectionRules{
		{OperationID: "op-1", Code: 1, Name: "StartDateValidation"},
		{OperationID: "op-2", Code: 23, Name: "SubsequentBundleOperationsFail", TriggeredBy: "op-1"},
	}

	if err := p.NotifyRejected(context.Background(), testDocument(), ops, rules); err != nil {
		t.Fatalf("NotifyRejected failed: %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.published))
	}
	msg := ch.published[0]
	if msg.exchange != "charges" || msg.key != EventTypeOperationsRejected {
		t.Errorf("unexpected routing %s/%s", msg.exchange, msg.key)
	}
	if msg.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("expected persistent delivery, got %d", msg.msg.DeliveryMode)
	}

	var event OperationsEvent
	if err := json.Unmarshal(msg.msg.Body, &event); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if event.EventID == "" || event.EventID != msg.msg.MessageId {
		t.Errorf("expected event id to match message id, got %q and %q", event.EventID, msg.msg.MessageId)
	}
	if event.EventTimestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected timestamp %s", event.EventTimestamp)
	}
	if len(event.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(event.Operations))
	}
	second := event.Operations[1]
	if len(second.Rules) != 1 || second.Rules[0].Code != 23 || second.Rules[0].TriggeredBy != "op-1" {
		t.Errorf("unexpected rules for op-2: %+v", second.Rules)
	}
}

func TestPublisherNotifyAccepted(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "charges")

	ops := []domain.ChargeOperation{{OperationID: "op-1", ChargeID: "C1", Owner: "o", Type: domain.ChargeTypeTariff}}
	if err := p.NotifyAccepted(context.Background(), testDocument(), ops); err != nil {
		t.Fatalf("NotifyAccepted failed: %v", err)
	}
	if len(ch.published) != 1 || ch.published[0].key != EventTypeOperationsAccepted {
		t.Fatalf("expected one accepted event, got %+v", ch.published)
	}
}

func TestPublisherPropagatesErrors(t *testing.T) {
	boom := errors.New("channel closed")
	p := newPublisher(&fakeChannel{err: boom}, "charges")

	err := p.NotifyAccepted(context.Background(), testDocument(), []domain.ChargeOperation{{OperationID: "op-1"}})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped publish error, got %v", err)
	}
}
