package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ ledger.Observer = (*KafkaPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher streams committed ledger events to a Kafka topic, keyed by
// the wallet the event belongs to so per-wallet ordering is preserved.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// Payload is the JSON body of a published ledger event
type Payload struct {
	Action         models.LedgerAction `json:"action"`
	EntryId        string              `json:"entry_id"`
	SourceWalletId string              `json:"source_wallet_id,omitempty"`
	TargetWalletId string              `json:"target_wallet_id,omitempty"`
	Amount         models.Voltz        `json:"amount"`
	EntryType      models.EntryType    `json:"entry_type"`
	Status         models.EntryStatus  `json:"status"`
	VoltzType      models.VoltzType    `json:"voltz_type"`
	DealId         string              `json:"deal_id,omitempty"`
	EventId        string              `json:"event_id,omitempty"`
	CampaignMgrId  string              `json:"campaign_manager_id,omitempty"`
	ExternalRef    string              `json:"external_ref,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func NewKafkaPublisher(cfg models.EventsConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: cfg.Topic,
	}, nil
}

// Observe publishes the event. Failures are logged only; the ledger has
// already committed.
func (p *KafkaPublisher) Observe(ctx context.Context, event models.LedgerEvent) {
	if err := p.Publish(ctx, event); err != nil {
		zap.L().Error("Failed to publish ledger event",
			zap.String("topic", p.topic),
			zap.String("action", string(event.Action)),
			zap.String("entry_id", event.Entry.Id),
			zap.Error(err))
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.LedgerEvent) error {
	value, err := json.Marshal(newPayload(event))
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: value,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func newPayload(event models.LedgerEvent) Payload {
	e := event.Entry
	return Payload{
		Action:         event.Action,
		EntryId:        e.Id,
		SourceWalletId: e.SourceWalletId,
		TargetWalletId: e.TargetWalletId,
		Amount:         e.Amount,
		EntryType:      e.Type,
		Status:         e.Status,
		VoltzType:      e.VoltzType,
		DealId:         e.Context.DealId,
		EventId:        e.Context.EventId,
		CampaignMgrId:  e.Context.CampaignManagerId,
		ExternalRef:    e.ExternalRef,
		OccurredAt:     event.OccurredAt.UTC(),
	}
}

// partitionKey is the wallet whose balance the event moves first
func partitionKey(event models.LedgerEvent) string {
	if event.Entry.SourceWalletId != "" {
		return event.Entry.SourceWalletId
	}
	return event.Entry.TargetWalletId
}
