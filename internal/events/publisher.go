package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/ksred/klear-recon/internal/reconciliation"
)

var _ reconciliation.Publisher = (*KafkaPublisher)(nil)

// ResultEvent is the message announcing a completed reconciliation. It
// carries the summary only; consumers fetch the full result by ID.
type ResultEvent struct {
	ReconciliationID   string                       `json:"reconciliation_id"`
	FundID             string                       `json:"fund_id"`
	ReconciliationDate time.Time                    `json:"reconciliation_date"`
	GeneratedAt        time.Time                    `json:"generated_at"`
	CustodySource      string                       `json:"custody_source"`
	OverallStatus      reconciliation.OverallStatus `json:"overall_status"`
	Summary            reconciliation.Summary       `json:"summary"`
	FlagCount          int                          `json:"flag_count"`
}

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher constructs a publisher writing to topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Dialer:       dialer,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireAll),
	})
	return &KafkaPublisher{writer: w}
}

// PublishResult writes one event keyed by fund so a fund's runs stay ordered
func (p *KafkaPublisher) PublishResult(ctx context.Context, result *reconciliation.ReconciliationResult) error {
	msg, err := NewResultMessage(result)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish reconciliation event: %w", err)
	}

	log.Debug().
		Str("reconciliation_id", result.ID).
		Str("fund_id", result.FundID).
		Msg("published reconciliation event")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewResultMessage builds the kafka message for a result
func NewResultMessage(result *reconciliation.ReconciliationResult) (kafka.Message, error) {
	event := ResultEvent{
		ReconciliationID:   result.ID,
		FundID:             result.FundID,
		ReconciliationDate: result.ReconciliationDate,
		GeneratedAt:        result.GeneratedAt,
		CustodySource:      result.Sources.Custody.Source,
		OverallStatus:      result.Summary.OverallStatus,
		Summary:            result.Summary,
		FlagCount:          len(result.Flags),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal reconciliation event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(result.FundID),
		Value: value,
		Time:  result.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "overall_status", Value: []byte(result.Summary.OverallStatus)},
		},
	}, nil
}
