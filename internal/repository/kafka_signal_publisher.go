package repository

import (
	"context"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
)

type batchWriter interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaSignalPublisher writes buy signals keyed by code, so one code's
// signals stay ordered on a partition.
type KafkaSignalPublisher struct {
	producer batchWriter
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

var _ drepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig models.BuySignal) error {
	return p.PublishBatch(ctx, []models.BuySignal{sig})
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, sigs []models.BuySignal) error {
	if len(sigs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(sigs))
	for i, s := range sigs {
		msgs[i] = pkgkafka.Message{Key: []byte(s.Code), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error { return p.producer.Close() }

// LogSignalPublisher stands in when Kafka is disabled. Signals only reach the log.
type LogSignalPublisher struct {
	log *applogger.Logger
}

func NewLogSignalPublisher(l *applogger.Logger) *LogSignalPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &LogSignalPublisher{log: l.With("signals")}
}

var _ drepo.SignalPublisher = (*LogSignalPublisher)(nil)

func (p *LogSignalPublisher) Publish(ctx context.Context, sig models.BuySignal) error {
	return p.PublishBatch(ctx, []models.BuySignal{sig})
}

func (p *LogSignalPublisher) PublishBatch(_ context.Context, sigs []models.BuySignal) error {
	for _, s := range sigs {
		p.log.Info("buy signal (kafka disabled)",
			applogger.String("id", s.ID),
			applogger.String("code", s.Code),
			applogger.Float64("target", s.Target),
			applogger.Float64("stop", s.Stop),
		)
	}
	return nil
}

func (p *LogSignalPublisher) Close() error { return nil }
