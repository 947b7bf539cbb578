package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// WriterProducer publishes through a real broker. One writer serves all
// topics; the topic travels on the message.
type WriterProducer struct {
	writer *kafka.Writer
}

func NewWriterProducer(brokers []string) *WriterProducer {
	return &WriterProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *WriterProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *WriterProducer) Close() error {
	return p.writer.Close()
}

// ConsoleProducer stands in for the broker during local development. It logs
// what would have been published and always succeeds.
type ConsoleProducer struct {
	logger *zap.SugaredLogger
}

func NewConsoleProducer() *ConsoleProducer {
	return &ConsoleProducer{logger: zap.S().Named("kafka.console")}
}

func (p *ConsoleProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p.logger.Infow("would publish", "topic", topic, "key", string(key), "value", string(value))
	return nil
}

func (p *ConsoleProducer) Close() error {
	return nil
}
