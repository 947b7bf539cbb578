package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/smartlocker/internal/storage"
)

// TransactionSource is the slice of the registry the publisher drains.
type TransactionSource interface {
	ListUnpublishedTransactions(ctx context.Context, limit int) ([]storage.TransactionEntry, error)
	MarkTransactionPublished(ctx context.Context, id uuid.UUID) error
}

type PublisherConfig struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
}

// Publisher drains the transaction trail to the broker. Entries are written
// durably first and published here, so a broker outage delays the stream but
// never loses an event.
type Publisher struct {
	source         TransactionSource
	producer       Producer
	config         PublisherConfig
	logger         *zap.SugaredLogger
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewPublisher(source TransactionSource, producer Producer, config PublisherConfig) *Publisher {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &Publisher{
		source:         source,
		producer:       producer,
		config:         config,
		logger:         zap.S().Named("publisher"),
		shutdownSignal: make(chan struct{}),
	}
}

func (p *Publisher) Run(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	p.logger.Infow("transaction publisher started", "topic", p.config.Topic, "poll_interval", p.config.PollInterval)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Errorw("publish batch failed", "error", err)
			}
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			p.Shutdown()
			return
		}
	}
}

func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		close(p.shutdownSignal)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("transaction publisher stopped")
		case <-time.After(30 * time.Second):
			p.logger.Warn("transaction publisher shutdown timed out")
		}

		if err := p.producer.Close(); err != nil {
			p.logger.Errorw("producer close failed", "error", err)
		}
	})
}

func (p *Publisher) processBatch(ctx context.Context) error {
	entries, err := p.source.ListUnpublishedTransactions(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list unpublished: %w", err)
	}

	for _, entry := range entries {
		select {
		case <-p.shutdownSignal:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.publishEntry(ctx, entry); err != nil {
			// Leave the entry unpublished; the next tick retries it.
			p.logger.Errorw("publish failed", "transaction_id", entry.ID, "error", err)
			continue
		}
	}
	return nil
}

func (p *Publisher) publishEntry(ctx context.Context, entry storage.TransactionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", entry.ID, err)
	}

	if err := p.producer.SendMessage(ctx, p.config.Topic, []byte(entry.ID.String()), payload); err != nil {
		return fmt.Errorf("send transaction %s: %w", entry.ID, err)
	}

	if err := p.source.MarkTransactionPublished(ctx, entry.ID); err != nil {
		return fmt.Errorf("mark transaction %s published: %w", entry.ID, err)
	}
	return nil
}
