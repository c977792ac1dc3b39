package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Fetcher is the consuming side of a topic. *kafka.Reader implements it.
type Fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader joins group on topic. Offsets are committed explicitly by the caller.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
}

// Producer publishes survey jobs.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Publish writes the jobs keyed by survey id.
func (p *Producer) Publish(ctx context.Context, jobs ...SurveyJob) error {
	if len(jobs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(jobs))
	for _, j := range jobs {
		value, err := j.Encode()
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: j.Key(), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d survey jobs: %w", len(msgs), err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
