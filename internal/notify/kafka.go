package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig holds the relay settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// kafkaWriter is the subset of *kafka.Writer the notifier needs.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes rendered emails to a topic for an external mail
// relay to deliver.
type KafkaNotifier struct {
	renderer *Renderer
	writer   kafkaWriter
}

// emailEvent is the wire format consumed by the relay.
type emailEvent struct {
	Kind       string    `json:"kind"`
	WithdrawId string    `json:"withdraw_id"`
	FromName   string    `json:"from_name"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	HTML       string    `json:"html"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewKafkaNotifier(renderer *Renderer, cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka notifier requires KAFKA_BROKERS and KAFKA_NOTIFICATION_TOPIC")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: cfg.WriteTimeout,
	}

	zap.L().Info("Kafka notification relay configured",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return &KafkaNotifier{renderer: renderer, writer: writer}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	email, err := n.renderer.Render(msg)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(emailEvent{
		Kind:       email.Kind.String(),
		WithdrawId: email.Reference,
		FromName:   email.FromName,
		From:       email.From,
		To:         email.To,
		Subject:    email.Subject,
		HTML:       email.HTML,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("unable to encode notification: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(email.Reference),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(email.Kind.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("unable to publish %s notification: %w", email.Kind, err)
	}

	zap.L().Info("Notification published",
		zap.String("kind", email.Kind.String()),
		zap.String("withdraw_id", email.Reference))
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
