package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// AttemptPublisher abstrai a publicação na fila de tentativas
type AttemptPublisher interface {
	Publish(ctx context.Context, msg AttemptMessage) error
	Close() error
}

const publishTimeout = 5 * time.Second

// KafkaAttemptPublisher implementa AttemptPublisher usando Kafka.
// As mensagens são particionadas pelo userId, então as tentativas de um
// mesmo usuário são consumidas na ordem de submissão.
type KafkaAttemptPublisher struct {
	writer *kafka.Writer
}

// NewKafkaAttemptPublisher cria uma nova instância de KafkaAttemptPublisher
func NewKafkaAttemptPublisher(brokers []string, topic string) *KafkaAttemptPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: publishTimeout,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaAttemptPublisher{
		writer: writer,
	}
}

// Publish envia a mensagem de tentativa com timeout limitado.
// Timeout é tratado pelo chamador como falha de publicação (dispara Restore).
func (p *KafkaAttemptPublisher) Publish(ctx context.Context, msg AttemptMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.UserID),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish attempt: %w", err)
	}
	return nil
}

// Close fecha o writer Kafka
func (p *KafkaAttemptPublisher) Close() error {
	return p.writer.Close()
}
