package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader abstrai o reader Kafka para permitir testes sem broker.
// Fetch e commit são separados: o offset só é confirmado depois do
// processamento, preservando a entrega at-least-once.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AttemptProcessor define a interface para o use case de finalização
type AttemptProcessor interface {
	ProcessAttempt(ctx context.Context, msg AttemptMessage) error
}

// DeadLetterFunc recebe mensagens cujo processamento falhou. A implementação
// padrão apenas loga; uma rota de dead-letter real pode ser plugada aqui.
type DeadLetterFunc func(ctx context.Context, msg kafka.Message, err error)

const readBackoff = 1 * time.Second

// Consumer consome a fila de tentativas e despacha para o use case.
// Falhas de processamento são isoladas por mensagem; o loop nunca para
// por causa de uma mensagem ruim.
type Consumer struct {
	reader     MessageReader
	processor  AttemptProcessor
	deadLetter DeadLetterFunc
	logger     *zap.Logger
}

// NewConsumer cria uma nova instância de Consumer
func NewConsumer(reader MessageReader, processor AttemptProcessor, logger *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:    reader,
		processor: processor,
		logger:    logger,
	}
	c.deadLetter = func(ctx context.Context, msg kafka.Message, err error) {
		logger.Error("message sent to default dead-letter sink",
			zap.String("key", string(msg.Key)),
			zap.Error(err))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConsumerOption configura o Consumer
type ConsumerOption func(*Consumer)

// WithDeadLetter substitui o destino de mensagens com falha persistente
func WithDeadLetter(fn DeadLetterFunc) ConsumerOption {
	return func(c *Consumer) {
		if fn != nil {
			c.deadLetter = fn
		}
	}
}

// Run consome mensagens até o contexto ser cancelado. O offset de cada
// mensagem é confirmado somente após o handler (ou o dead-letter)
// terminar: um crash no meio do processamento reentrega a mensagem, e o
// handler idempotente absorve a duplicata.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to fetch message from attempt queue", zap.Error(err))
			time.Sleep(readBackoff)
			continue
		}

		var msg AttemptMessage
		if err := json.Unmarshal(raw.Value, &msg); err != nil {
			c.logger.Error("failed to decode attempt message",
				zap.String("key", string(raw.Key)),
				zap.Error(err))
			c.deadLetter(ctx, raw, err)
		} else if err := c.processor.ProcessAttempt(ctx, msg); err != nil {
			c.logger.Error("failed to process attempt",
				zap.String("user_id", msg.UserID),
				zap.String("sale_id", msg.SaleID),
				zap.Error(err))
			c.deadLetter(ctx, raw, err)
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			c.logger.Error("failed to commit message offset",
				zap.String("key", string(raw.Key)),
				zap.Error(err))
		}
	}
}
