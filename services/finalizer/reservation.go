package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultStore define a interface do finalizador com o store de reservas:
// escrita do resultado final e leitura de sanidade do contador.
type ResultStore interface {
	SetResult(ctx context.Context, userID, productID string, success bool) error
	CurrentStock(ctx context.Context, productID string) (int, error)
}

const resultTTL = 86400 * time.Second

func stockKey(productID string) string {
	return "flashsale:stock:" + productID
}

func resultKey(userID, productID string) string {
	return "flashsale:result:" + userID + ":" + productID
}

// RedisResultStore implementa ResultStore usando Redis
type RedisResultStore struct {
	client *redis.Client
}

// NewRedisResultStore cria uma nova instância de RedisResultStore
func NewRedisResultStore(client *redis.Client) *RedisResultStore {
	return &RedisResultStore{
		client: client,
	}
}

// SetResult grava o resultado final da tentativa com TTL
func (s *RedisResultStore) SetResult(ctx context.Context, userID, productID string, success bool) error {
	value := "0"
	if success {
		value = "1"
	}
	if err := s.client.Set(ctx, resultKey(userID, productID), value, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}
	return nil
}

// CurrentStock lê o valor atual do contador de estoque (checagem de
// sanidade apenas; o finalizador nunca re-reserva)
func (s *RedisResultStore) CurrentStock(ctx context.Context, productID string) (int, error) {
	value, err := s.client.Get(ctx, stockKey(productID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock counter: %w", err)
	}
	stock, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("unexpected stock counter value %q: %w", value, err)
	}
	return stock, nil
}
