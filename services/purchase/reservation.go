package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReserveResult é a saída do primitivo atômico de reserva
type ReserveResult struct {
	Granted      bool
	Remaining    int
	FirstAttempt bool
}

// AttemptStatus combina a checagem de tentativa com a leitura do resultado
type AttemptStatus struct {
	Attempted bool
	HasResult bool
	Result    PurchaseResult
}

// ReservationStore define a interface para o estoque atômico de reservas.
// Toda a contenção entre compradores é resolvida dentro de TryReserve;
// nenhum outro componente escreve o contador ou o conjunto de tentativas.
type ReservationStore interface {
	TryReserve(ctx context.Context, productID, userID string) (ReserveResult, error)
	Restore(ctx context.Context, productID string) error
	GetStatus(ctx context.Context, userID, productID string) (AttemptStatus, error)
	SetResult(ctx context.Context, userID, productID string, success bool) error
	GetResult(ctx context.Context, userID, productID string) (PurchaseResult, error)
	InitStock(ctx context.Context, productID string, stock int) error
	StockExists(ctx context.Context, productID string) (bool, error)
}

const resultTTL = 86400 * time.Second

func stockKey(productID string) string {
	return "flashsale:stock:" + productID
}

func attemptedKey(productID string) string {
	return "flashsale:attempted:" + productID
}

func resultKey(userID, productID string) string {
	return "flashsale:result:" + userID + ":" + productID
}

// tryReserveScript executa a reserva como um único passo indivisível:
// 1. repetição -> nega sem tocar o contador
// 2. sem estoque -> marca a tentativa mesmo assim e nega
// 3. decremento negativo -> restaura o piso zero e nega
// 4. caso contrário -> concede e marca a tentativa
var tryReserveScript = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[2], ARGV[1]) == 1 then
  local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
  return {0, cur, 0}
end
local stock = tonumber(redis.call("GET", KEYS[1]) or "0")
if stock <= 0 then
  redis.call("SADD", KEYS[2], ARGV[1])
  return {0, stock, 1}
end
local left = redis.call("DECR", KEYS[1])
if left < 0 then
  redis.call("INCR", KEYS[1])
  redis.call("SADD", KEYS[2], ARGV[1])
  return {0, 0, 1}
end
redis.call("SADD", KEYS[2], ARGV[1])
return {1, left, 1}
`)

// getStatusScript lê pertencimento ao conjunto e resultado em um passo
var getStatusScript = redis.NewScript(`
local attempted = redis.call("SISMEMBER", KEYS[1], ARGV[1])
local result = redis.call("GET", KEYS[2])
if result == false then
  return {attempted, 0, ""}
end
return {attempted, 1, result}
`)

// RedisReservationStore implementa ReservationStore usando Redis
type RedisReservationStore struct {
	client *redis.Client
}

// NewRedisReservationStore cria uma nova instância de RedisReservationStore
func NewRedisReservationStore(client *redis.Client) *RedisReservationStore {
	return &RedisReservationStore{
		client: client,
	}
}

// TryReserve tenta reservar uma unidade de estoque para o usuário.
// Deve ser chamado exatamente uma vez por tentativa de compra.
func (s *RedisReservationStore) TryReserve(ctx context.Context, productID, userID string) (ReserveResult, error) {
	raw, err := tryReserveScript.Run(ctx, s.client,
		[]string{stockKey(productID), attemptedKey(productID)}, userID).Result()
	if err != nil {
		return ReserveResult{}, fmt.Errorf("failed to run reserve script: %w", err)
	}
	return parseReserveReply(raw)
}

// Restore devolve exatamente uma unidade ao contador. Usado apenas para
// desfazer uma reserva concedida cujo publish na fila falhou.
func (s *RedisReservationStore) Restore(ctx context.Context, productID string) error {
	if err := s.client.Incr(ctx, stockKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

// GetStatus retorna em um único passo se o usuário já tentou e se há resultado
func (s *RedisReservationStore) GetStatus(ctx context.Context, userID, productID string) (AttemptStatus, error) {
	raw, err := getStatusScript.Run(ctx, s.client,
		[]string{attemptedKey(productID), resultKey(userID, productID)}, userID).Result()
	if err != nil {
		return AttemptStatus{}, fmt.Errorf("failed to run status script: %w", err)
	}
	return parseStatusReply(raw)
}

// SetResult grava o resultado final da tentativa com TTL
func (s *RedisReservationStore) SetResult(ctx context.Context, userID, productID string, success bool) error {
	value := "0"
	if success {
		value = "1"
	}
	if err := s.client.Set(ctx, resultKey(userID, productID), value, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}
	return nil
}

// GetResult lê o resultado final; ausência de chave significa UNKNOWN
func (s *RedisReservationStore) GetResult(ctx context.Context, userID, productID string) (PurchaseResult, error) {
	value, err := s.client.Get(ctx, resultKey(userID, productID)).Result()
	if err == redis.Nil {
		return ResultUnknown, nil
	}
	if err != nil {
		return ResultUnknown, fmt.Errorf("failed to get result: %w", err)
	}
	if value == "1" {
		return ResultSuccess, nil
	}
	return ResultFailed, nil
}

// InitStock inicializa o contador do produto. Escrita simples: se duas
// réplicas inicializam ao mesmo tempo, a última vence (corrida aceita de
// inicialização, mitigada pelo aquecimento no startup).
func (s *RedisReservationStore) InitStock(ctx context.Context, productID string, stock int) error {
	if err := s.client.Set(ctx, stockKey(productID), stock, 0).Err(); err != nil {
		return fmt.Errorf("failed to init stock: %w", err)
	}
	return nil
}

// StockExists verifica se o contador do produto já foi criado
func (s *RedisReservationStore) StockExists(ctx context.Context, productID string) (bool, error) {
	n, err := s.client.Exists(ctx, stockKey(productID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check stock key: %w", err)
	}
	return n > 0, nil
}

func parseReserveReply(raw interface{}) (ReserveResult, error) {
	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 3 {
		return ReserveResult{}, fmt.Errorf("unexpected reserve script reply: %v", raw)
	}
	granted, ok1 := reply[0].(int64)
	remaining, ok2 := reply[1].(int64)
	first, ok3 := reply[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return ReserveResult{}, fmt.Errorf("unexpected reserve script reply types: %v", raw)
	}
	return ReserveResult{
		Granted:      granted == 1,
		Remaining:    int(remaining),
		FirstAttempt: first == 1,
	}, nil
}

func parseStatusReply(raw interface{}) (AttemptStatus, error) {
	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 3 {
		return AttemptStatus{}, fmt.Errorf("unexpected status script reply: %v", raw)
	}
	attempted, ok1 := reply[0].(int64)
	hasResult, ok2 := reply[1].(int64)
	if !ok1 || !ok2 {
		return AttemptStatus{}, fmt.Errorf("unexpected status script reply types: %v", raw)
	}
	status := AttemptStatus{
		Attempted: attempted == 1,
		HasResult: hasResult == 1,
		Result:    ResultUnknown,
	}
	if status.HasResult {
		value, _ := reply[2].(string)
		if value == "1" {
			status.Result = ResultSuccess
		} else {
			status.Result = ResultFailed
		}
	}
	return status, nil
}
