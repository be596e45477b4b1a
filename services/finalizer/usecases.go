package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FinalizerUseCase converte reservas concedidas em pedidos duráveis e
// grava o resultado no cache. Entrega at-least-once: todo o processamento
// é idempotente sobre a chave (sale_id, user_id).
type FinalizerUseCase struct {
	orders OrderRepository
	store  ResultStore
	logger *zap.Logger
	now    func() time.Time
}

// NewFinalizerUseCase cria uma nova instância de FinalizerUseCase
func NewFinalizerUseCase(
	orders OrderRepository,
	store ResultStore,
	logger *zap.Logger,
) *FinalizerUseCase {
	return &FinalizerUseCase{
		orders: orders,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessAttempt finaliza uma mensagem de tentativa da fila
func (uc *FinalizerUseCase) ProcessAttempt(ctx context.Context, msg AttemptMessage) error {
	// 1. Entrega duplicada ou corrida já vencida por outra instância:
	// apenas espelha o status existente no cache de resultados
	existing, err := uc.orders.GetOrderByUserAndSale(ctx, msg.UserID, msg.SaleID)
	if err == nil {
		uc.writeResult(ctx, msg, existing.Status == OrderStatusSuccess)
		return nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		// Erro transitório de leitura: nenhuma escrita no cache aqui; o
		// offset não confirmado reentrega a mensagem e ela se resolve
		return fmt.Errorf("looking up existing order: %w", err)
	}

	// 2. Checagem de sanidade do contador; nunca re-reserva
	stock, err := uc.store.CurrentStock(ctx, msg.ProductID)
	if err != nil {
		uc.logger.Warn("failed to sanity-check stock counter",
			zap.String("product_id", msg.ProductID),
			zap.Error(err))
	} else if stock < 0 {
		uc.logger.Error("stock counter is negative",
			zap.String("product_id", msg.ProductID),
			zap.Int("stock", stock))
	}

	// 3. Insere o pedido; a constraint única resolve corridas genuínas
	now := uc.now().UTC()
	order := NewOrder(
		uuid.New().String(),
		msg.SaleID,
		msg.ProductID,
		msg.UserID,
		OrderStatusSuccess,
		uuid.New().String(),
		msg.Timestamp,
		now,
	)

	err = uc.orders.CreateOrder(ctx, order)
	if errors.Is(err, ErrDuplicateOrder) {
		winner, rerr := uc.orders.GetOrderByUserAndSale(ctx, msg.UserID, msg.SaleID)
		if rerr != nil {
			uc.writeResult(ctx, msg, false)
			return fmt.Errorf("re-reading order after unique violation: %w", rerr)
		}
		uc.writeResult(ctx, msg, winner.Status == OrderStatusSuccess)
		return nil
	}
	if err != nil {
		// Nenhum usuário fica UNKNOWN para sempre: grava FAILED e deixa o
		// erro para o hook de dead-letter
		uc.writeResult(ctx, msg, false)
		return fmt.Errorf("creating order: %w", err)
	}

	// 4. Pedido criado: resultado final SUCCESS
	uc.writeResult(ctx, msg, true)

	uc.logger.Info("✅ order finalized",
		zap.String("order_id", order.ID),
		zap.String("user_id", msg.UserID),
		zap.String("sale_id", msg.SaleID))
	return nil
}

func (uc *FinalizerUseCase) writeResult(ctx context.Context, msg AttemptMessage, success bool) {
	if err := uc.store.SetResult(ctx, msg.UserID, msg.ProductID, success); err != nil {
		uc.logger.Error("failed to write result to cache",
			zap.String("user_id", msg.UserID),
			zap.String("product_id", msg.ProductID),
			zap.Bool("success", success),
			zap.Error(err))
	}
}
