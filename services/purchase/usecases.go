package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const auditTimeout = 10 * time.Second

// PurchaseUseCase contém a lógica de orquestração das tentativas de compra
type PurchaseUseCase struct {
	repository Repository
	store      ReservationStore
	publisher  AttemptPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPurchaseUseCase cria uma nova instância de PurchaseUseCase
func NewPurchaseUseCase(
	repository Repository,
	store ReservationStore,
	publisher AttemptPublisher,
	logger *zap.Logger,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		repository: repository,
		store:      store,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// AttemptPurchase processa uma tentativa de compra. Chamá-lo duas vezes
// para o mesmo usuário/venda nunca concede duas reservas.
func (uc *PurchaseUseCase) AttemptPurchase(ctx context.Context, userID, saleID string) (PurchaseOutcome, error) {
	// 1. Busca a venda
	sale, err := uc.repository.GetSale(ctx, saleID)
	if errors.Is(err, ErrSaleNotFound) {
		return PurchaseOutcome{Success: false, Message: MsgSaleNotFound}, nil
	}
	if err != nil {
		return PurchaseOutcome{}, fmt.Errorf("looking up sale: %w", err)
	}

	// 2. Valida a janela da venda antes de tocar qualquer estado compartilhado
	now := uc.now()
	if now.Before(sale.StartAt) {
		return PurchaseOutcome{
			Success: false,
			Message: fmt.Sprintf(MsgSaleNotStartedFmt, sale.StartAt.Format(time.RFC3339)),
		}, nil
	}
	if now.After(sale.EndAt) {
		return PurchaseOutcome{
			Success: false,
			Message: fmt.Sprintf(MsgSaleEndedFmt, sale.EndAt.Format(time.RFC3339)),
		}, nil
	}

	// 3. Garante que o contador existe (restart do processo durante a venda)
	if err := uc.ensureStockCounter(ctx, sale); err != nil {
		return PurchaseOutcome{}, err
	}

	// 4. Reserva atômica. Exatamente uma chamada por tentativa.
	reserve, err := uc.store.TryReserve(ctx, sale.ProductID, userID)
	if err != nil {
		return PurchaseOutcome{}, fmt.Errorf("reserving stock: %w", err)
	}

	if !reserve.FirstAttempt {
		// Repetição: nunca re-reserva, apenas consulta o desfecho
		status, err := uc.store.GetStatus(ctx, userID, sale.ProductID)
		if err != nil {
			return PurchaseOutcome{}, fmt.Errorf("checking attempt status: %w", err)
		}
		if status.HasResult {
			if status.Result == ResultSuccess {
				return PurchaseOutcome{Success: true, Message: MsgPurchaseSucceeded}, nil
			}
			return PurchaseOutcome{Success: false, Message: MsgPurchaseFailed}, nil
		}
		return PurchaseOutcome{Success: false, Message: MsgProcessing}, nil
	}

	if !reserve.Granted {
		// 5. Sem estoque: grava FAILED de imediato para que o poll de status
		// não veja "não encontrado"
		if err := uc.store.SetResult(ctx, userID, sale.ProductID, false); err != nil {
			uc.logger.Warn("failed to write eager out-of-stock result",
				zap.String("user_id", userID),
				zap.String("product_id", sale.ProductID),
				zap.Error(err))
		}
		return PurchaseOutcome{Success: false, Message: MsgOutOfStock}, nil
	}

	// 6. Reserva concedida: audit fire-and-forget + publish na fila
	msg := AttemptMessage{
		UserID:    userID,
		ProductID: sale.ProductID,
		SaleID:    sale.ID,
		Timestamp: now.UTC(),
	}
	uc.auditAttempt(msg)

	if err := uc.publisher.Publish(ctx, msg); err != nil {
		uc.logger.Error("failed to publish attempt, restoring stock",
			zap.String("user_id", userID),
			zap.String("sale_id", sale.ID),
			zap.Error(err))
		// O usuário permanece marcado como "attempted"; apenas o estoque volta
		if rerr := uc.store.Restore(ctx, sale.ProductID); rerr != nil {
			uc.logger.Error("failed to restore stock after publish failure",
				zap.String("product_id", sale.ProductID),
				zap.Error(rerr))
		}
		return PurchaseOutcome{Success: false, Message: MsgTryAgainLater}, nil
	}

	return PurchaseOutcome{
		Success: true,
		Message: fmt.Sprintf(MsgAcceptedFmt, sale.ID),
	}, nil
}

// GetPurchaseStatus consulta o resultado final no cache de resultados
func (uc *PurchaseUseCase) GetPurchaseStatus(ctx context.Context, userID, productID string) (PurchaseResult, error) {
	result, err := uc.store.GetResult(ctx, userID, productID)
	if err != nil {
		return ResultUnknown, fmt.Errorf("reading purchase result: %w", err)
	}
	return result, nil
}

// WarmStockCounters inicializa os contadores das vendas dentro da janela.
// Chamado no startup para mitigar a corrida de inicialização preguiçosa.
func (uc *PurchaseUseCase) WarmStockCounters(ctx context.Context) error {
	sales, err := uc.repository.ListActiveSales(ctx, uc.now())
	if err != nil {
		return fmt.Errorf("listing active sales: %w", err)
	}
	for _, sale := range sales {
		if err := uc.ensureStockCounter(ctx, &sale); err != nil {
			return err
		}
		uc.logger.Info("stock counter warmed",
			zap.String("sale_id", sale.ID),
			zap.String("product_id", sale.ProductID))
	}
	return nil
}

// ensureStockCounter cria o contador a partir do remaining_stock durável se
// ele ainda não existe. Escrita simples, última réplica vence.
func (uc *PurchaseUseCase) ensureStockCounter(ctx context.Context, sale *Sale) error {
	exists, err := uc.store.StockExists(ctx, sale.ProductID)
	if err != nil {
		return fmt.Errorf("checking stock counter: %w", err)
	}
	if exists {
		return nil
	}
	if err := uc.store.InitStock(ctx, sale.ProductID, sale.RemainingStock); err != nil {
		return fmt.Errorf("initializing stock counter: %w", err)
	}
	return nil
}

// auditAttempt grava o registro bruto da tentativa em uma goroutine
// desacoplada. Erros são apenas logados, nunca propagados à compra.
func (uc *PurchaseUseCase) auditAttempt(msg AttemptMessage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()

		payload, err := json.Marshal(msg)
		if err != nil {
			uc.logger.Warn("failed to marshal audit payload", zap.Error(err))
			return
		}
		if err := uc.repository.CreatePurchaseAttempt(ctx, msg.SaleID, msg.UserID, payload); err != nil {
			uc.logger.Warn("failed to write purchase attempt audit record",
				zap.String("user_id", msg.UserID),
				zap.String("sale_id", msg.SaleID),
				zap.Error(err))
		}
	}()
}
