package main

import (
	"time"
)

// AttemptMessage é a mensagem consumida da fila de tentativas
type AttemptMessage struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	SaleID    string    `json:"saleId"`
	Timestamp time.Time `json:"timestamp"`
}

// Order representa um pedido durável no sistema
type Order struct {
	ID          string    `json:"id" db:"id"`
	SaleID      string    `json:"sale_id" db:"sale_id"`
	ProductID   string    `json:"product_id" db:"product_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Status      string    `json:"status" db:"status"`
	AttemptID   string    `json:"attempt_id" db:"attempt_id"`
	ReservedAt  time.Time `json:"reserved_at" db:"reserved_at"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
}

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusPending = "PENDING"
	OrderStatusSuccess = "SUCCESS"
	OrderStatusFailed  = "FAILED"
)

// NewOrder cria uma nova instância de Order
func NewOrder(id, saleID, productID, userID, status, attemptID string, reservedAt, processedAt time.Time) *Order {
	return &Order{
		ID:          id,
		SaleID:      saleID,
		ProductID:   productID,
		UserID:      userID,
		Status:      status,
		AttemptID:   attemptID,
		ReservedAt:  reservedAt,
		ProcessedAt: processedAt,
	}
}
