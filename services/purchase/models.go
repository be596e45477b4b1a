package main

import (
	"time"
)

// Sale representa uma venda relâmpago de produto único
type Sale struct {
	ID             string    `json:"id" db:"id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	StartAt        time.Time `json:"start_at" db:"start_at"`
	EndAt          time.Time `json:"end_at" db:"end_at"`
	InitialStock   int       `json:"initial_stock" db:"initial_stock"`
	RemainingStock int       `json:"remaining_stock" db:"remaining_stock"`
}

// AttemptMessage é a mensagem publicada na fila de tentativas
type AttemptMessage struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	SaleID    string    `json:"saleId"`
	Timestamp time.Time `json:"timestamp"`
}

// AttemptPurchaseRequest representa a requisição de compra
type AttemptPurchaseRequest struct {
	UserID string `json:"user_id" binding:"required"`
	SaleID string `json:"sale_id" binding:"required"`
}

// PurchaseOutcome é o resultado síncrono de uma tentativa de compra
type PurchaseOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PurchaseResult representa o resultado final consultável de uma tentativa
type PurchaseResult string

const (
	ResultSuccess PurchaseResult = "SUCCESS"
	ResultFailed  PurchaseResult = "FAILED"
	ResultUnknown PurchaseResult = "UNKNOWN"
)

// Mensagens visíveis ao usuário; fazem parte do contrato da API
const (
	MsgSaleNotFound      = "Sale not found."
	MsgSaleNotStartedFmt = "The sale has not started yet. It starts at %s."
	MsgSaleEndedFmt      = "The sale has ended. It ended at %s."
	MsgOutOfStock        = "Sorry, the item is out of stock."
	MsgProcessing        = "Your purchase request is being processed. Please check back shortly."
	MsgPurchaseSucceeded = "Your purchase succeeded."
	MsgPurchaseFailed    = "Your purchase failed."
	MsgTryAgainLater     = "We could not accept your request right now. Please try again."
	MsgAcceptedFmt       = "Your purchase request for sale %s has been received and is being processed."
)
