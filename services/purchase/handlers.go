package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PurchaseUseCaseInterface define a interface para o use case
type PurchaseUseCaseInterface interface {
	AttemptPurchase(ctx context.Context, userID, saleID string) (PurchaseOutcome, error)
	GetPurchaseStatus(ctx context.Context, userID, productID string) (PurchaseResult, error)
}

// PurchaseHandler contém os handlers HTTP
type PurchaseHandler struct {
	useCase PurchaseUseCaseInterface
	tracer  trace.Tracer
}

// NewPurchaseHandler cria uma nova instância de PurchaseHandler
func NewPurchaseHandler(useCase PurchaseUseCaseInterface, tracer trace.Tracer) *PurchaseHandler {
	return &PurchaseHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// AttemptPurchase processa uma requisição de compra
func (h *PurchaseHandler) AttemptPurchase(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "attempt_purchase")
	defer span.End()

	var req AttemptPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("sale_id", req.SaleID),
	)

	outcome, err := h.useCase.AttemptPurchase(ctx, req.UserID, req.SaleID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("purchase.accepted", outcome.Success))

	c.JSON(http.StatusOK, outcome)
}

// PurchaseStatus consulta o resultado final de uma tentativa de compra
func (h *PurchaseHandler) PurchaseStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "purchase_status")
	defer span.End()

	userID := c.Query("user_id")
	productID := c.Query("product_id")
	if userID == "" || productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and product_id are required"})
		return
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
	)

	result, err := h.useCase.GetPurchaseStatus(ctx, userID, productID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("purchase.result", string(result)))

	if result == ResultUnknown {
		// Ainda não finalizado (ou nunca tentado): sinal explícito, não erro
		c.JSON(http.StatusAccepted, gin.H{
			"status":  result,
			"message": "Result not yet available. Please check back shortly.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": result})
}

// HealthCheck verifica a saúde do serviço
func (h *PurchaseHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "purchase-service",
	})
}
