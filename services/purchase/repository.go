package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSaleNotFound indica que a venda não existe
var ErrSaleNotFound = errors.New("sale not found")

// Repository define a interface para operações de banco de dados de vendas
type Repository interface {
	// GetSale busca uma venda pelo ID
	GetSale(ctx context.Context, saleID string) (*Sale, error)

	// ListActiveSales lista as vendas dentro da janela [start_at, end_at]
	ListActiveSales(ctx context.Context, now time.Time) ([]Sale, error)

	// CreatePurchaseAttempt grava o payload bruto da tentativa (audit log)
	CreatePurchaseAttempt(ctx context.Context, saleID, userID string, payload []byte) error
}

// SaleRepository implementa Repository usando PostgreSQL
type SaleRepository struct {
	db *pgxpool.Pool
}

// NewSaleRepository cria uma nova instância de SaleRepository
func NewSaleRepository(db *pgxpool.Pool) Repository {
	return &SaleRepository{
		db: db,
	}
}

// GetSale busca uma venda pelo ID
func (r *SaleRepository) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	var sale Sale
	err := r.db.QueryRow(ctx, `
		SELECT id, product_id, start_at, end_at, initial_stock, remaining_stock
		FROM sales WHERE id = $1
	`, saleID).Scan(&sale.ID, &sale.ProductID, &sale.StartAt, &sale.EndAt, &sale.InitialStock, &sale.RemainingStock)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return &sale, nil
}

// ListActiveSales lista as vendas cuja janela contém o instante informado
func (r *SaleRepository) ListActiveSales(ctx context.Context, now time.Time) ([]Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, start_at, end_at, initial_stock, remaining_stock
		FROM sales WHERE start_at <= $1 AND end_at >= $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.StartAt, &sale.EndAt, &sale.InitialStock, &sale.RemainingStock); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// CreatePurchaseAttempt insere o registro de auditoria da tentativa.
// Chamado fora do caminho síncrono; falhas aqui nunca afetam a compra.
func (r *SaleRepository) CreatePurchaseAttempt(ctx context.Context, saleID, userID string, payload []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchase_attempts (id, sale_id, user_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), saleID, userID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert purchase attempt: %w", err)
	}
	return nil
}
