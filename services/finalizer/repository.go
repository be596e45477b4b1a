package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrOrderNotFound indica que não existe pedido para a chave consultada
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateOrder indica violação da constraint única (sale_id, user_id)
	ErrDuplicateOrder = errors.New("order already exists for sale and user")
)

const uniqueViolationCode = "23505"

// OrderRepository define a interface para operações de banco de dados de pedidos
type OrderRepository interface {
	// GetOrderByUserAndSale busca o pedido pela chave (sale_id, user_id)
	GetOrderByUserAndSale(ctx context.Context, userID, saleID string) (*Order, error)

	// CreateOrder insere um novo pedido; retorna ErrDuplicateOrder se a
	// constraint única rejeitar a linha
	CreateOrder(ctx context.Context, order *Order) error
}

// PostgresOrderRepository implementa OrderRepository usando PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de PostgresOrderRepository
func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresOrderRepository{
		db: db,
	}
}

// GetOrderByUserAndSale busca o pedido pela chave (sale_id, user_id)
func (r *PostgresOrderRepository) GetOrderByUserAndSale(ctx context.Context, userID, saleID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, sale_id, product_id, user_id, status, attempt_id, reserved_at, processed_at
		FROM orders WHERE sale_id = $1 AND user_id = $2
	`, saleID, userID).Scan(
		&order.ID,
		&order.SaleID,
		&order.ProductID,
		&order.UserID,
		&order.Status,
		&order.AttemptID,
		&order.ReservedAt,
		&order.ProcessedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// CreateOrder insere o pedido confiando na constraint única para rejeitar
// corridas genuínas entre instâncias do finalizador
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, sale_id, product_id, user_id, status, attempt_id, reserved_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.SaleID, order.ProductID, order.UserID, order.Status, order.AttemptID, order.ReservedAt, order.ProcessedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}
