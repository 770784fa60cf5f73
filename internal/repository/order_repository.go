package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

const orderColumns = `id, course_id, customer_name, customer_email, customer_phone, amount_idr, status, snap_token,
gateway_reference, gateway_status, paid_at, created_at, updated_at`

// OrderRepository persists checkout orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs the repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order. The id doubles as the gateway order id and must be set by the caller.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	const query = `INSERT INTO orders (` + orderColumns + `)
VALUES (:id, :course_id, :customer_name, :customer_email, :customer_phone, :amount_idr, :status, :snap_token,
:gateway_reference, :gateway_status, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// FindByID returns an order.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

// UpdatePayment stores the gateway token and payment state of an order.
func (r *OrderRepository) UpdatePayment(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC()
	const query = `UPDATE orders SET status = :status, snap_token = :snap_token, gateway_reference = :gateway_reference,
gateway_status = :gateway_status, paid_at = :paid_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, order)
	if err != nil {
		return fmt.Errorf("update order payment: %w", err)
	}
	return expectAffected(res)
}
