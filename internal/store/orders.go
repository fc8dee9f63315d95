package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
)

const orderColumns = `id, order_number, user_id, status, subtotal, shipping, discount, promo_code, total, created_at, updated_at`

const orderItemColumns = `order_id, product_id, size, color, quantity, unit_price, customization_fee, item_total`

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}

// CreateOrder inserts an order and its items in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (:id, :order_number, :user_id, :status, :subtotal, :shipping, :discount, :promo_code, :total, :created_at, :updated_at)`,
		order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := order.Items[i]
		item.OrderID = order.ID
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO order_items (`+orderItemColumns+`)
			 VALUES (:order_id, :product_id, :size, :color, :quantity, :unit_price, :customization_fee, :item_total)`,
			item)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrder retrieves an order by its storage id
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	return s.withItems(ctx, &order)
}

// GetUserOrder retrieves an order only if it belongs to userID
func (s *Store) GetUserOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	return s.withItems(ctx, &order)
}

func (s *Store) withItems(ctx context.Context, order *models.Order) (*models.Order, error) {
	err := s.db.SelectContext(ctx, &order.Items,
		"SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus moves an order from one status to another only if the
// stored row still has status from (compare-and-swap).
func (s *Store) UpdateOrderStatus(ctx context.Context, id, userID string, from, to models.OrderStatus, at time.Time) error {
	query := "UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4"
	args := []interface{}{to, at, id, from}
	if userID != "" {
		query += " AND user_id = $5"
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s no longer %s: %w", id, from, models.ErrUpdateConflict)
	}
	return nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
